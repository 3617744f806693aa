// Copyright 2025 Alexander Alten (novatechflow), NovaTechflow (novatechflow.com).
// This project is supported and financed by Scalytics, Inc. (www.scalytics.io).
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package annotation implements the inline binary annotation format embedded
// in build log lines. An annotation is framed by a fixed preamble and
// postamble; between them sits a base64 payload of kind, body length, and
// body, so a record can never contain a raw line-boundary byte.
package annotation

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"
)

// Preamble marks the start of an annotation record. The SGR conceal sequence
// keeps raw terminals from rendering the payload.
var Preamble = []byte{0x1b, '[', '8', 'm', 'h', 'a', ':'}

// Postamble terminates an annotation record.
var Postamble = []byte{0x1b, '[', '0', 'm'}

// maxPayloadLen caps the decoded payload size of a single record.
const maxPayloadLen = 4096

const payloadHeaderLen = 3 // kind + body length

// KindTimestamp identifies a timestamp annotation.
const KindTimestamp byte = 0x01

// ErrUnknownKind reports a structurally valid record whose kind has no
// registered decoder. Callers skip the record; this is not a failure.
var ErrUnknownKind = errors.New("unknown annotation kind")

// ErrMalformed reports a record whose framing or payload is corrupt.
var ErrMalformed = errors.New("malformed annotation")

// errNoPreamble reports that the bytes at the scan position are ordinary
// content, not an annotation.
var errNoPreamble = errors.New("no annotation preamble")

// Record is one decoded annotation payload.
type Record interface {
	Kind() byte
}

// DecodeFunc parses a record body for one annotation kind.
type DecodeFunc func(body []byte) (Record, error)

var (
	registryMu sync.RWMutex
	registry   = make(map[byte]DecodeFunc)
)

// Register installs a decoder for the given kind, replacing any previous one.
// Kinds without a decoder are skipped during scanning rather than failing.
func Register(kind byte, fn DecodeFunc) {
	registryMu.Lock()
	registry[kind] = fn
	registryMu.Unlock()
}

func lookup(kind byte) (DecodeFunc, bool) {
	registryMu.RLock()
	fn, ok := registry[kind]
	registryMu.RUnlock()
	return fn, ok
}

// DecodeAt attempts to decode one annotation record starting at data[pos].
//
// On success it returns the record and the total number of bytes the record
// occupies, preamble through postamble. ErrUnknownKind and ErrMalformed are
// returned with a non-zero consumed count covering the bytes that belong to
// the record, so scanning resumes immediately after it. A record whose
// postamble is missing runs to the end of data. errNoPreamble is returned
// with consumed 0 when data[pos] does not start a full preamble.
func DecodeAt(data []byte, pos int) (Record, int, error) {
	rest := data[pos:]
	if !bytes.HasPrefix(rest, Preamble) {
		return nil, 0, errNoPreamble
	}
	encStart := len(Preamble)
	idx := bytes.Index(rest[encStart:], Postamble)
	if idx < 0 {
		// Truncated record: everything to the end of the line is part of it.
		return nil, len(rest), ErrMalformed
	}
	encoded := rest[encStart : encStart+idx]
	consumed := encStart + idx + len(Postamble)
	if len(encoded) > base64.StdEncoding.EncodedLen(maxPayloadLen) {
		return nil, consumed, ErrMalformed
	}
	payload := make([]byte, base64.StdEncoding.DecodedLen(len(encoded)))
	n, err := base64.StdEncoding.Decode(payload, encoded)
	if err != nil {
		return nil, consumed, ErrMalformed
	}
	payload = payload[:n]

	r := newByteReader(payload)
	kind, err := r.Uint8()
	if err != nil {
		return nil, consumed, ErrMalformed
	}
	bodyLen, err := r.Uint16()
	if err != nil {
		return nil, consumed, ErrMalformed
	}
	body, err := r.read(int(bodyLen))
	if err != nil || r.remaining() != 0 {
		return nil, consumed, ErrMalformed
	}
	fn, ok := lookup(kind)
	if !ok {
		return nil, consumed, ErrUnknownKind
	}
	rec, err := fn(body)
	if err != nil {
		return nil, consumed, fmt.Errorf("%w: decode kind 0x%02x: %v", ErrMalformed, kind, err)
	}
	return rec, consumed, nil
}

// Encode frames a record body as a complete annotation byte sequence ready
// for embedding in a log line.
func Encode(kind byte, body []byte) ([]byte, error) {
	if len(body) > maxPayloadLen-payloadHeaderLen {
		return nil, fmt.Errorf("annotation body too large: %d", len(body))
	}
	payload := make([]byte, 0, payloadHeaderLen+len(body))
	payload = append(payload, kind)
	var lengthBuf [2]byte
	binary.BigEndian.PutUint16(lengthBuf[:], uint16(len(body)))
	payload = append(payload, lengthBuf[:]...)
	payload = append(payload, body...)

	encoded := base64.StdEncoding.EncodeToString(payload)
	out := make([]byte, 0, len(Preamble)+len(encoded)+len(Postamble))
	out = append(out, Preamble...)
	out = append(out, encoded...)
	out = append(out, Postamble...)
	return out, nil
}
