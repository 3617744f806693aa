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

package annotation

import (
	"bytes"
	"encoding/base64"
	"errors"
	"testing"
)

func TestDecodeAtRoundTrip(t *testing.T) {
	encoded := EncodeTimestamp(TimestampRecord{MillisSinceEpoch: 1000, ElapsedMillis: 250})
	line := append([]byte("before "), encoded...)
	line = append(line, []byte(" after")...)

	pos := len("before ")
	rec, consumed, err := DecodeAt(line, pos)
	if err != nil {
		t.Fatalf("DecodeAt: %v", err)
	}
	if consumed != len(encoded) {
		t.Fatalf("consumed %d want %d", consumed, len(encoded))
	}
	ts, ok := rec.(TimestampRecord)
	if !ok {
		t.Fatalf("record type %T", rec)
	}
	if ts.MillisSinceEpoch != 1000 || ts.ElapsedMillis != 250 {
		t.Fatalf("unexpected record %+v", ts)
	}
}

func TestDecodeAtNoPreamble(t *testing.T) {
	line := []byte{0x1b, '[', '0', 'm', 'x'}
	_, consumed, err := DecodeAt(line, 0)
	if !errors.Is(err, errNoPreamble) {
		t.Fatalf("expected errNoPreamble got %v", err)
	}
	if consumed != 0 {
		t.Fatalf("consumed %d want 0", consumed)
	}
}

func TestDecodeAtUnknownKind(t *testing.T) {
	encoded, err := Encode(0x7f, []byte{1, 2, 3})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	_, consumed, err := DecodeAt(encoded, 0)
	if !errors.Is(err, ErrUnknownKind) {
		t.Fatalf("expected ErrUnknownKind got %v", err)
	}
	if consumed != len(encoded) {
		t.Fatalf("consumed %d want %d", consumed, len(encoded))
	}
}

func TestDecodeAtBadBase64(t *testing.T) {
	line := append(append([]byte{}, Preamble...), []byte("!!not-base64!!")...)
	line = append(line, Postamble...)
	_, consumed, err := DecodeAt(line, 0)
	if !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed got %v", err)
	}
	if consumed != len(line) {
		t.Fatalf("consumed %d want %d", consumed, len(line))
	}
}

func TestDecodeAtTruncated(t *testing.T) {
	encoded := EncodeTimestamp(TimestampRecord{MillisSinceEpoch: 1})
	truncated := encoded[:len(encoded)-len(Postamble)]
	_, consumed, err := DecodeAt(truncated, 0)
	if !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed got %v", err)
	}
	if consumed != len(truncated) {
		t.Fatalf("consumed %d want %d (to end of data)", consumed, len(truncated))
	}
}

func TestDecodeAtBodyLengthMismatch(t *testing.T) {
	// Declared body length exceeds the actual payload.
	line := frame(t, []byte{KindTimestamp, 0xff, 0xff})
	_, _, err := DecodeAt(line, 0)
	if !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed got %v", err)
	}
}

func TestRegisterReplacesDecoder(t *testing.T) {
	const kind = 0x42
	Register(kind, func(body []byte) (Record, error) {
		return fakeRecord{kind: kind, body: append([]byte(nil), body...)}, nil
	})
	defer unregister(kind)

	encoded, err := Encode(kind, []byte("payload"))
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	rec, _, err := DecodeAt(encoded, 0)
	if err != nil {
		t.Fatalf("DecodeAt: %v", err)
	}
	fake, ok := rec.(fakeRecord)
	if !ok || string(fake.body) != "payload" {
		t.Fatalf("unexpected record %#v", rec)
	}
}

func TestStripPlainText(t *testing.T) {
	line := []byte("hello")
	if got := Strip(line); !bytes.Equal(got, line) {
		t.Fatalf("Strip(%q) = %q", line, got)
	}
}

func TestStripUnknownKindBetweenText(t *testing.T) {
	encoded, err := Encode(0x7e, []byte{9})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	line := append([]byte("A"), encoded...)
	line = append(line, 'B')
	if got := Strip(line); string(got) != "AB" {
		t.Fatalf("Strip = %q want AB", got)
	}
}

func TestStripMultipleRecords(t *testing.T) {
	ts := EncodeTimestamp(TimestampRecord{MillisSinceEpoch: 5})
	unknown, err := Encode(0x7d, nil)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	line := append(append([]byte{}, ts...), []byte("build ")...)
	line = append(line, unknown...)
	line = append(line, []byte("started")...)
	if got := Strip(line); string(got) != "build started" {
		t.Fatalf("Strip = %q", got)
	}
}

func TestStripTruncatedTrailingRecord(t *testing.T) {
	encoded := EncodeTimestamp(TimestampRecord{MillisSinceEpoch: 7})
	line := append([]byte("partial"), encoded[:len(encoded)-2]...)
	if got := Strip(line); string(got) != "partial" {
		t.Fatalf("Strip = %q want partial", got)
	}
}

func TestStripFalsePreambleFirstByte(t *testing.T) {
	// ESC followed by ordinary text is not an annotation and stays visible.
	line := []byte{0x1b, '[', '3', '1', 'm', 'r', 'e', 'd'}
	if got := Strip(line); !bytes.Equal(got, line) {
		t.Fatalf("Strip = %q want %q", got, line)
	}
}

type fakeRecord struct {
	kind byte
	body []byte
}

func (f fakeRecord) Kind() byte { return f.kind }

func frame(t *testing.T, payload []byte) []byte {
	t.Helper()
	out := append([]byte{}, Preamble...)
	out = append(out, base64.StdEncoding.EncodeToString(payload)...)
	return append(out, Postamble...)
}

func unregister(kind byte) {
	registryMu.Lock()
	delete(registry, kind)
	registryMu.Unlock()
}
