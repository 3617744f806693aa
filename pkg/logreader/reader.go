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

// Package logreader reads a build log line by line, stripping the inline
// binary annotations a logging pipeline embeds in the byte stream and
// surfacing the timestamp a line's annotation carries.
package logreader

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"golang.org/x/text/encoding"

	"github.com/novatechflow/buildlog/pkg/annotation"
	"github.com/novatechflow/buildlog/pkg/storage"
)

// Annotation scan outcomes reported through the hook.
const (
	OutcomeTimestamp = "timestamp"
	OutcomeRecord    = "record"
	OutcomeUnknown   = "unknown"
	OutcomeMalformed = "malformed"
)

type sessionState int

const (
	stateUnstarted sessionState = iota
	stateStreaming
	stateExhausted
)

// Reader is a forward-only decoder session over one build log. It is not safe
// for concurrent use; one session belongs to one caller.
type Reader struct {
	record       storage.LogRecord
	onAnnotation func(outcome string)

	state  sessionState
	stream io.ReadCloser
	lines  *bufio.Reader
}

// New creates a decoder session for the given log record. onAnnotation, if
// non-nil, observes every annotation the scan pass encounters.
func New(record storage.LogRecord, onAnnotation func(outcome string)) *Reader {
	return &Reader{record: record, onAnnotation: onAnnotation}
}

// NextLine returns the next decoded line, or nil when no more lines can be
// read. Storage that does not exist is not an error: the existence check runs
// on every call, so a log that appears after the session was created is
// picked up on the next call. Once the stream is exhausted the session stays
// exhausted. Only stream I/O failures are returned; annotation decode
// problems are absorbed.
func (r *Reader) NextLine(ctx context.Context) (*Line, error) {
	if r.state == stateExhausted {
		return nil, nil
	}
	exists, err := r.record.Exists(ctx)
	if err != nil {
		return nil, err
	}
	if !exists {
		if r.state == stateStreaming {
			r.state = stateExhausted
		}
		return nil, nil
	}
	if r.lines == nil {
		stream, err := r.record.Open(ctx)
		if err != nil {
			return nil, fmt.Errorf("open log stream: %w", err)
		}
		r.stream = stream
		r.lines = newLineReader(stream, r.record)
	}
	lineBytes, err := readLine(r.lines)
	if err != nil {
		r.state = stateExhausted
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("read log line: %w", err)
	}
	r.state = stateStreaming

	raw, err := encodeLine(r.record, lineBytes)
	if err != nil {
		return nil, err
	}
	ts := r.scanTimestamp(raw)
	visible := annotation.Strip(raw)
	text, err := decodeLine(r.record, visible)
	if err != nil {
		return nil, err
	}
	return &Line{Text: text, Timestamp: ts}, nil
}

// LineCount reads the log from the start on a fresh stream and returns the
// number of line boundaries, without touching the session used by NextLine
// and without any annotation decoding. Returns 0 when the log does not exist.
func (r *Reader) LineCount(ctx context.Context) (int, error) {
	exists, err := r.record.Exists(ctx)
	if err != nil {
		return 0, err
	}
	if !exists {
		return 0, nil
	}
	stream, err := r.record.Open(ctx)
	if err != nil {
		return 0, fmt.Errorf("open log stream: %w", err)
	}
	defer func() {
		_ = stream.Close()
	}()

	lines := newLineReader(stream, r.record)
	count := 0
	for {
		if _, err := readLine(lines); err != nil {
			if err == io.EOF {
				return count, nil
			}
			return 0, fmt.Errorf("count log lines: %w", err)
		}
		count++
	}
}

// Close releases the session's stream if one was opened. Safe to call
// multiple times and before any line has been read; never fails.
func (r *Reader) Close() {
	if r.stream != nil {
		_ = r.stream.Close()
		r.stream = nil
	}
}

func newLineReader(stream io.Reader, record storage.LogRecord) *bufio.Reader {
	rd := stream
	if cs := record.Charset(); cs != nil {
		rd = cs.NewDecoder().Reader(stream)
	}
	return bufio.NewReaderSize(rd, 64*1024)
}

// readLine returns the next line without its terminator, accumulating across
// buffer refills so line length is unbounded. io.EOF signals no more lines; a
// final line without a trailing newline is still returned.
func readLine(r *bufio.Reader) ([]byte, error) {
	var line []byte
	for {
		chunk, err := r.ReadSlice('\n')
		line = append(line, chunk...)
		if err == nil {
			return trimLineEnding(line), nil
		}
		if err == bufio.ErrBufferFull {
			continue
		}
		if err == io.EOF {
			if len(line) == 0 {
				return nil, io.EOF
			}
			return trimLineEnding(line), nil
		}
		return nil, err
	}
}

func trimLineEnding(line []byte) []byte {
	if n := len(line); n > 0 && line[n-1] == '\n' {
		line = line[:n-1]
	}
	if n := len(line); n > 0 && line[n-1] == '\r' {
		line = line[:n-1]
	}
	return line
}

// encodeLine re-encodes a decoded line into the record's declared charset so
// annotation byte offsets match what the producer wrote. Runes the charset
// cannot represent (including replacements the decoder substituted for
// invalid input bytes) are encoded as the charset's replacement byte rather
// than failing the line.
func encodeLine(record storage.LogRecord, line []byte) ([]byte, error) {
	cs := record.Charset()
	if cs == nil {
		return line, nil
	}
	out, err := encoding.ReplaceUnsupported(cs.NewEncoder()).Bytes(line)
	if err != nil {
		return nil, fmt.Errorf("encode line: %w", err)
	}
	return out, nil
}

func decodeLine(record storage.LogRecord, line []byte) (string, error) {
	cs := record.Charset()
	if cs == nil {
		return string(line), nil
	}
	out, err := cs.NewDecoder().Bytes(line)
	if err != nil {
		return "", fmt.Errorf("decode line: %w", err)
	}
	return string(out), nil
}
