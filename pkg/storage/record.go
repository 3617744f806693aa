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

// Package storage provides access to build log data behind a uniform record
// contract: local files, in-memory buffers for tests and tooling, and S3.
package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
)

// LogRecord exposes one build's log data to the reader.
type LogRecord interface {
	// Exists reports whether the log data is currently present. Absence is
	// not an error; transport failures are.
	Exists(ctx context.Context) (bool, error)
	// Open returns a fresh byte stream positioned at the start of the log.
	Open(ctx context.Context) (io.ReadCloser, error)
	// Charset returns the encoding the log bytes use. nil means UTF-8.
	Charset() encoding.Encoding
	// StartTime is the build start, used to resolve relative timestamps.
	StartTime() time.Time
}

// LookupCharset resolves an IANA/HTML charset name. An empty name selects
// UTF-8, reported as a nil encoding.
func LookupCharset(name string) (encoding.Encoding, error) {
	if name == "" || name == "utf-8" || name == "UTF-8" {
		return nil, nil
	}
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, fmt.Errorf("charset %q: %w", name, err)
	}
	return enc, nil
}
