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

package storage

import (
	"bytes"
	"context"
	"io"
	"sync"
	"time"

	"golang.org/x/text/encoding"
)

// MemoryRecord is an in-memory LogRecord for development and testing.
type MemoryRecord struct {
	mu      sync.Mutex
	data    []byte
	present bool
	charset encoding.Encoding
	start   time.Time
}

// NewMemoryRecord constructs an empty record with no data present.
func NewMemoryRecord(charset encoding.Encoding, start time.Time) *MemoryRecord {
	return &MemoryRecord{charset: charset, start: start}
}

// SetData installs the log content and marks the record present.
func (r *MemoryRecord) SetData(data []byte) {
	r.mu.Lock()
	r.data = append([]byte(nil), data...)
	r.present = true
	r.mu.Unlock()
}

// Remove drops the log content, as if the underlying storage disappeared.
func (r *MemoryRecord) Remove() {
	r.mu.Lock()
	r.data = nil
	r.present = false
	r.mu.Unlock()
}

func (r *MemoryRecord) Exists(ctx context.Context) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.present, nil
}

func (r *MemoryRecord) Open(ctx context.Context) (io.ReadCloser, error) {
	r.mu.Lock()
	data := append([]byte(nil), r.data...)
	r.mu.Unlock()
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (r *MemoryRecord) Charset() encoding.Encoding { return r.charset }

func (r *MemoryRecord) StartTime() time.Time { return r.start }
