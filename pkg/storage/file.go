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
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"

	"golang.org/x/text/encoding"
)

// FileRecord serves a build log from the local filesystem.
type FileRecord struct {
	path    string
	charset encoding.Encoding
	start   time.Time
}

// NewFileRecord constructs a record for the log file at path.
func NewFileRecord(path string, charset encoding.Encoding, start time.Time) *FileRecord {
	return &FileRecord{path: path, charset: charset, start: start}
}

func (r *FileRecord) Exists(ctx context.Context) (bool, error) {
	_, err := os.Stat(r.path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("stat %s: %w", r.path, err)
}

func (r *FileRecord) Open(ctx context.Context) (io.ReadCloser, error) {
	f, err := os.Open(r.path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", r.path, err)
	}
	return f, nil
}

func (r *FileRecord) Charset() encoding.Encoding { return r.charset }

func (r *FileRecord) StartTime() time.Time { return r.start }
