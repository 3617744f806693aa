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
	"encoding/binary"
	"fmt"
	"time"
)

const timestampBodyLen = 16

// Timestamp is the resolved time recorded for one log line.
type Timestamp struct {
	MillisSinceEpoch int64
	ElapsedMillis    int64
}

// Time returns the wall-clock moment of the timestamp.
func (t Timestamp) Time() time.Time {
	return time.UnixMilli(t.MillisSinceEpoch)
}

func (t Timestamp) String() string {
	return fmt.Sprintf("%s (+%dms)", t.Time().UTC().Format(time.RFC3339Nano), t.ElapsedMillis)
}

// TimestampRecord is the payload of a timestamp-kind annotation. ElapsedMillis
// is negative when the producer recorded only the wall-clock time.
type TimestampRecord struct {
	MillisSinceEpoch int64
	ElapsedMillis    int64
}

// Kind identifies the record as a timestamp annotation.
func (TimestampRecord) Kind() byte { return KindTimestamp }

// Resolve produces the concrete timestamp for the record, deriving the
// elapsed offset from the build start time when the record did not carry one.
func (rec TimestampRecord) Resolve(buildStart time.Time) Timestamp {
	elapsed := rec.ElapsedMillis
	if elapsed < 0 {
		elapsed = rec.MillisSinceEpoch - buildStart.UnixMilli()
	}
	return Timestamp{MillisSinceEpoch: rec.MillisSinceEpoch, ElapsedMillis: elapsed}
}

func decodeTimestamp(body []byte) (Record, error) {
	if len(body) != timestampBodyLen {
		return nil, fmt.Errorf("timestamp body length %d", len(body))
	}
	r := newByteReader(body)
	epoch, err := r.Int64()
	if err != nil {
		return nil, err
	}
	elapsed, err := r.Int64()
	if err != nil {
		return nil, err
	}
	return TimestampRecord{MillisSinceEpoch: epoch, ElapsedMillis: elapsed}, nil
}

// EncodeTimestamp frames a timestamp record as a complete annotation.
func EncodeTimestamp(rec TimestampRecord) []byte {
	body := make([]byte, timestampBodyLen)
	binary.BigEndian.PutUint64(body[0:8], uint64(rec.MillisSinceEpoch))
	binary.BigEndian.PutUint64(body[8:16], uint64(rec.ElapsedMillis))
	out, err := Encode(KindTimestamp, body)
	if err != nil {
		// Body length is fixed and under the cap.
		panic(err)
	}
	return out
}

func init() {
	Register(KindTimestamp, decodeTimestamp)
}
