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

package logreader

import (
	"errors"

	"github.com/novatechflow/buildlog/pkg/annotation"
)

// scanTimestamp walks the line's bytes looking for annotation records. The
// first timestamp-kind record wins; unknown kinds and corrupt records are
// skipped past without failing the line. A byte matching only the preamble's
// first byte advances the scan by one byte.
func (r *Reader) scanTimestamp(line []byte) *annotation.Timestamp {
	var ts *annotation.Timestamp
	for pos := 0; pos < len(line); {
		if line[pos] != annotation.Preamble[0] {
			pos++
			continue
		}
		rec, consumed, err := annotation.DecodeAt(line, pos)
		if consumed == 0 {
			pos++
			continue
		}
		pos += consumed
		switch {
		case err == nil:
			if tsRec, ok := rec.(annotation.TimestampRecord); ok {
				r.report(OutcomeTimestamp)
				if ts == nil {
					resolved := tsRec.Resolve(r.record.StartTime())
					ts = &resolved
				}
			} else {
				r.report(OutcomeRecord)
			}
		case errors.Is(err, annotation.ErrUnknownKind):
			r.report(OutcomeUnknown)
		default:
			r.report(OutcomeMalformed)
		}
	}
	return ts
}

func (r *Reader) report(outcome string) {
	if r.onAnnotation != nil {
		r.onAnnotation(outcome)
	}
}
