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

// Strip returns line with every annotation byte sequence removed, whether the
// record decoded, carried an unknown kind, or was corrupt. A byte that merely
// matches the preamble's first byte without starting a full preamble stays
// part of the visible text.
func Strip(line []byte) []byte {
	out := make([]byte, 0, len(line))
	for pos := 0; pos < len(line); {
		if line[pos] != Preamble[0] {
			out = append(out, line[pos])
			pos++
			continue
		}
		_, consumed, _ := DecodeAt(line, pos)
		if consumed == 0 {
			out = append(out, line[pos])
			pos++
			continue
		}
		pos += consumed
	}
	return out
}
