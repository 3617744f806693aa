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
	"fmt"

	"github.com/novatechflow/buildlog/pkg/annotation"
)

// Line is one decoded log line: the visible text with every annotation byte
// sequence removed, and the timestamp resolved from the line's first
// timestamp annotation, if any.
type Line struct {
	Text      string
	Timestamp *annotation.Timestamp
}

// Equal reports structural equality of both fields.
func (l Line) Equal(other Line) bool {
	if l.Text != other.Text {
		return false
	}
	if (l.Timestamp == nil) != (other.Timestamp == nil) {
		return false
	}
	return l.Timestamp == nil || *l.Timestamp == *other.Timestamp
}

func (l Line) String() string {
	if l.Timestamp == nil {
		return l.Text
	}
	return fmt.Sprintf("[%s] %s", l.Timestamp, l.Text)
}
