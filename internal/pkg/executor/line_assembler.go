// Copyright 2025 Arcentra Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package executor

import (
	"bytes"
	"strings"
	"unicode/utf8"
)

const (
	DefaultChunkSize = 4096
	DefaultThreshold = 8192
)

// Segment is a unit of text ready for emission.
type Segment struct {
	Text    string
	Partial bool
}

// LineAssembler turns arbitrary byte chunks into lines.
// State is the bytes seen since the last newline; Write moves complete lines
// out of that buffer, cuts runs longer than the threshold into partial
// segments, and Flush drains what is left at EOF. Cut points depend only on
// the byte stream, so the output is the same however the input was chunked.
type LineAssembler struct {
	threshold int
	buf       []byte
}

func NewLineAssembler(threshold int) *LineAssembler {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &LineAssembler{threshold: threshold}
}

// Write consumes chunk and returns the segments it completed.
func (a *LineAssembler) Write(chunk []byte) []Segment {
	if len(chunk) == 0 {
		return nil
	}
	a.buf = append(a.buf, chunk...)

	var out []Segment
	start := 0
	for {
		rest := a.buf[start:]
		i := bytes.IndexByte(rest, '\n')
		if i >= 0 && i <= a.threshold {
			line := bytes.TrimSuffix(rest[:i], []byte{'\r'})
			out = append(out, Segment{Text: decode(line)})
			start += i + 1
			continue
		}
		if len(rest) > a.threshold {
			cut := cutPoint(rest, a.threshold)
			out = append(out, Segment{Text: decode(rest[:cut]), Partial: true})
			start += cut
			continue
		}
		break
	}
	a.compact(start)
	return out
}

// Flush returns the buffered remainder, if any, and resets the assembler.
func (a *LineAssembler) Flush() (Segment, bool) {
	if len(a.buf) == 0 {
		return Segment{}, false
	}
	seg := Segment{Text: decode(bytes.TrimSuffix(a.buf, []byte{'\r'})), Partial: true}
	a.buf = a.buf[:0]
	return seg, true
}

// Buffered reports the number of bytes held back.
func (a *LineAssembler) Buffered() int {
	return len(a.buf)
}

func (a *LineAssembler) compact(n int) {
	if n == 0 {
		return
	}
	rest := copy(a.buf, a.buf[n:])
	a.buf = a.buf[:rest]
}

// cutPoint returns the largest offset <= limit that does not split a UTF-8
// sequence. The sequence length comes from the lead byte alone, so the answer
// does not depend on bytes that may not have arrived yet.
func cutPoint(b []byte, limit int) int {
	for i := limit - 1; i >= 0 && i > limit-utf8.UTFMax; i-- {
		if !utf8.RuneStart(b[i]) {
			continue
		}
		if i+leadLen(b[i]) > limit && i > 0 {
			return i
		}
		return limit
	}
	return limit
}

func leadLen(c byte) int {
	switch {
	case c >= 0xF0:
		return 4
	case c >= 0xE0:
		return 3
	case c >= 0xC0:
		return 2
	}
	return 1
}

func decode(b []byte) string {
	return strings.ToValidUTF8(string(b), string(utf8.RuneError))
}
