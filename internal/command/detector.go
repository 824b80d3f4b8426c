// Package command frames raw keystroke bytes into discrete command lines.
//
// Keystrokes carry no semantic value until the user commits a line with
// Enter, and line editing (backspace) must be applied so a corrected
// command is recorded as typed, not as typo-plus-correction noise.
package command

import (
	"strings"
	"unicode/utf8"
)

// backspace and del are the two control bytes honored for line editing.
const (
	backspace = 0x08
	del       = 0x7f
)

// Detector accumulates keystrokes for one session and reports completed
// command lines. It is not safe for concurrent use; callers serialize
// access per session.
type Detector struct {
	buf     strings.Builder
	pending bool
}

// Feed consumes one keystroke chunk. When the chunk contains a carriage
// return or newline, the accumulated line up to the first terminator is
// returned with complete=true (empty lines report complete=false). Text
// after the first terminator seeds the next line; further terminators in
// the same chunk are discarded.
func (d *Detector) Feed(data []byte) (line string, complete bool) {
	s := string(data)

	if i := strings.IndexAny(s, "\r\n"); i >= 0 {
		d.buf.WriteString(s[:i])
		line = strings.TrimSpace(d.buf.String())
		d.buf.Reset()

		rest := s[i+1:]
		if j := strings.IndexAny(rest, "\r\n"); j >= 0 {
			rest = rest[:j]
		}
		d.buf.WriteString(rest)
		d.pending = rest != ""

		if line == "" {
			return "", false
		}
		return line, true
	}

	if len(data) == 1 && (data[0] == backspace || data[0] == del) {
		cur := d.buf.String()
		if cur != "" {
			_, size := utf8.DecodeLastRuneInString(cur)
			d.buf.Reset()
			d.buf.WriteString(cur[:len(cur)-size])
		}
		return "", false
	}

	d.buf.WriteString(s)
	d.pending = true
	return "", false
}

// Flush drains the detector at session teardown. If uncommitted keystrokes
// remain, it returns the trimmed buffer marked as incomplete.
func (d *Detector) Flush() (line string, ok bool) {
	if !d.pending {
		return "", false
	}
	trimmed := strings.TrimSpace(d.buf.String())
	d.buf.Reset()
	d.pending = false
	if trimmed == "" {
		return "", false
	}
	return trimmed + " (incomplete)", true
}

// Pending reports whether uncommitted keystrokes are buffered.
func (d *Detector) Pending() bool { return d.pending }
