package cargoweb

import (
	"bytes"
	"iter"
)

// LineFramer turns arbitrary output chunks into complete lines.
//
// A trailing partial line is never returned by Feed; it stays buffered and is
// prefixed onto the next chunk. Framing is terminator-based only: line content
// is not validated and lines have no length limit. A "\r\n" terminator is not
// special-cased; the "\r" is left in the line.
//
// LineFramer is not safe for concurrent use. BuildSession gives each output
// stream its own instance.
type LineFramer struct {
	buf []byte
}

// Feed appends chunk and returns the lines it completes.
//
// The sequence is lazy: each line is removed from the buffer as it is
// yielded. Lines left unconsumed when iteration stops early remain buffered
// and are yielded by the next Feed.
func (f *LineFramer) Feed(chunk []byte) iter.Seq[string] {
	f.buf = append(f.buf, chunk...)
	return func(yield func(string) bool) {
		for {
			i := bytes.IndexByte(f.buf, '\n')
			if i < 0 {
				return
			}
			line := string(f.buf[:i])
			f.buf = f.buf[i+1:]
			if len(f.buf) == 0 {
				f.buf = nil
			}
			if !yield(line) {
				return
			}
		}
	}
}

// Flush returns the buffered partial line, if any, and resets the framer.
// It is meant for end of stream.
func (f *LineFramer) Flush() (string, bool) {
	if len(f.buf) == 0 {
		return "", false
	}
	rest := string(f.buf)
	f.buf = nil
	return rest, true
}

// Pending reports how many bytes are buffered.
func (f *LineFramer) Pending() int {
	return len(f.buf)
}
