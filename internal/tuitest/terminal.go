package tuitest

import (
	"bytes"
	"io"
)

// terminalReplies answers the queries termenv sends on startup so the program
// does not wait for a real terminal.
var terminalReplies = []struct {
	query, reply string
}{
	{"\x1b[6n", "\x1b[1;1R"},
	{"\x1b]10;?\x07", "\x1b]10;rgb:cccc/cccc/cccc\x07"},
	{"\x1b]10;?\x1b\\", "\x1b]10;rgb:cccc/cccc/cccc\x1b\\"},
	{"\x1b]11;?\x07", "\x1b]11;rgb:0000/0000/0000\x07"},
	{"\x1b]11;?\x1b\\", "\x1b]11;rgb:0000/0000/0000\x1b\\"},
}

type terminalResponder struct {
	w    io.Writer
	tail []byte
}

func newTerminalResponder(w io.Writer) *terminalResponder {
	return &terminalResponder{w: w}
}

// Process scans chunk, plus a short tail of the previous one, for queries.
func (tr *terminalResponder) Process(chunk []byte) {
	tr.tail = append(tr.tail, chunk...)
	for matched := true; matched; {
		matched = false
		for _, r := range terminalReplies {
			idx := bytes.Index(tr.tail, []byte(r.query))
			if idx < 0 {
				continue
			}
			tr.tail = tr.tail[idx+len(r.query):]
			_, _ = tr.w.Write([]byte(r.reply))
			matched = true
		}
	}
	if len(tr.tail) > 64 {
		tr.tail = bytes.Clone(tr.tail[len(tr.tail)-64:])
	}
}
