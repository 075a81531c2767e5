package gitrepo

import (
	"regexp"
	"strings"
)

// ProgressFunc receives transfer progress: current and total are object or
// byte counts for the active stage (total is -1 when unknown) and message
// names the stage. Callbacks run on the transfer goroutine and must not
// block.
type ProgressFunc func(current, total int64, message string)

// throttleBytes suppresses callbacks that advance the raw transfer stream
// by less than this amount, bounding callback frequency on fast links.
const throttleBytes = 100 * 1024

// stageRe extracts "Receiving objects:  45% (123/270)"-shaped sideband
// lines into structured counts.
var stageRe = regexp.MustCompile(`^([A-Za-z -]+):\s+\d+%\s+\((\d+)/(\d+)\)`)

// progressWriter adapts git's sideband progress stream into ProgressFunc
// calls. Sideband output arrives as \r-separated line fragments; each
// complete line is parsed for stage counts where possible.
type progressWriter struct {
	cb      ProgressFunc
	buf     strings.Builder
	written int64
	lastAt  int64
}

func newProgressWriter(cb ProgressFunc) *progressWriter {
	return &progressWriter{cb: cb}
}

func (w *progressWriter) Write(p []byte) (int, error) {
	w.written += int64(len(p))

	for _, b := range p {
		if b == '\r' || b == '\n' {
			w.flushLine()
			continue
		}
		w.buf.WriteByte(b)
	}
	return len(p), nil
}

func (w *progressWriter) flushLine() {
	line := strings.TrimSpace(w.buf.String())
	w.buf.Reset()
	if line == "" || w.cb == nil {
		return
	}

	if m := stageRe.FindStringSubmatch(line); m != nil {
		current := parseInt64(m[2])
		total := parseInt64(m[3])

		// Final "(n/n)" lines always go through so stages end at 100%.
		if current < total && w.written-w.lastAt < throttleBytes {
			return
		}
		w.lastAt = w.written
		w.cb(current, total, strings.TrimSpace(m[1]))
		return
	}

	if w.written-w.lastAt < throttleBytes {
		return
	}
	w.lastAt = w.written
	w.cb(w.written, -1, line)
}

func parseInt64(s string) int64 {
	var n int64
	for _, ch := range s {
		n = n*10 + int64(ch-'0')
	}
	return n
}
