package log

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// RawLogger records generated sources verbatim, for inspecting emitter
// output without writing files.
type RawLogger interface {
	Log(path string, data []byte)
}

type rawLogger struct {
	w  io.Writer
	mu sync.Mutex
}

// NewRaw creates a RawLogger writing to w. A nil writer discards everything.
func NewRaw(w io.Writer) RawLogger {
	return &rawLogger{w: w}
}

// Log writes a header line naming path followed by data.
func (r *rawLogger) Log(path string, data []byte) {
	if r.w == nil || len(data) == 0 {
		return
	}
	header := fmt.Sprintf("==> %s %s (%d bytes)\n", time.Now().Format("2006/01/02 15:04:05"), path, len(data))

	r.mu.Lock()
	defer r.mu.Unlock()
	_, _ = io.WriteString(r.w, header)
	_, _ = r.w.Write(data)
	if data[len(data)-1] != '\n' {
		_, _ = io.WriteString(r.w, "\n")
	}
}
