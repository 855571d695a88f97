package hlog

import (
	"io"

	"github.com/go-logfmt/logfmt"
)

// logfmtHandler renders records as logfmt key=value lines, the format the
// teacher's log stack emits for non-interactive / aggregated output.
type logfmtHandler struct {
	out *syncWriter
}

// NewLogfmtHandler builds a Handler emitting one logfmt line per record.
func NewLogfmtHandler(w io.Writer) Handler {
	return &logfmtHandler{out: &syncWriter{w: w}}
}

func (h *logfmtHandler) Log(r *Record) error {
	h.out.mu.Lock()
	defer h.out.mu.Unlock()
	enc := logfmt.NewEncoder(h.out.w)
	if err := enc.EncodeKeyvals("t", r.Time.Format("2006-01-02T15:04:05-0700"), "lvl", r.Lvl.String(), "msg", r.Msg); err != nil {
		return err
	}
	if err := enc.EncodeKeyvals(r.Ctx...); err != nil {
		return err
	}
	return enc.EndRecord()
}
