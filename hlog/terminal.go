package hlog

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

var levelColor = map[Level]*color.Color{
	LvlTrace: color.New(color.FgWhite),
	LvlDebug: color.New(color.FgCyan),
	LvlInfo:  color.New(color.FgGreen),
	LvlWarn:  color.New(color.FgYellow),
	LvlError: color.New(color.FgRed, color.Bold),
}

// terminalHandler renders records in the short human format seen on an
// interactive console, colorizing the level tag when the destination is a
// real TTY.
type terminalHandler struct {
	out      *syncWriter
	colorize bool
}

// NewTerminalHandler builds a Handler for an interactive console. Color is
// enabled only when w is a genuine terminal, detected via go-isatty; on
// Windows the stream is wrapped with go-colorable so ANSI codes still render.
func NewTerminalHandler(w io.Writer) Handler {
	colorize := false
	if f, ok := w.(*os.File); ok {
		colorize = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
		if colorize {
			w = colorable.NewColorable(f)
		}
	}
	return &terminalHandler{out: &syncWriter{w: w}, colorize: colorize}
}

func (h *terminalHandler) Log(r *Record) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%s[%s] %-40s", r.Time.Format("2006-01-02T15:04:05-0700"), h.levelTag(r.Lvl), r.Msg)
	for i := 0; i+1 < len(r.Ctx); i += 2 {
		fmt.Fprintf(&b, " %v=%v", r.Ctx[i], r.Ctx[i+1])
	}
	b.WriteByte('\n')
	_, err := io.WriteString(h.out, b.String())
	return err
}

func (h *terminalHandler) levelTag(lvl Level) string {
	tag := lvl.String()
	if !h.colorize {
		return tag
	}
	if c, ok := levelColor[lvl]; ok {
		return c.Sprint(tag)
	}
	return tag
}
