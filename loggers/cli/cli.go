package cli

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"emperror.dev/errors"
	"github.com/apex/log"
	"github.com/apex/log/handlers/cli"
	color2 "github.com/fatih/color"
	"github.com/mattn/go-colorable"
)

var Default = New(os.Stderr, true)

var (
	bold    = color2.New(color2.Bold)
	boldred = color2.New(color2.Bold, color2.FgRed)
	faint   = color2.New(color2.Faint)
)

var Strings = [...]string{
	log.DebugLevel: "DEBUG",
	log.InfoLevel:  " INFO",
	log.WarnLevel:  " WARN",
	log.ErrorLevel: "ERROR",
	log.FatalLevel: "FATAL",
}

// Handler writes entries in a compact, human readable form. The "subsystem"
// field is printed ahead of the message instead of with the other fields.
type Handler struct {
	mu      sync.Mutex
	Writer  io.Writer
	Padding int
	// Now returns the timestamp printed with every entry.
	Now func() time.Time
}

func New(w io.Writer, useColors bool) *Handler {
	h := &Handler{Writer: colorable.NewNonColorable(w), Padding: 2, Now: time.Now}
	if f, ok := w.(*os.File); ok && useColors {
		h.Writer = colorable.NewColorable(f)
	}
	return h
}

// HandleLog implements log.Handler.
func (h *Handler) HandleLog(e *log.Entry) error {
	color := cli.Colors[e.Level]
	level := Strings[e.Level]
	names := e.Fields.Names()

	h.mu.Lock()
	defer h.mu.Unlock()

	msg := e.Message
	if s, ok := e.Fields.Get("subsystem").(string); ok && s != "" {
		msg = faint.Sprintf("(%s) ", s) + msg
	}
	color.Fprintf(h.Writer, "%s: [%s] %-25s", bold.Sprintf("%*s", h.Padding+1, level), h.Now().Format(time.StampMilli), msg)

	for _, name := range names {
		if name == "source" || name == "subsystem" {
			continue
		}
		fmt.Fprintf(h.Writer, " %s=%v", color.Sprint(name), e.Fields.Get(name))
	}

	fmt.Fprintln(h.Writer)

	// Stack traces are only useful when debugging, path rejections and
	// missing files are reported at warn and below on every command.
	if e.Level < log.ErrorLevel {
		return nil
	}
	if err, ok := e.Fields.Get("error").(error); ok {
		// Attach the stacktrace if it is missing at this point, but don't point
		// it specifically to this line since that is irrelevant.
		err = errors.WithStackDepthIf(err, 1)
		fmt.Fprintf(h.Writer, "\n%s\n%+v\n\n", boldred.Sprintf("Stacktrace:"), err)
	}

	return nil
}
