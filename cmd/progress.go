package cmd

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"media-catalog/internal/catalog"
)

// progressPrinter renders change events. On a terminal it keeps a single
// status line updated in place; otherwise it prints one line per change.
type progressPrinter struct {
	out         io.Writer
	interactive bool
	width       int
	events      int
	lastLen     int
}

func newProgressPrinter(f *os.File) *progressPrinter {
	p := &progressPrinter{out: f}
	fd := int(f.Fd())
	if term.IsTerminal(fd) {
		p.interactive = true
		if w, _, err := term.GetSize(fd); err == nil {
			p.width = w
		}
	}
	return p
}

// handle is a catalog.Callback.
func (p *progressPrinter) handle(e catalog.ChangeEvent) {
	p.events++
	line := describeEvent(e)
	if line == "" {
		return
	}

	if !p.interactive || e.Err != nil {
		p.clear()
		fmt.Fprintln(p.out, line)
		return
	}

	line = fmt.Sprintf("[%d] %s", p.events, line)
	if p.width > 0 && len(line) > p.width-1 {
		line = line[:p.width-1]
	}
	pad := max(p.lastLen-len(line), 0)
	fmt.Fprintf(p.out, "\r%s%*s", line, pad, "")
	p.lastLen = len(line)
}

// clear removes the in-place status line.
func (p *progressPrinter) clear() {
	if p.interactive && p.lastLen > 0 {
		fmt.Fprintf(p.out, "\r%*s\r", p.lastLen, "")
		p.lastLen = 0
	}
}

// describeEvent returns a one-line description, or "" for terminators.
func describeEvent(e catalog.ChangeEvent) string {
	switch {
	case e.Err != nil:
		return "error: " + e.Err.Error()
	case e.Asset != nil && e.Folder != nil:
		return fmt.Sprintf("%-16s %s", e.Reason, fullName(e.Folder, e.Asset))
	case e.Folder != nil:
		return fmt.Sprintf("%-16s %s", e.Reason, e.Folder.Path)
	case e.Message != "":
		return e.Message
	default:
		return ""
	}
}

func fullName(f *catalog.Folder, a *catalog.Asset) string {
	return f.Path + string(os.PathSeparator) + a.FileName
}
