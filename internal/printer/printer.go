// Package printer is the line-oriented output engine every backend writes
// through. It knows nothing about target syntax: it tracks one indentation
// counter and one pending line, and flushes completed lines to a sink.
//
// A Printer belongs to exactly one emission session. Backends that emit
// several files (or several targets in one process) create one Printer per
// file; nothing in this package is shared across instances.
package printer

import (
	"bufio"
	"io"
	"strings"
)

// DefaultIndentWidth is the number of spaces per indentation level.
const DefaultIndentWidth = 4

// Options configures a Printer.
type Options struct {
	// IndentWidth is the number of spaces per level. Zero means DefaultIndentWidth.
	IndentWidth int

	// CommentPrefix starts every line written by Comment (e.g. "# ").
	CommentPrefix string
}

// Printer writes indented lines to a sink.
//
// The indentation counter is not guarded: callers balance every
// IncreaseIndent with a DecreaseIndent. A negative depth renders as no
// indentation.
type Printer struct {
	w       *bufio.Writer
	opts    Options
	indent  int
	line    strings.Builder
	inLine  bool
	lines   int
	written int64
	err     error
}

// New creates a Printer writing to w.
func New(w io.Writer, opts Options) *Printer {
	if opts.IndentWidth <= 0 {
		opts.IndentWidth = DefaultIndentWidth
	}
	return &Printer{
		w:    bufio.NewWriter(w),
		opts: opts,
	}
}

// Comment writes one full-line comment at the current indentation.
func (p *Printer) Comment(text string) {
	p.Writeln(p.opts.CommentPrefix + text)
}

// StartLine begins a new line at the current indentation. A line that was
// started but never finished is flushed first so no text is lost.
func (p *Printer) StartLine() {
	if p.inLine {
		p.FinishLine()
	}
	p.inLine = true
	if p.indent > 0 {
		p.line.WriteString(strings.Repeat(" ", p.indent*p.opts.IndentWidth))
	}
}

// Write appends raw text to the current line. Embedded newlines are kept
// verbatim; the indentation counter is not consulted.
func (p *Printer) Write(text string) {
	p.inLine = true
	p.line.WriteString(text)
}

// FinishLine terminates the current line and flushes it to the sink.
func (p *Printer) FinishLine() {
	p.line.WriteByte('\n')
	p.flushLine()
}

// Writeln writes text as one complete line at the current indentation.
func (p *Printer) Writeln(text string) {
	p.StartLine()
	p.Write(text)
	p.FinishLine()
}

// IncreaseIndent raises the indentation by one level.
func (p *Printer) IncreaseIndent() {
	p.indent++
}

// DecreaseIndent lowers the indentation by one level.
func (p *Printer) DecreaseIndent() {
	p.indent--
}

// Indented runs fn one level deeper and restores the previous level.
func (p *Printer) Indented(fn func()) {
	p.IncreaseIndent()
	fn()
	p.DecreaseIndent()
}

// EndDeclaration writes the blank line separating top-level declarations.
func (p *Printer) EndDeclaration() {
	if p.inLine {
		p.FinishLine()
	}
	p.line.WriteByte('\n')
	p.flushLine()
}

// Depth returns the current indentation level.
func (p *Printer) Depth() int {
	return p.indent
}

// Lines returns the number of newline-terminated lines flushed so far.
func (p *Printer) Lines() int {
	return p.lines
}

// Written returns the number of bytes handed to the sink so far.
func (p *Printer) Written() int64 {
	return p.written
}

// Flush writes any pending partial line and flushes buffered output.
// It returns the first error the sink reported, if any.
func (p *Printer) Flush() error {
	if p.inLine {
		p.flushLine()
	}
	if p.err == nil {
		p.err = p.w.Flush()
	}
	return p.err
}

// Err returns the first sink error seen, if any. Once a sink error occurs
// all later output is discarded.
func (p *Printer) Err() error {
	return p.err
}

func (p *Printer) flushLine() {
	s := p.line.String()
	p.line.Reset()
	p.inLine = false
	p.lines += strings.Count(s, "\n")
	if p.err != nil {
		return
	}
	n, err := p.w.WriteString(s)
	p.written += int64(n)
	if err != nil {
		p.err = err
	}
}
