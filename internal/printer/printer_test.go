package printer

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPrinter(t *testing.T) (*Printer, *bytes.Buffer) {
	t.Helper()
	buf := &bytes.Buffer{}
	return New(buf, Options{CommentPrefix: "# "}), buf
}

func TestWritelnAtIndent(t *testing.T) {
	p, buf := newTestPrinter(t)

	p.Writeln("a")
	p.IncreaseIndent()
	p.Writeln("b")
	p.IncreaseIndent()
	p.Writeln("c")
	p.DecreaseIndent()
	p.DecreaseIndent()
	p.Writeln("d")

	require.NoError(t, p.Flush())
	assert.Equal(t, "a\n    b\n        c\nd\n", buf.String())
	assert.Equal(t, 0, p.Depth())
	assert.Equal(t, 4, p.Lines())
}

func TestWriteAccumulatesOneLine(t *testing.T) {
	p, buf := newTestPrinter(t)

	p.IncreaseIndent()
	p.StartLine()
	p.Write("x")
	p.Write(" = ")
	p.Write("1")
	p.FinishLine()
	p.DecreaseIndent()

	require.NoError(t, p.Flush())
	assert.Equal(t, "    x = 1\n", buf.String())
}

func TestCommentUsesPrefix(t *testing.T) {
	p, buf := newTestPrinter(t)

	p.Comment("hello")
	p.Indented(func() {
		p.Comment("nested")
	})

	require.NoError(t, p.Flush())
	assert.Equal(t, "# hello\n    # nested\n", buf.String())
	assert.Equal(t, 0, p.Depth())
}

func TestEndDeclarationWritesBlankLine(t *testing.T) {
	p, buf := newTestPrinter(t)

	p.IncreaseIndent()
	p.Writeln("x")
	p.EndDeclaration()
	p.DecreaseIndent()
	p.Writeln("y")

	require.NoError(t, p.Flush())
	// The separator carries no indentation.
	assert.Equal(t, "    x\n\ny\n", buf.String())
}

func TestEndDeclarationFinishesOpenLine(t *testing.T) {
	p, buf := newTestPrinter(t)

	p.StartLine()
	p.Write("x = 1")
	p.EndDeclaration()

	require.NoError(t, p.Flush())
	assert.Equal(t, "x = 1\n\n", buf.String())
}

func TestStartLineFlushesUnfinishedLine(t *testing.T) {
	p, buf := newTestPrinter(t)

	p.StartLine()
	p.Write("first")
	p.StartLine()
	p.Write("second")
	p.FinishLine()

	require.NoError(t, p.Flush())
	assert.Equal(t, "first\nsecond\n", buf.String())
}

func TestFlushWritesPartialLine(t *testing.T) {
	p, buf := newTestPrinter(t)

	p.Write("tail")

	require.NoError(t, p.Flush())
	assert.Equal(t, "tail", buf.String())
}

func TestIndentWidthOption(t *testing.T) {
	buf := &bytes.Buffer{}
	p := New(buf, Options{IndentWidth: 2})

	p.Indented(func() {
		p.Writeln("x")
	})

	require.NoError(t, p.Flush())
	assert.Equal(t, "  x\n", buf.String())
}

func TestNegativeDepthRendersUnindented(t *testing.T) {
	p, buf := newTestPrinter(t)

	p.DecreaseIndent()
	p.Writeln("x")
	assert.Equal(t, -1, p.Depth())

	require.NoError(t, p.Flush())
	assert.Equal(t, "x\n", buf.String())
}

type failingWriter struct {
	err error
}

func (w failingWriter) Write(b []byte) (int, error) {
	return 0, w.err
}

func TestSinkErrorIsSticky(t *testing.T) {
	sinkErr := errors.New("disk full")
	p := New(failingWriter{err: sinkErr}, Options{})

	p.Writeln("x")
	err := p.Flush()
	require.Error(t, err)
	assert.True(t, errors.Is(err, sinkErr))

	p.Writeln("y")
	assert.Equal(t, err, p.Flush())
	assert.Equal(t, err, p.Err())
}

func TestWrittenCountsBytes(t *testing.T) {
	p, _ := newTestPrinter(t)

	p.Writeln("abc")
	p.EndDeclaration()

	assert.Equal(t, int64(5), p.Written())
}
