package target

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/extract/internal/emit"
)

func TestLookup(t *testing.T) {
	tests := []struct {
		name    string
		want    string
		wantErr bool
	}{
		{"python", "python", false},
		{"py", "python", false},
		{" Python ", "python", false},
		{"trace", "trace", false},
		{"rust", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Lookup(tt.name)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrUnknownTarget)
				assert.Contains(t, err.Error(), "python, trace")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Name)
		})
	}
}

func TestNames(t *testing.T) {
	assert.Equal(t, []string{"python", "trace"}, Names())
}

func TestPythonTargetHonoursOptions(t *testing.T) {
	tgt, err := Lookup("py")
	require.NoError(t, err)
	assert.Equal(t, ".py", tgt.Extension)

	var buf bytes.Buffer
	e := tgt.New(&buf, Options{IndentWidth: 2, Imports: []string{"import ZBitOps"}})
	e.Prelude()
	e.BeginFunctionDecl("f", []emit.Param{{Name: "x"}}, "")
	e.BeginReturnExpr()
	e.Var("x")
	e.EndReturnExpr()
	e.EndFunctionDecl()
	require.NoError(t, e.Flush())

	out := buf.String()
	assert.Contains(t, out, "import ZBitOps\n")
	assert.Contains(t, out, "def f(x):\n  return x\n")
}

func TestTraceTargetRecords(t *testing.T) {
	tgt, err := Lookup("trace")
	require.NoError(t, err)

	var buf bytes.Buffer
	e := tgt.New(&buf, Options{})
	rec, ok := e.(*emit.Recorder)
	require.True(t, ok)

	e.Nop()
	require.NoError(t, e.Flush())
	assert.Equal(t, []string{"nop"}, rec.Ops())
	assert.Equal(t, "nop\n", buf.String())
}

func TestOptionsHash(t *testing.T) {
	hash := func(o Options) string {
		t.Helper()
		h, err := o.Hash()
		require.NoError(t, err)
		return h
	}

	base := hash(Options{})
	assert.Len(t, base, 64)
	assert.Equal(t, base, hash(Options{Imports: []string{}}))
	assert.NotEqual(t, base, hash(Options{IndentWidth: 2}))
	assert.NotEqual(t, base, hash(Options{Imports: []string{"import math"}}))
	assert.NotEqual(t,
		hash(Options{Imports: []string{"import a", "import b"}}),
		hash(Options{Imports: []string{"import b", "import a"}}),
		"import order is significant")
}
