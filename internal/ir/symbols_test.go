package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSymbolsCoverage(t *testing.T) {
	m := &Module{Name: "m", Decls: []Decl{
		&Enum{Name: "Color", Values: []string{"Red", "Green", "Blue"}},
		&Variant{Name: "Opt", Branches: []Branch{{Name: "None"}, {Name: "Some", Fields: []string{"t"}}}},
	}}
	syms := NewSymbols(m)

	tests := []struct {
		name string
		got  Coverage
		want Coverage
	}{
		{
			name: "exhaustive match",
			got:  syms.MatchCoverage(&Match{Variant: "Opt", Cases: []MatchCase{{Branch: "Some"}, {Branch: "None"}}}),
			want: Coverage{Known: true, Exhaustive: true},
		},
		{
			name: "partial match",
			got:  syms.MatchCoverage(&Match{Variant: "Opt", Cases: []MatchCase{{Branch: "Some"}}}),
			want: Coverage{Known: true, Missing: []string{"None"}},
		},
		{
			name: "external variant",
			got:  syms.MatchCoverage(&Match{Variant: "List", Cases: []MatchCase{{Branch: "Nil"}}}),
			want: Coverage{},
		},
		{
			name: "partial switch keeps declaration order",
			got:  syms.SwitchCoverage(&Switch{Enum: "Color", Cases: []SwitchCase{{Value: "Green"}}}),
			want: Coverage{Known: true, Missing: []string{"Red", "Blue"}},
		},
		{
			name: "external enum",
			got:  syms.SwitchCoverage(&Switch{Enum: "Mode"}),
			want: Coverage{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
		})
	}
}

func TestSymbolsBranch(t *testing.T) {
	syms := NewSymbols(&Module{Decls: []Decl{
		&Variant{Name: "Opt", Branches: []Branch{{Name: "None"}, {Name: "Some", Fields: []string{"t"}}}},
	}})

	b, ok := syms.Branch("Opt", "Some")
	assert.True(t, ok)
	assert.Equal(t, []string{"t"}, b.Fields)

	_, ok = syms.Branch("Opt", "Many")
	assert.False(t, ok)
	_, ok = syms.Branch("Missing", "Some")
	assert.False(t, ok)
}
