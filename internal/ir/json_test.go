package ir

import (
	"encoding/json"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadShapes(t *testing.T) (*Module, []byte) {
	t.Helper()
	data, err := os.ReadFile("../driver/testdata/shapes.json")
	require.NoError(t, err)
	m, err := Parse(data)
	require.NoError(t, err)
	return m, data
}

func TestParseShapes(t *testing.T) {
	m, _ := loadShapes(t)

	assert.Equal(t, "shapes", m.Name)
	assert.Equal(t, "Shapes and colours", m.Comment)
	require.Len(t, m.Decls, 8)

	alias, ok := m.Decls[0].(*TypeAlias)
	require.True(t, ok)
	assert.Equal(t, "list bool", alias.Target)

	enum, ok := m.Decls[1].(*Enum)
	require.True(t, ok)
	assert.Equal(t, []string{"Red", "Green", "Blue"}, enum.Values)

	variant, ok := m.Decls[2].(*Variant)
	require.True(t, ok)
	require.Len(t, variant.Branches, 3)
	assert.Equal(t, []string{"nat", "nat"}, variant.Branches[1].Fields)
	assert.Empty(t, variant.Branches[2].Fields)

	width, ok := m.Decls[3].(*Function)
	require.True(t, ok)
	match, ok := width.Body.(*Match)
	require.True(t, ok)
	assert.Equal(t, "Shape", match.Variant)
	require.Len(t, match.Cases, 2)
	assert.Equal(t, []string{"w", "_"}, match.Cases[1].Fields)
	require.NotNil(t, match.Default)

	ret, ok := match.Cases[0].Body.(*Return)
	require.True(t, ok)
	bin, ok := ret.Value.(*Binary)
	require.True(t, ok)
	assert.Equal(t, OpShiftLeft, bin.Op)
	assert.Equal(t, &Bits{Digits: "1"}, bin.Right)

	pick := m.Decls[5].(*Function)
	let, ok := pick.Body.(*Let)
	require.True(t, ok)
	assert.Equal(t, &Length{List: &Var{Name: "xs"}}, let.Value)
	ifs, ok := let.Body.(*If)
	require.True(t, ok)
	elseRet := ifs.Else.(*Return)
	ifx := elseRet.Value.(*IfExpr)
	assert.Equal(t, &List{}, ifx.Else)

	origin := m.Decls[6].(*Constant)
	assert.Equal(t, &Call{Func: &Var{Name: "Dot"}}, origin.Value)
}

func TestMarshalRoundTripShapes(t *testing.T) {
	m, _ := loadShapes(t)

	encoded, err := json.Marshal(m)
	require.NoError(t, err)

	again, err := Parse(encoded)
	require.NoError(t, err)
	assert.Equal(t, m, again)
}

func TestMarshalKindLeads(t *testing.T) {
	data, err := json.Marshal(&Return{Value: &Bool{Value: true}})
	require.NoError(t, err)
	assert.Equal(t, `{"kind":"return","value":{"kind":"bool","value":true}}`, string(data))

	data, err = json.Marshal(&Nop{})
	require.NoError(t, err)
	assert.Equal(t, `{"kind":"nop"}`, string(data))
}

func TestParseNullStatementIsNil(t *testing.T) {
	m, err := Parse([]byte(`{"name":"m","decls":[{"kind":"function","name":"f","body":null}]}`))
	require.NoError(t, err)
	fn := m.Decls[0].(*Function)
	assert.Nil(t, fn.Body)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantPath string
		wantMsg  string
	}{
		{
			name:     "unknown decl kind",
			input:    `{"name":"m","decls":[{"kind":"class","name":"C"}]}`,
			wantPath: "decls[0]",
			wantMsg:  `unknown declaration kind "class"`,
		},
		{
			name:     "missing kind",
			input:    `{"name":"m","decls":[{"name":"C"}]}`,
			wantPath: "decls[0]",
			wantMsg:  "missing kind",
		},
		{
			name:     "unknown stmt kind",
			input:    `{"name":"m","decls":[{"kind":"function","name":"f","body":{"kind":"while"}}]}`,
			wantPath: "decls[0].body",
			wantMsg:  `unknown statement kind "while"`,
		},
		{
			name: "unknown expr kind in case body",
			input: `{"name":"m","decls":[{"kind":"function","name":"f","body":
				{"kind":"match","discriminee":"x","cases":[{"branch":"A","body":
					{"kind":"return","value":{"kind":"float"}}}]}}]}`,
			wantPath: "decls[0].body.cases[0].body.value",
			wantMsg:  `unknown expression kind "float"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.input))
			require.Error(t, err)

			var decodeErr *DecodeError
			require.True(t, errors.As(err, &decodeErr), "got %T: %v", err, err)
			assert.Equal(t, tt.wantPath, decodeErr.Path)
			assert.Contains(t, decodeErr.Message, tt.wantMsg)
		})
	}
}

func TestParseSyntaxError(t *testing.T) {
	_, err := Parse([]byte(`{"name":`))
	require.Error(t, err)
}
