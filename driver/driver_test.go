package driver

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatParameterName(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		d    Driver
		n    int
		want string
		typ  PrepareType
	}{
		{"question mark", QuestionMark{}, 3, "?", Positional},
		{"dollar", Dollar{}, 3, "$3", Positional},
		{"named default", NamedParams{}, 2, ":p2", Named},
		{"named custom", NamedParams{Sigil: "@", Stem: "arg"}, 7, "@arg7", Named},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.d.FormatParameterName(tt.n))
			assert.Equal(t, tt.typ, tt.d.PrepareType())
		})
	}
}

func TestPrepareTypeString(t *testing.T) {
	assert.Equal(t, "positional", Positional.String())
	assert.Equal(t, "named", Named.String())
	assert.Equal(t, "unknown", PrepareType(9).String())
}

func TestBareName(t *testing.T) {
	assert.Equal(t, "p1", BareName(":p1"))
	assert.Equal(t, "p1", BareName("@p1"))
	assert.Equal(t, "p1", BareName("$p1"))
	assert.Equal(t, "p1", BareName("p1"))
}

func TestParameterContainerPositional(t *testing.T) {
	c := NewParameterContainer()
	c.Offset("", "baz")
	c.Offset("", 42)

	require.Equal(t, 2, c.Len())
	assert.Equal(t, []any{"baz", 42}, c.Values())
	assert.Equal(t, []string{"", ""}, c.Names())
	assert.Equal(t, []any{"baz", 42}, c.Args())

	params := c.Parameters()
	assert.Equal(t, 1, params[0].Position)
	assert.Equal(t, 2, params[1].Position)

	_, ok := c.Get("")
	assert.False(t, ok)
}

func TestParameterContainerNamed(t *testing.T) {
	c := NewParameterContainer()
	c.Offset("p1", "a")
	c.Offset("p2", "b")
	c.Offset("p1", "c")

	require.Equal(t, 2, c.Len())
	v, ok := c.Get("p1")
	require.True(t, ok)
	assert.Equal(t, "c", v)
	assert.Equal(t, []string{"p1", "p2"}, c.Names())
	assert.Equal(t, []any{sql.Named("p1", "c"), sql.Named("p2", "b")}, c.Args())
}

func TestParameterContainerReset(t *testing.T) {
	c := NewParameterContainer()
	c.Offset("p1", 1)
	c.Reset()
	assert.Equal(t, 0, c.Len())
	_, ok := c.Get("p1")
	assert.False(t, ok)
}

func TestParameterContainerZeroValue(t *testing.T) {
	var c ParameterContainer
	c.Offset("x", 1)
	assert.Equal(t, 1, c.Len())
}

func TestStatement(t *testing.T) {
	s := NewStatement()
	s.SetSQL("UPDATE t SET a = ?")
	s.ParameterContainer().Offset("", 1)
	assert.Equal(t, "UPDATE t SET a = ?", s.SQL())
	assert.Equal(t, []any{1}, s.Args())

	var zero Statement
	assert.NotNil(t, zero.ParameterContainer())
}
