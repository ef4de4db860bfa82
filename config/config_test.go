package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseLinearUp(t *testing.T) {
	prog, err := Parse(`process main { print("a"); print("b"); print("c"); }`)
	require.NoError(t, err)
	require.Len(t, prog.Definitions, 1)
	def := prog.Definitions[0]
	require.Equal(t, "main", def.Name)
	require.False(t, def.IsTemplate)
	require.Len(t, def.Statements, 3)
	for i, want := range []string{"a", "b", "c"} {
		require.Equal(t, []string{"print"}, def.Statements[i].Method)
		require.Equal(t, StringExpr{Value: want}, def.Statements[i].Args[0])
	}
}

func TestParseVariableResolutionAndLabel(t *testing.T) {
	prog, err := Parse(`process main { var("hello") x; print(x); }`)
	require.NoError(t, err)
	def := prog.Definitions[0]
	require.Len(t, def.Statements, 2)

	s0 := def.Statements[0]
	require.True(t, s0.HasLabel)
	require.Equal(t, "x", s0.Label)

	s1 := def.Statements[1]
	require.Equal(t, []Expr{VarExpr{Path: []string{"x"}}}, s1.Args)
}

func TestParseTemplateCallWithListArgs(t *testing.T) {
	src := `
template T { print(_args.0); }
process main { call("T", {"world"}); }
`
	prog, err := Parse(src)
	require.NoError(t, err)
	require.Len(t, prog.Definitions, 2)

	tmpl := prog.Definitions[0]
	require.True(t, tmpl.IsTemplate)
	require.Equal(t, "T", tmpl.Name)

	main := prog.Definitions[1]
	require.False(t, main.IsTemplate)
	call := main.Statements[0]
	require.Equal(t, []string{"call"}, call.Method)
	require.Equal(t, StringExpr{Value: "T"}, call.Args[0])
	require.Equal(t, ListExpr{Elems: []Expr{StringExpr{Value: "world"}}}, call.Args[1])
}

func TestParseObjectPrefixArrow(t *testing.T) {
	prog, err := Parse(`process main { b -> blocker.toggle(); }`)
	require.NoError(t, err)
	stmt := prog.Definitions[0].Statements[0]
	require.Equal(t, []string{"b"}, stmt.ObjectPrefix)
	require.Equal(t, []string{"blocker", "toggle"}, stmt.Method)
}

func TestParseEscapes(t *testing.T) {
	prog, err := Parse(`process main { print("a\nb\t\"c\"\x41"); }`)
	require.NoError(t, err)
	arg := prog.Definitions[0].Statements[0].Args[0].(StringExpr)
	require.Equal(t, "a\nb\t\"c\"A", arg.Value)
}

func TestParseComment(t *testing.T) {
	prog, err := Parse("# top comment\nprocess main { # inline\n print(\"a\"); }\n")
	require.NoError(t, err)
	require.Len(t, prog.Definitions, 1)
}

func TestParseEmptyConfigIsLegal(t *testing.T) {
	prog, err := Parse("   \n # just a comment\n")
	require.NoError(t, err)
	require.Empty(t, prog.Definitions)
}

func TestParseDuplicateProcessNameIsError(t *testing.T) {
	_, err := Parse(`process a {} process a {}`)
	require.Error(t, err)
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
}

func TestParseErrorHasLineAndColumn(t *testing.T) {
	_, err := Parse("process main {\n  print(\n}")
	require.Error(t, err)
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	require.Equal(t, 3, pe.Line)
}

func TestUnparseRoundTrip(t *testing.T) {
	src := `
template T { print(_args.0); }
process main {
    var("hello") x;
    print(x);
    call("T", {"world", "x\ny"});
}
`
	prog, err := Parse(src)
	require.NoError(t, err)

	out := Unparse(prog)

	reparsed, err := Parse(out)
	require.NoError(t, err)

	require.Equal(t, prog, reparsed)
}
