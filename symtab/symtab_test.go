package symtab

import (
	"testing"

	"github.com/ncdlang/ncd/strindex"
	"github.com/stretchr/testify/require"
)

func TestWellKnownStringsPreinterned(t *testing.T) {
	idx := strindex.New()
	tbl := New(idx)

	require.Equal(t, strindex.ID(0), tbl.Empty)
	require.Equal(t, "true", idx.String(tbl.True))
	require.Equal(t, "false", idx.String(tbl.False))
	require.Equal(t, "_args", idx.String(tbl.Args))
	require.Equal(t, "_caller", idx.String(tbl.Caller))

	id, ok := idx.Lookup("true")
	require.True(t, ok)
	require.Equal(t, tbl.True, id)
}
