package module

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegistryLookup(t *testing.T) {
	r := NewRegistry()
	f := func(ctx *Context) (Module, error) { return nil, nil }
	r.Register("print", f)

	got, ok := r.Lookup("print")
	require.True(t, ok)
	require.NotNil(t, got)

	_, ok = r.Lookup("nonexistent")
	require.False(t, ok)
}

func TestRegistryDuplicatePanics(t *testing.T) {
	r := NewRegistry()
	f := func(ctx *Context) (Module, error) { return nil, nil }
	r.Register("print", f)

	require.Panics(t, func() {
		r.Register("print", f)
	})
}
