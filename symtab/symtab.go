// Package symtab pre-interns the engine's well-known identifiers at
// startup, so hot-path comparisons against them (e.g. the primary-result
// variable name "") never pay for a map lookup through strindex.Intern.
package symtab

import "github.com/ncdlang/ncd/strindex"

// Well-known interned strings. Empty is always ID 0 by strindex.New's own
// contract; the rest are whatever IDs fall out of registration order,
// which callers must treat as opaque.
type Table struct {
	Empty  strindex.ID
	True   strindex.ID
	False  strindex.ID
	Args   strindex.ID
	Caller strindex.ID
}

// New pre-interns the well-known strings into idx and returns their IDs.
func New(idx *strindex.Index) Table {
	return Table{
		Empty:  idx.Intern(""),
		True:   idx.Intern("true"),
		False:  idx.Intern("false"),
		Args:   idx.Intern("_args"),
		Caller: idx.Intern("_caller"),
	}
}
