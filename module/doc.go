// Package module defines the Module Runtime Interface: the contract by
// which concrete modules (print, var, blocker, spawn, and any future
// addition to the catalog) communicate with the interpreter engine. The
// engine package depends on this package; it never depends the other way.
package module
