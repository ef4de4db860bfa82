// Package config implements the NCD configuration language: a hand-rolled
// lexer and recursive-descent parser producing an AST of processes,
// templates, statements, and argument expressions, plus a canonical-form
// unparser used to check the parser's round-trip property.
package config
