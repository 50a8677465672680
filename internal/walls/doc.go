// Package walls models the unit context of a Walls cave survey (.SRV) file.
//
// # Unit Context
//
// A Walls survey file interleaves shot lines with #units directives. Each
// directive adjusts the context that later shots are read under: length and
// angle units, measurement order, instrument corrections, backsight
// conventions, station name casing and up to three station name prefixes.
//
// The context comes in two forms that share one field set:
//
//	*Units         immutable snapshot; With methods return a new snapshot
//	               (or the receiver when nothing changes)
//	*MutableUnits  builder; Set methods modify in place and chain
//
// Convert between them with [Units.ToMutable] and [MutableUnits.Freeze].
//
// # Station Names
//
// Prefix level 0 is the innermost. A name that already spells out some
// levels with colons keeps them, and only the missing outer levels are
// prepended:
//
//	prefix [a, c]  "b"    -> "c:a:b"
//	prefix [a, c]  ":b"   -> "c::b"
//	prefix [a, c]  "::b"  -> "b"
//
// Leading colons are always stripped, so an explicitly empty prefix
// disappears from the result.
//
// # Directives
//
// [ApplyOption] interprets one tokenized #units option (for example
// "decl=2.5" or "lrud=T:UDLR") against a builder. A rejected option leaves
// the builder as it was and returns an error wrapping [ErrInvalidDirective].
package walls
