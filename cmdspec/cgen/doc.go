// Package cgen emits the C artifacts for a slurped command suite: the
// declarations header and the implementation translation unit with parser
// tables, argv re-serializers, dispatchers, the command registry, and
// embedded help text.
//
// All output is byte-deterministic: options, arguments, optgroups, and
// commands are emitted in declaration order, and accumulator identifiers in
// sorted order. String and character literals follow the minimal C escaping
// scheme implemented by [QuoteString] and [QuoteChar].
package cgen
