// Package cmdspec reads declarative XML descriptions of a command-line
// suite and builds the intermediate representation consumed by the code and
// documentation emitters.
//
// A declarations file interleaves declaration elements (command, optgroup,
// option, argument, optgroup-reference) with documentation markup. The
// [Reader] dispatches parse events through a [HandlerTable]; [Slurp] installs
// a markup-ignoring table and produces a [Suite], while the documentation
// walker in [go.jacobcolvin.com/cmdgen/cmdspec/poddoc] installs an active
// table over the same reader.
//
// Conditional regions are delimited by ifdef, ifndef, and endif processing
// instructions evaluated against a definitions set:
//
//	<?ifdef DOC?>
//	<section name="Examples">...</section>
//	<?endif?>
//
// All entities are immutable after ingest except that [Command] collects
// optgroups and arguments while its scope is open, and Command.HasDoc is
// attached after documentation extraction.
package cmdspec
