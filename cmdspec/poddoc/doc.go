// Package poddoc extracts documentation from a declarations file and
// serializes it as POD.
//
// The [Walker] re-parses the same source the IR was slurped from, this time
// with active markup handlers, and emits =head1 sections for the program
// synopsis, each command, and each shared optgroup. Section bodies are
// captured under deterministic titles as they are written, so an
// implementation build can run the walker twice: once with
// [WithFullOptGroups] to obtain self-contained per-command help blobs, and
// once without to obtain the man-page document.
//
// [Pod2Text] renders captured POD to plain text through the external
// pod2text program.
package poddoc
