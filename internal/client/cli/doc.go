// Package cli provides the inspection command-line client.
//
// It wires configuration, the REST API client, the local drafts store and
// the completion tracker into cobra commands. Card edits that cannot reach
// the server are kept as drafts and replayed by "sync". The "walk" command
// runs an interactive pass over the catalog and asks for a photo whenever
// a card that is not ok has none.
package cli
