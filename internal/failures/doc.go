// Package failures defines the two error classes surfaced by lwgit.
//
// UserError carries a Kind whose canonical message is shown to the user
// verbatim. InternalError wraps storage and decoding failures so the command
// layer can report them distinctly and exit with a separate status code.
package failures
