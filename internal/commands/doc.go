// Package commands builds the Cobra commands that make up the lwgit command
// surface. Every command opens the repository once, validates its operands,
// runs a single operation, and persists the repository only when the
// operation succeeds.
package commands
