// Package worktree reconciles the flat working directory with commits and
// the staging overlay: path and branch checkout, reset, and status.
//
// Every operation validates its preconditions before the first file is
// written or deleted.
package worktree
