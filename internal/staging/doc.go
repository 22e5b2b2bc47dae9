// Package staging implements the pending overlay that sits between the
// working tree and the HEAD commit.
//
// Staged additions and removals are kept in two path-keyed maps with a
// retained copy of each referenced content under the staging directory, so
// content that exists only in the overlay survives until it is committed or
// discarded. FlushInto folds the overlay into a new commit.
package staging
