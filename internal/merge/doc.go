// Package merge implements three-way merge of a branch into the current branch.
//
// The engine runs its entry checks, picks a merge base with a breadth-first
// search from the current tip, classifies every path against the base, and
// plans all working-tree writes before applying any of them. Conflicting
// paths are written with marker blocks and committed like any other change.
package merge
