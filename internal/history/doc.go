// Package history records commits on the current branch and renders the
// log, global-log, and find views.
package history
