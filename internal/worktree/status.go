package worktree

import (
	"sort"
	"strings"
)

const (
	branchesHeaderConstant      = "=== Branches ==="
	stagedHeaderConstant        = "=== Staged Files ==="
	removedHeaderConstant       = "=== Removed Files ==="
	modificationsHeaderConstant = "=== Modifications Not Staged For Commit ==="
	untrackedHeaderConstant     = "=== Untracked Files ==="
	currentBranchMarkerConstant = "*"
	modifiedSuffixConstant      = " (modified)"
	deletedSuffixConstant       = " (deleted)"
	lineSeparatorConstant       = "\n"
)

// Status classifies every path the working tree, overlay, and HEAD know about.
// All path lists are in ascending order.
type Status struct {
	CurrentBranch string
	OtherBranches []string
	Staged        []string
	Removed       []string
	Modified      []string
	Deleted       []string
	Untracked     []string
}

// Status derives the status sections from HEAD, the overlay, and the working tree.
func (reconciler *Reconciler) Status() (Status, error) {
	head, headError := reconciler.Head()
	if headError != nil {
		return Status{}, headError
	}

	currentBranch := reconciler.refs.CurrentBranch()
	status := Status{
		CurrentBranch: currentBranch,
		Staged:        reconciler.staging.AdditionPaths(),
		Removed:       reconciler.staging.RemovalPaths(),
	}
	for _, branchName := range reconciler.refs.Branches() {
		if branchName != currentBranch {
			status.OtherBranches = append(status.OtherBranches, branchName)
		}
	}

	workingFiles, listError := reconciler.WorkingFiles()
	if listError != nil {
		return Status{}, listError
	}
	present := make(map[string]struct{}, len(workingFiles))

	for _, workingPath := range workingFiles {
		present[workingPath] = struct{}{}
		workingDigest, _, digestError := reconciler.WorkingDigest(workingPath)
		if digestError != nil {
			return Status{}, digestError
		}

		stagedDigest, staged := reconciler.staging.Addition(workingPath)
		removalDigest, removed := reconciler.staging.Removal(workingPath)
		headDigest, tracked := head.BlobFor(workingPath)

		switch {
		case staged:
			if stagedDigest != workingDigest {
				status.Modified = append(status.Modified, workingPath)
			}
		case tracked && !removed:
			if headDigest != workingDigest {
				status.Modified = append(status.Modified, workingPath)
			}
		}

		switch {
		case !staged && !tracked:
			status.Untracked = append(status.Untracked, workingPath)
		case removed && removalDigest == workingDigest:
			status.Untracked = append(status.Untracked, workingPath)
		}
	}

	deleted := map[string]struct{}{}
	for _, stagedPath := range status.Staged {
		if _, exists := present[stagedPath]; !exists {
			deleted[stagedPath] = struct{}{}
		}
	}
	for _, trackedPath := range head.TrackedPaths() {
		if _, removed := reconciler.staging.Removal(trackedPath); removed {
			continue
		}
		if _, exists := present[trackedPath]; !exists {
			deleted[trackedPath] = struct{}{}
		}
	}
	status.Deleted = sortedSet(deleted)

	return status, nil
}

// Render formats the status in the fixed five-section layout, ending with a blank line.
func (status Status) Render() string {
	var builder strings.Builder

	builder.WriteString(branchesHeaderConstant + lineSeparatorConstant)
	builder.WriteString(currentBranchMarkerConstant + status.CurrentBranch + lineSeparatorConstant)
	writeLines(&builder, status.OtherBranches, "")

	builder.WriteString(lineSeparatorConstant + stagedHeaderConstant + lineSeparatorConstant)
	writeLines(&builder, status.Staged, "")

	builder.WriteString(lineSeparatorConstant + removedHeaderConstant + lineSeparatorConstant)
	writeLines(&builder, status.Removed, "")

	builder.WriteString(lineSeparatorConstant + modificationsHeaderConstant + lineSeparatorConstant)
	writeLines(&builder, status.Modified, modifiedSuffixConstant)
	writeLines(&builder, status.Deleted, deletedSuffixConstant)

	builder.WriteString(lineSeparatorConstant + untrackedHeaderConstant + lineSeparatorConstant)
	writeLines(&builder, status.Untracked, "")

	builder.WriteString(lineSeparatorConstant)
	return builder.String()
}

func writeLines(builder *strings.Builder, lines []string, suffix string) {
	for _, line := range lines {
		builder.WriteString(line + suffix + lineSeparatorConstant)
	}
}

func sortedSet(entries map[string]struct{}) []string {
	if len(entries) == 0 {
		return nil
	}
	values := make([]string, 0, len(entries))
	for value := range entries {
		values = append(values, value)
	}
	sort.Strings(values)
	return values
}
