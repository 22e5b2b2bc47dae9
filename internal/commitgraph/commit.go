package commitgraph

import (
	"sort"
	"time"

	"github.com/ericy3/lightweightGit/internal/digest"
)

const (
	// TimestampLayout renders commit dates, e.g. "Thu Jan 1 00:00:00 1970 +0000".
	TimestampLayout = "Mon Jan 2 15:04:05 2006 -0700"
	// InitialCommitMessage is the message of the root commit created by init.
	InitialCommitMessage = "initial commit"

	mergeMessageTemplateConstant = "Merged %s into %s."
)

// Clock abstracts time acquisition for deterministic testing.
type Clock interface {
	Now() time.Time
}

// SystemClock implements Clock using the system time source.
type SystemClock struct{}

// Now returns the current system time.
func (SystemClock) Now() time.Time {
	return time.Now()
}

// Commit is one node of the history graph. Header fields fix the id; the
// tracked table is filled right after creation and frozen afterwards.
type Commit struct {
	ID           digest.Digest            `json:"id"`
	Message      string                   `json:"message"`
	Parent       digest.Digest            `json:"parent,omitempty"`
	SecondParent digest.Digest            `json:"second_parent,omitempty"`
	Timestamp    string                   `json:"timestamp"`
	Tracked      map[string]digest.Digest `json:"tracked"`

	frozen bool
}

// Tracks reports whether the commit snapshots path.
func (commit *Commit) Tracks(path string) bool {
	_, tracked := commit.Tracked[path]
	return tracked
}

// BlobFor returns the blob digest recorded for path.
func (commit *Commit) BlobFor(path string) (digest.Digest, bool) {
	blobDigest, tracked := commit.Tracked[path]
	return blobDigest, tracked
}

// TrackedPaths returns the tracked paths in ascending order.
func (commit *Commit) TrackedPaths() []string {
	paths := make([]string, 0, len(commit.Tracked))
	for path := range commit.Tracked {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

// IsMerge reports whether the commit has a second parent.
func (commit *Commit) IsMerge() bool {
	return !commit.SecondParent.IsZero()
}

// Frozen reports whether the tracked table can no longer change.
func (commit *Commit) Frozen() bool {
	return commit.frozen
}

// computeID hashes message ++ timestamp [++ parent [++ second_parent]].
// The tracked table does not participate.
func computeID(message string, timestamp string, parent digest.Digest, secondParent digest.Digest) (digest.Digest, error) {
	if parent.IsZero() {
		return digest.SumStrings(message, timestamp)
	}
	if secondParent.IsZero() {
		return digest.SumStrings(message, timestamp, parent.String())
	}
	return digest.SumStrings(message, timestamp, parent.String(), secondParent.String())
}
