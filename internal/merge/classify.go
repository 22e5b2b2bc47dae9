package merge

import (
	"github.com/ericy3/lightweightGit/internal/digest"
)

// Resolution is the action merge takes for one path.
type Resolution string

// Supported resolutions.
const (
	ResolutionKeepCurrent Resolution = "keep-current"
	ResolutionTakeGiven   Resolution = "take-given"
	ResolutionRemove      Resolution = "remove"
	ResolutionConflict    Resolution = "conflict"
)

// Side is one commit's view of a path.
type Side struct {
	Present bool
	Digest  digest.Digest
}

func (side Side) sameAs(other Side) bool {
	return side.Present && other.Present && side.Digest == other.Digest
}

type pathPlan struct {
	path       string
	resolution Resolution
	content    []byte
}

// Classify resolves one path from its split, current, and given versions.
func Classify(split Side, current Side, given Side) Resolution {
	if split.Present {
		switch {
		case current.Present && given.Present:
			switch {
			case current.sameAs(split):
				if given.sameAs(current) {
					return ResolutionKeepCurrent
				}
				return ResolutionTakeGiven
			case given.sameAs(split), given.sameAs(current):
				return ResolutionKeepCurrent
			default:
				return ResolutionConflict
			}
		case current.Present:
			if current.sameAs(split) {
				return ResolutionRemove
			}
			return ResolutionConflict
		case given.Present:
			if given.sameAs(split) {
				return ResolutionKeepCurrent
			}
			return ResolutionConflict
		default:
			return ResolutionKeepCurrent
		}
	}

	switch {
	case current.Present && given.Present:
		if current.sameAs(given) {
			return ResolutionKeepCurrent
		}
		return ResolutionConflict
	case given.Present:
		return ResolutionTakeGiven
	default:
		return ResolutionKeepCurrent
	}
}
