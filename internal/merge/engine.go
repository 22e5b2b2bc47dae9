package merge

import (
	"errors"
	"sort"

	"go.uber.org/zap"

	"github.com/ericy3/lightweightGit/internal/commitgraph"
	"github.com/ericy3/lightweightGit/internal/digest"
	"github.com/ericy3/lightweightGit/internal/failures"
	"github.com/ericy3/lightweightGit/internal/history"
	"github.com/ericy3/lightweightGit/internal/refs"
	"github.com/ericy3/lightweightGit/internal/staging"
	"github.com/ericy3/lightweightGit/internal/worktree"
)

const (
	conflictCurrentMarkerConstant  = "<<<<<<< HEAD\n"
	conflictDividerConstant        = "=======\n"
	conflictGivenMarkerConstant    = ">>>>>>>\n"
	fastForwardNoticeConstant      = "Current branch fast-forwarded."
	conflictNoticeConstant         = "Encountered a merge conflict."
	graphMissingMessageConstant    = "merge commit graph not configured"
	refsMissingMessageConstant     = "merge ref table not configured"
	stagingMissingMessageConstant  = "merge staging area not configured"
	worktreeMissingMessageConstant = "merge reconciler not configured"
	historyMissingMessageConstant  = "merge history service not configured"
	baseMissingMessageConstant     = "branches share no common ancestor"
	commitMissingMessageConstant   = "merge traversal reached a commit that is not in the graph"
	mergeBaseOperationConstant     = "compute merge base"
	pathResolvedMessageConstant    = "merge case resolved"
	mergeBaseMessageConstant       = "merge base selected"
	mergeCommittedMessageConstant  = "merge committed"
	fastForwardMessageConstant     = "merge fast-forwarded"
	logFieldPathConstant           = "path"
	logFieldResolutionConstant     = "resolution"
	logFieldBaseConstant           = "base"
	logFieldCurrentConstant        = "current"
	logFieldGivenConstant          = "given"
	logFieldBranchConstant         = "branch"
	logFieldCommitConstant         = "commit"
	logFieldConflictConstant       = "conflict"
)

var (
	errGraphMissing    = errors.New(graphMissingMessageConstant)
	errRefsMissing     = errors.New(refsMissingMessageConstant)
	errStagingMissing  = errors.New(stagingMissingMessageConstant)
	errWorktreeMissing = errors.New(worktreeMissingMessageConstant)
	errHistoryMissing  = errors.New(historyMissingMessageConstant)
	errBaseMissing     = errors.New(baseMissingMessageConstant)
	errCommitMissing   = errors.New(commitMissingMessageConstant)
)

// Outcome names how a merge concluded.
type Outcome string

// Supported outcomes.
const (
	OutcomeFastForward Outcome = "fast-forward"
	OutcomeMerged      Outcome = "merged"
)

// Result describes a completed merge.
type Result struct {
	Outcome  Outcome
	Base     digest.Digest
	Commit   *commitgraph.Commit
	Conflict bool
}

// Notice returns the line reported to the user, or an empty string.
func (result Result) Notice() string {
	switch {
	case result.Outcome == OutcomeFastForward:
		return fastForwardNoticeConstant
	case result.Conflict:
		return conflictNoticeConstant
	default:
		return ""
	}
}

// Dependencies describes the collaborators required by Engine.
type Dependencies struct {
	Logger   *zap.Logger
	Graph    *commitgraph.Graph
	Refs     *refs.Table
	Staging  *staging.Area
	Worktree *worktree.Reconciler
	History  *history.Service
}

// Engine performs three-way merges of a branch into the current branch.
type Engine struct {
	logger   *zap.Logger
	graph    *commitgraph.Graph
	refs     *refs.Table
	staging  *staging.Area
	worktree *worktree.Reconciler
	history  *history.Service
}

// NewEngine validates dependencies and constructs an Engine.
func NewEngine(dependencies Dependencies) (*Engine, error) {
	switch {
	case dependencies.Graph == nil:
		return nil, errGraphMissing
	case dependencies.Refs == nil:
		return nil, errRefsMissing
	case dependencies.Staging == nil:
		return nil, errStagingMissing
	case dependencies.Worktree == nil:
		return nil, errWorktreeMissing
	case dependencies.History == nil:
		return nil, errHistoryMissing
	}
	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		logger:   logger,
		graph:    dependencies.Graph,
		refs:     dependencies.Refs,
		staging:  dependencies.Staging,
		worktree: dependencies.Worktree,
		history:  dependencies.History,
	}, nil
}

// Merge merges givenBranch into the current branch.
func (engine *Engine) Merge(givenBranch string) (Result, error) {
	if !engine.staging.IsEmpty() {
		return Result{}, failures.New(failures.KindUncommittedChanges)
	}
	givenID, known := engine.refs.Get(givenBranch)
	if !known || givenBranch == refs.HeadName {
		return Result{}, failures.New(failures.KindBranchMissing)
	}
	currentBranch := engine.refs.CurrentBranch()
	if givenBranch == currentBranch {
		return Result{}, failures.New(failures.KindSelfMerge)
	}

	current, headError := engine.worktree.Head()
	if headError != nil {
		return Result{}, headError
	}
	given, givenKnown := engine.graph.Lookup(givenID)
	if !givenKnown {
		return Result{}, failures.Internal(mergeBaseOperationConstant, errCommitMissing)
	}
	if obstructionError := engine.worktree.EnsureNoObstruction(current, given); obstructionError != nil {
		return Result{}, obstructionError
	}

	baseID, baseError := engine.MergeBase(current.ID, given.ID)
	if baseError != nil {
		return Result{}, baseError
	}
	engine.logger.Debug(
		mergeBaseMessageConstant,
		zap.String(logFieldBaseConstant, baseID.String()),
		zap.String(logFieldCurrentConstant, current.ID.String()),
		zap.String(logFieldGivenConstant, given.ID.String()),
	)

	if baseID == given.ID {
		return Result{}, failures.New(failures.KindAlreadyAncestor)
	}
	if baseID == current.ID {
		if checkoutError := engine.worktree.CheckoutBranch(givenBranch); checkoutError != nil {
			return Result{}, checkoutError
		}
		engine.logger.Debug(fastForwardMessageConstant, zap.String(logFieldBranchConstant, givenBranch), zap.String(logFieldCommitConstant, given.ID.String()))
		return Result{Outcome: OutcomeFastForward, Base: baseID}, nil
	}

	base, _ := engine.graph.Lookup(baseID)
	plans, planError := engine.plan(base, current, given)
	if planError != nil {
		return Result{}, planError
	}

	conflict := false
	for _, pathPlan := range plans {
		if applyError := engine.apply(current, pathPlan); applyError != nil {
			return Result{}, applyError
		}
		if pathPlan.resolution == ResolutionConflict {
			conflict = true
		}
	}

	mergeCommit, commitError := engine.history.CommitMerge(given.ID, givenBranch)
	if commitError != nil {
		return Result{}, commitError
	}
	engine.logger.Debug(
		mergeCommittedMessageConstant,
		zap.String(logFieldCommitConstant, mergeCommit.ID.String()),
		zap.String(logFieldBranchConstant, givenBranch),
		zap.Bool(logFieldConflictConstant, conflict),
	)
	return Result{Outcome: OutcomeMerged, Base: baseID, Commit: mergeCommit, Conflict: conflict}, nil
}

// AncestorSet returns tipID and every commit reachable from it through
// parent and second-parent edges.
func (engine *Engine) AncestorSet(tipID digest.Digest) (map[digest.Digest]struct{}, error) {
	ancestors := map[digest.Digest]struct{}{}
	pending := []digest.Digest{tipID}
	for len(pending) > 0 {
		commitID := pending[len(pending)-1]
		pending = pending[:len(pending)-1]
		if _, seen := ancestors[commitID]; seen {
			continue
		}
		commit, known := engine.graph.Lookup(commitID)
		if !known {
			return nil, failures.Internal(mergeBaseOperationConstant, errCommitMissing)
		}
		ancestors[commitID] = struct{}{}
		pending = append(pending, engine.graph.AncestorsOnceRemoved(commit)...)
	}
	return ancestors, nil
}

// MergeBase walks breadth-first from currentID and returns the first commit
// that is also an ancestor of givenID. In criss-cross histories this is not
// necessarily the lowest common ancestor.
func (engine *Engine) MergeBase(currentID digest.Digest, givenID digest.Digest) (digest.Digest, error) {
	givenAncestors, ancestorsError := engine.AncestorSet(givenID)
	if ancestorsError != nil {
		return digest.None, ancestorsError
	}

	visited := map[digest.Digest]struct{}{currentID: {}}
	queue := []digest.Digest{currentID}
	for len(queue) > 0 {
		commitID := queue[0]
		queue = queue[1:]
		if _, common := givenAncestors[commitID]; common {
			return commitID, nil
		}
		commit, known := engine.graph.Lookup(commitID)
		if !known {
			return digest.None, failures.Internal(mergeBaseOperationConstant, errCommitMissing)
		}
		for _, parentID := range engine.graph.AncestorsOnceRemoved(commit) {
			if _, seen := visited[parentID]; seen {
				continue
			}
			visited[parentID] = struct{}{}
			queue = append(queue, parentID)
		}
	}
	return digest.None, failures.Internal(mergeBaseOperationConstant, errBaseMissing)
}

func (engine *Engine) plan(base *commitgraph.Commit, current *commitgraph.Commit, given *commitgraph.Commit) ([]pathPlan, error) {
	paths := map[string]struct{}{}
	for _, commit := range []*commitgraph.Commit{base, current, given} {
		for path := range commit.Tracked {
			paths[path] = struct{}{}
		}
	}
	sortedPaths := make([]string, 0, len(paths))
	for path := range paths {
		sortedPaths = append(sortedPaths, path)
	}
	sort.Strings(sortedPaths)

	plans := make([]pathPlan, 0, len(sortedPaths))
	for _, path := range sortedPaths {
		resolution := Classify(sideOf(base, path), sideOf(current, path), sideOf(given, path))
		engine.logger.Debug(pathResolvedMessageConstant, zap.String(logFieldPathConstant, path), zap.String(logFieldResolutionConstant, string(resolution)))
		if resolution == ResolutionKeepCurrent {
			continue
		}
		pathPlan := pathPlan{path: path, resolution: resolution}

		switch resolution {
		case ResolutionTakeGiven:
			content, readError := engine.worktree.BlobContent(given, path)
			if readError != nil {
				return nil, readError
			}
			pathPlan.content = content
		case ResolutionConflict:
			content, renderError := engine.conflictContent(current, given, path)
			if renderError != nil {
				return nil, renderError
			}
			pathPlan.content = content
		}
		plans = append(plans, pathPlan)
	}
	return plans, nil
}

func (engine *Engine) apply(current *commitgraph.Commit, pathPlan pathPlan) error {
	switch pathPlan.resolution {
	case ResolutionRemove:
		return engine.staging.StageRemove(current, pathPlan.path)
	case ResolutionTakeGiven, ResolutionConflict:
		if writeError := engine.worktree.WriteWorking(pathPlan.path, pathPlan.content); writeError != nil {
			return writeError
		}
		return engine.staging.StageAdd(current, pathPlan.path)
	default:
		return nil
	}
}

// conflictContent renders the marker block; an absent side contributes nothing.
func (engine *Engine) conflictContent(current *commitgraph.Commit, given *commitgraph.Commit, path string) ([]byte, error) {
	content := []byte(conflictCurrentMarkerConstant)
	if current.Tracks(path) {
		currentContent, readError := engine.worktree.BlobContent(current, path)
		if readError != nil {
			return nil, readError
		}
		content = append(content, currentContent...)
	}
	content = append(content, conflictDividerConstant...)
	if given.Tracks(path) {
		givenContent, readError := engine.worktree.BlobContent(given, path)
		if readError != nil {
			return nil, readError
		}
		content = append(content, givenContent...)
	}
	return append(content, conflictGivenMarkerConstant...), nil
}

func sideOf(commit *commitgraph.Commit, path string) Side {
	blobDigest, tracked := commit.BlobFor(path)
	return Side{Present: tracked, Digest: blobDigest}
}
