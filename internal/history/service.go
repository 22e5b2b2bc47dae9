package history

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/ericy3/lightweightGit/internal/commitgraph"
	"github.com/ericy3/lightweightGit/internal/digest"
	"github.com/ericy3/lightweightGit/internal/failures"
	"github.com/ericy3/lightweightGit/internal/refs"
	"github.com/ericy3/lightweightGit/internal/staging"
)

const (
	blockHeaderConstant           = "==="
	commitLineTemplateConstant    = "commit %s"
	mergeLineTemplateConstant     = "Merge: %s %s"
	dateLineTemplateConstant      = "Date: %s"
	blockSeparatorConstant        = "\n\n"
	mergeDraftMessageConstant     = "MERGE"
	missingCommitTemplateConstant = "%w: %s"
	lineSeparatorConstant         = "\n"
	graphMissingMessageConstant   = "history commit graph not configured"
	refsMissingMessageConstant    = "history ref table not configured"
	stagingMissingMessageConstant = "history staging area not configured"
	headMissingMessageConstant    = "commit referenced by history is not in the graph"
	resolveHeadOperationConstant  = "resolve HEAD"
	walkHistoryOperationConstant  = "walk first-parent history"
	commitRecordedMessageConstant = "commit recorded"
	logFieldCommitConstant        = "commit"
	logFieldBranchConstant        = "branch"
	logFieldSecondParentConstant  = "second_parent"
)

var (
	errGraphMissing   = errors.New(graphMissingMessageConstant)
	errRefsMissing    = errors.New(refsMissingMessageConstant)
	errStagingMissing = errors.New(stagingMissingMessageConstant)
	errCommitMissing  = errors.New(headMissingMessageConstant)
)

// Dependencies describes the collaborators required by Service.
type Dependencies struct {
	Logger  *zap.Logger
	Graph   *commitgraph.Graph
	Refs    *refs.Table
	Staging *staging.Area
}

// Service records new commits and renders history views.
type Service struct {
	logger  *zap.Logger
	graph   *commitgraph.Graph
	refs    *refs.Table
	staging *staging.Area
}

// NewService validates dependencies and constructs a Service.
func NewService(dependencies Dependencies) (*Service, error) {
	switch {
	case dependencies.Graph == nil:
		return nil, errGraphMissing
	case dependencies.Refs == nil:
		return nil, errRefsMissing
	case dependencies.Staging == nil:
		return nil, errStagingMissing
	}
	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{logger: logger, graph: dependencies.Graph, refs: dependencies.Refs, staging: dependencies.Staging}, nil
}

// Commit folds the overlay into a child of HEAD and advances HEAD and the current branch.
func (service *Service) Commit(message string) (*commitgraph.Commit, error) {
	if len(strings.TrimSpace(message)) == 0 {
		return nil, failures.New(failures.KindEmptyMessage)
	}
	return service.record(staging.FlushOptions{Message: message})
}

// CommitMerge records the two-parent merge commit of givenBranch into the
// current branch. An empty overlay still produces the commit.
func (service *Service) CommitMerge(givenTip digest.Digest, givenBranch string) (*commitgraph.Commit, error) {
	return service.record(staging.FlushOptions{
		Message:    mergeDraftMessageConstant,
		AllowEmpty: true,
		Merge: &staging.MergeParent{
			SecondParent:  givenTip,
			CurrentBranch: service.refs.CurrentBranch(),
			GivenBranch:   givenBranch,
		},
	})
}

func (service *Service) record(options staging.FlushOptions) (*commitgraph.Commit, error) {
	head, headError := service.head()
	if headError != nil {
		return nil, headError
	}
	child, flushError := service.staging.FlushInto(head, options)
	if flushError != nil {
		return nil, flushError
	}

	currentBranch := service.refs.CurrentBranch()
	service.refs.Set(refs.HeadName, child.ID)
	service.refs.Set(currentBranch, child.ID)

	service.logger.Debug(
		commitRecordedMessageConstant,
		zap.String(logFieldCommitConstant, child.ID.String()),
		zap.String(logFieldBranchConstant, currentBranch),
		zap.String(logFieldSecondParentConstant, child.SecondParent.String()),
	)
	return child, nil
}

// Log renders HEAD and its first-parent ancestors, newest first.
func (service *Service) Log() (string, error) {
	current, headError := service.head()
	if headError != nil {
		return "", headError
	}
	blocks := []string{}
	for current != nil {
		blocks = append(blocks, renderBlock(current, true))
		if current.Parent.IsZero() {
			break
		}
		parent, known := service.graph.Lookup(current.Parent)
		if !known {
			return "", failures.Internal(walkHistoryOperationConstant, fmt.Errorf(missingCommitTemplateConstant, errCommitMissing, current.Parent))
		}
		current = parent
	}
	return strings.Join(blocks, blockSeparatorConstant) + lineSeparatorConstant, nil
}

// GlobalLog renders every commit in ascending id order, without Merge lines.
func (service *Service) GlobalLog() string {
	commitIDs := service.graph.IDs()
	blocks := make([]string, 0, len(commitIDs))
	for _, commitID := range commitIDs {
		commit, _ := service.graph.Lookup(commitID)
		blocks = append(blocks, renderBlock(commit, false))
	}
	return strings.Join(blocks, blockSeparatorConstant) + lineSeparatorConstant
}

// Find lists the ids of commits whose message equals message, in descending id order.
func (service *Service) Find(message string) (string, error) {
	commitIDs := service.graph.IDs()
	matches := []string{}
	for index := len(commitIDs) - 1; index >= 0; index-- {
		commit, _ := service.graph.Lookup(commitIDs[index])
		if commit.Message == message {
			matches = append(matches, commit.ID.String())
		}
	}
	if len(matches) == 0 {
		return "", failures.New(failures.KindNoMatchingCommit)
	}
	return strings.Join(matches, lineSeparatorConstant) + lineSeparatorConstant, nil
}

func (service *Service) head() (*commitgraph.Commit, error) {
	head, known := service.graph.Lookup(service.refs.Head())
	if !known {
		return nil, failures.Internal(resolveHeadOperationConstant, errCommitMissing)
	}
	return head, nil
}

func renderBlock(commit *commitgraph.Commit, includeMerge bool) string {
	lines := []string{
		blockHeaderConstant,
		fmt.Sprintf(commitLineTemplateConstant, commit.ID),
	}
	if includeMerge && commit.IsMerge() {
		lines = append(lines, fmt.Sprintf(mergeLineTemplateConstant, commit.Parent.Short(), commit.SecondParent.Short()))
	}
	lines = append(lines, fmt.Sprintf(dateLineTemplateConstant, commit.Timestamp), commit.Message)
	return strings.Join(lines, lineSeparatorConstant)
}
