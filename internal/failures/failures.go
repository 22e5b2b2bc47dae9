package failures

import (
	"errors"
	"fmt"
)

const (
	unknownKindMessageConstant          = "unknown user error"
	internalErrorTemplateConstant       = "%s: %v"
	internalErrorWithoutCauseConstant   = "internal error"
	userErrorExitCodeConstant           = 1
	internalErrorExitCodeConstant       = 2
	notInitializedMessageConstant       = "Not in an initialized lwgit directory."
	alreadyInitializedMessageConstant   = "A lwgit version-control system already exists in the current directory."
	incorrectOperandsMessageConstant    = "Incorrect operands."
	fileNotFoundMessageConstant         = "File does not exist."
	nothingToRemoveMessageConstant      = "No reason to remove the file."
	nothingStagedMessageConstant        = "No changes added to the commit."
	emptyMessageMessageConstant         = "Please enter a commit message."
	fileNotInCommitMessageConstant      = "File does not exist in that commit."
	noSuchCommitMessageConstant         = "No commit with that id exists."
	noSuchBranchMessageConstant         = "No such branch exists."
	noOpMessageConstant                 = "No need to checkout the current branch."
	untrackedObstructionMessageConstant = "There is an untracked file in the way; delete it, or add and commit it first."
	branchExistsMessageConstant         = "A branch with that name already exists."
	cannotDeleteCurrentMessageConstant  = "Cannot remove the current branch."
	uncommittedChangesMessageConstant   = "You have uncommitted changes."
	selfMergeMessageConstant            = "Cannot merge a branch with itself."
	alreadyAncestorMessageConstant      = "Given branch is an ancestor of the current branch."
	noMatchingCommitMessageConstant     = "Found no commit with that message."
	remoteExistsMessageConstant         = "A remote with that name already exists."
	noSuchRemoteMessageConstant         = "A remote with that name does not exist."
	branchDoesNotExistMessageConstant   = "A branch with that name does not exist."
	unknownCommandMessageConstant       = "No command with that name exists."
	missingCommandMessageConstant       = "Please enter a command."
)

// Kind enumerates user-facing failure categories.
type Kind int

// Supported user error kinds.
const (
	KindNotInitialized Kind = iota + 1
	KindAlreadyInitialized
	KindIncorrectOperands
	KindFileNotFound
	KindNothingToRemove
	KindNothingStaged
	KindEmptyMessage
	KindFileNotInCommit
	KindNoSuchCommit
	KindNoSuchBranch
	KindNoOp
	KindUntrackedObstruction
	KindBranchExists
	// KindBranchMissing is the no-such-branch variant reported by branch removal and merge.
	KindBranchMissing
	KindCannotDeleteCurrent
	KindUncommittedChanges
	KindSelfMerge
	KindAlreadyAncestor
	KindNoMatchingCommit
	KindRemoteExists
	KindNoSuchRemote
	KindUnknownCommand
	KindMissingCommand
)

var kindMessages = map[Kind]string{
	KindNotInitialized:       notInitializedMessageConstant,
	KindAlreadyInitialized:   alreadyInitializedMessageConstant,
	KindIncorrectOperands:    incorrectOperandsMessageConstant,
	KindFileNotFound:         fileNotFoundMessageConstant,
	KindNothingToRemove:      nothingToRemoveMessageConstant,
	KindNothingStaged:        nothingStagedMessageConstant,
	KindEmptyMessage:         emptyMessageMessageConstant,
	KindFileNotInCommit:      fileNotInCommitMessageConstant,
	KindNoSuchCommit:         noSuchCommitMessageConstant,
	KindNoSuchBranch:         noSuchBranchMessageConstant,
	KindNoOp:                 noOpMessageConstant,
	KindUntrackedObstruction: untrackedObstructionMessageConstant,
	KindBranchExists:         branchExistsMessageConstant,
	KindBranchMissing:        branchDoesNotExistMessageConstant,
	KindCannotDeleteCurrent:  cannotDeleteCurrentMessageConstant,
	KindUncommittedChanges:   uncommittedChangesMessageConstant,
	KindSelfMerge:            selfMergeMessageConstant,
	KindAlreadyAncestor:      alreadyAncestorMessageConstant,
	KindNoMatchingCommit:     noMatchingCommitMessageConstant,
	KindRemoteExists:         remoteExistsMessageConstant,
	KindNoSuchRemote:         noSuchRemoteMessageConstant,
	KindUnknownCommand:       unknownCommandMessageConstant,
	KindMissingCommand:       missingCommandMessageConstant,
}

// Message returns the canonical user-facing text for the kind.
func (kind Kind) Message() string {
	message, known := kindMessages[kind]
	if !known {
		return unknownKindMessageConstant
	}
	return message
}

// UserError reports a rejected command caused by the caller's input or repository state.
type UserError struct {
	Kind Kind
}

// New constructs a UserError of the provided kind.
func New(kind Kind) error {
	return UserError{Kind: kind}
}

// Error renders the canonical message.
func (userError UserError) Error() string {
	return userError.Kind.Message()
}

// Is matches another UserError of the same kind.
func (userError UserError) Is(target error) bool {
	targetUserError, isUserError := target.(UserError)
	if !isUserError {
		return false
	}
	return targetUserError.Kind == userError.Kind
}

// InternalError reports a storage or decoding failure that is never the caller's fault.
type InternalError struct {
	Operation string
	Cause     error
}

// Internal wraps cause as an InternalError attributed to operation.
// A nil cause yields nil so call sites can wrap unconditionally.
func Internal(operation string, cause error) error {
	if cause == nil {
		return nil
	}
	var existing InternalError
	if errors.As(cause, &existing) {
		return cause
	}
	return InternalError{Operation: operation, Cause: cause}
}

// Error describes the failed operation and its cause.
func (internalError InternalError) Error() string {
	if internalError.Cause == nil {
		return internalErrorWithoutCauseConstant
	}
	return fmt.Sprintf(internalErrorTemplateConstant, internalError.Operation, internalError.Cause)
}

// Unwrap exposes the underlying cause.
func (internalError InternalError) Unwrap() error {
	return internalError.Cause
}

// IsKind reports whether err is a UserError of the provided kind.
func IsKind(err error, kind Kind) bool {
	var userError UserError
	if !errors.As(err, &userError) {
		return false
	}
	return userError.Kind == kind
}

// IsUser reports whether err is any UserError.
func IsUser(err error) bool {
	var userError UserError
	return errors.As(err, &userError)
}

// IsInternal reports whether err is an InternalError.
func IsInternal(err error) bool {
	var internalError InternalError
	return errors.As(err, &internalError)
}

// ExitCode maps an error to the process exit status.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	if IsUser(err) {
		return userErrorExitCodeConstant
	}
	return internalErrorExitCodeConstant
}
