package utils

import "context"

const invocationContextKeyConstant = invocationContextKey("invocation")

type invocationContextKey string

// Invocation describes how the running command was configured.
type Invocation struct {
	ConfigurationFilePath string
	RepositoryRoot        string
}

// InvocationContext stores and retrieves the Invocation carried by a command context.
type InvocationContext struct{}

// NewInvocationContext constructs an InvocationContext.
func NewInvocationContext() InvocationContext {
	return InvocationContext{}
}

// With attaches invocation to parentContext, starting from context.Background when parentContext is nil.
func (InvocationContext) With(parentContext context.Context, invocation Invocation) context.Context {
	if parentContext == nil {
		parentContext = context.Background()
	}
	return context.WithValue(parentContext, invocationContextKeyConstant, invocation)
}

// From returns the Invocation attached to executionContext, if any.
func (InvocationContext) From(executionContext context.Context) (Invocation, bool) {
	if executionContext == nil {
		return Invocation{}, false
	}
	invocation, available := executionContext.Value(invocationContextKeyConstant).(Invocation)
	return invocation, available
}
