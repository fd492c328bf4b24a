package domain

import "context"

// Notifier delivers invoker-only (ephemeral) messages for one archive
// invocation. The channel binding provides the implementation.
type Notifier interface {
	SendEphemeral(ctx context.Context, content string) error
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(ctx context.Context, content string) error

func (f NotifierFunc) SendEphemeral(ctx context.Context, content string) error {
	return f(ctx, content)
}
