package events

import "context"

// Sink forwards events outside the process.
type Sink interface {
	Name() string
	Send(ctx context.Context, event Event) error
	Close() error
}
