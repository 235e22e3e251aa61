package infrastructure

import "context"

// MessagePublisher publishes messages to a message bus subject.
type MessagePublisher interface {
	Publish(ctx context.Context, subject string, data []byte) error
}

// NoopMessagePublisher discards all messages. Used when no broker is
// configured.
type NoopMessagePublisher struct{}

func (NoopMessagePublisher) Publish(context.Context, string, []byte) error {
	return nil
}
