package manager

import "context"

// StreamManager owns transcoding sessions. The manager only starts and stops it.
type StreamManager interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// NoopStreamManager is used when streaming is not available
type NoopStreamManager struct{}

func (NoopStreamManager) Start(context.Context) error { return nil }

func (NoopStreamManager) Stop(context.Context) error { return nil }
