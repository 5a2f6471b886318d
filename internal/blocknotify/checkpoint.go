package blocknotify

import (
	"context"
	"errors"
)

// ErrNoCheckpointFound indicates that no block height checkpoint has been
// persisted yet, i.e. this is a cold start.
var ErrNoCheckpointFound = errors.New("no checkpoint found")

// CheckpointStorage persists the last block height that was fanned out, so a
// restart neither replays an old block nor skips silently ahead of one
// already announced.
type CheckpointStorage interface {
	// SaveCheckpoint stores height as the latest announced block.
	SaveCheckpoint(ctx context.Context, height int64) error

	// LoadCheckpoint returns the last stored height, or ErrNoCheckpointFound
	// when nothing has been stored yet.
	LoadCheckpoint(ctx context.Context) (int64, error)
}
