package processor

import (
	"context"
	"fmt"
)

// PlayerLister lists every player with cached matches.
type PlayerLister interface {
	Players(ctx context.Context) ([]string, error)
}

// Enqueuer pushes job payloads.
type Enqueuer interface {
	Enqueue(ctx context.Context, payloads ...[]byte) error
}

// EnqueueAll queues a cleanup job for every cached player and returns how
// many were queued. Player ids that are not uuids are skipped.
func (p *CleanupProcessor) EnqueueAll(ctx context.Context, players PlayerLister, q Enqueuer) (int, error) {
	ids, err := players.Players(ctx)
	if err != nil {
		return 0, fmt.Errorf("list players: %w", err)
	}

	payloads := make([][]byte, 0, len(ids))
	for _, id := range ids {
		payload, err := EncodeJob(id)
		if err != nil {
			p.log.Warnf("skipping player %q: %v", id, err)
			continue
		}
		payloads = append(payloads, payload)
	}

	if err := q.Enqueue(ctx, payloads...); err != nil {
		return 0, err
	}
	return len(payloads), nil
}
