// Package processor runs season-cleanup jobs taken from the queue.
package processor

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"tracker/internal/logging"
)

// JobPayload asks for one player's cache to be cleaned.
type JobPayload struct {
	PUUID string `json:"puuid"`
}

// EncodeJob builds the queue payload for puuid.
func EncodeJob(puuid string) ([]byte, error) {
	id, err := uuid.Parse(puuid)
	if err != nil {
		return nil, fmt.Errorf("parse puuid: %w", err)
	}
	return json.Marshal(JobPayload{PUUID: id.String()})
}

// Cleaner removes a player's stale-season matches.
type Cleaner interface {
	Cleanup(ctx context.Context, playerID string) (int, error)
}

// CleanupProcessor handles season-cleanup jobs.
type CleanupProcessor struct {
	ctx     context.Context
	cleaner Cleaner
	log     logging.Interface
}

// NewCleanupProcessor creates a processor bound to ctx.
func NewCleanupProcessor(ctx context.Context, cleaner Cleaner, log logging.Interface) *CleanupProcessor {
	if log == nil {
		log = logging.Logger()
	}
	return &CleanupProcessor{ctx: ctx, cleaner: cleaner, log: log}
}

// Handle processes a single cleanup job from the queue.
func (p *CleanupProcessor) Handle(payload []byte) error {
	startTime := time.Now()

	var job JobPayload
	if err := json.Unmarshal(payload, &job); err != nil {
		return fmt.Errorf("unmarshal job payload: %w", err)
	}

	playerID, err := uuid.Parse(job.PUUID)
	if err != nil {
		return fmt.Errorf("parse puuid: %w", err)
	}

	deleted, err := p.cleaner.Cleanup(p.ctx, playerID.String())
	if err != nil {
		return fmt.Errorf("cleanup %s: %w", playerID, err)
	}

	p.log.Infof("cleanup job for %s removed %d matches in %v", playerID, deleted, time.Since(startTime))
	return nil
}
