package jobs

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// MessagePruner deletes archived messages last updated before cutoff.
type MessagePruner interface {
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// ArchivePruneJob keeps the message archive within its retention window.
type ArchivePruneJob struct {
	repo      MessagePruner
	retention time.Duration
	interval  time.Duration
	now       func() time.Time
	done      chan struct{}
	stopped   chan struct{}
}

func NewArchivePruneJob(repo MessagePruner, retention, interval time.Duration) *ArchivePruneJob {
	return &ArchivePruneJob{
		repo:      repo,
		retention: retention,
		interval:  interval,
		now:       time.Now,
		done:      make(chan struct{}),
		stopped:   make(chan struct{}),
	}
}

func (j *ArchivePruneJob) Start() {
	go j.run()
	log.Info().Dur("interval", j.interval).Dur("retention", j.retention).Msg("archive prune job started")
}

// Stop waits for an in-flight prune to finish.
func (j *ArchivePruneJob) Stop() {
	close(j.done)
	<-j.stopped
	log.Info().Msg("archive prune job stopped")
}

func (j *ArchivePruneJob) run() {
	defer close(j.stopped)

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.prune()

	for {
		select {
		case <-j.done:
			return
		case <-ticker.C:
			j.prune()
		}
	}
}

func (j *ArchivePruneJob) prune() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cutoff := j.now().Add(-j.retention)
	count, err := j.repo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		log.Error().Err(err).Time("cutoff", cutoff).Msg("failed to prune message archive")
	} else if count > 0 {
		log.Info().Int64("count", count).Time("cutoff", cutoff).Msg("pruned message archive")
	}
}
