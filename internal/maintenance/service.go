// Package maintenance runs periodic housekeeping on the stamp database.
package maintenance

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	// PruneInterval is how often the analysis cache is pruned.
	PruneInterval = 24 * time.Hour

	// DefaultCacheMaxAge is how long analyses stay cached.
	DefaultCacheMaxAge = 30 * 24 * time.Hour // 30 days
)

// CachePruner removes cached analyses older than a given age.
type CachePruner interface {
	PruneAnalysisCache(olderThan time.Duration) (int64, error)
}

// Service is the background maintenance service.
type Service struct {
	pruner   CachePruner
	maxAge   time.Duration
	interval time.Duration
}

// NewService creates a maintenance service. A non-positive maxAge uses
// DefaultCacheMaxAge.
func NewService(pruner CachePruner, maxAge time.Duration) *Service {
	if maxAge <= 0 {
		maxAge = DefaultCacheMaxAge
	}
	return &Service{pruner: pruner, maxAge: maxAge, interval: PruneInterval}
}

// Run prunes once at startup and then every interval. It blocks until the
// context is cancelled.
func (s *Service) Run(ctx context.Context) {
	log.Info().Dur("interval", s.interval).Dur("maxAge", s.maxAge).Msg("starting maintenance service")

	s.pruneAnalysisCache()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("maintenance service stopped")
			return
		case <-ticker.C:
			s.pruneAnalysisCache()
		}
	}
}

func (s *Service) pruneAnalysisCache() {
	count, err := s.pruner.PruneAnalysisCache(s.maxAge)
	if err != nil {
		log.Error().Err(err).Msg("failed to prune analysis cache")
		return
	}
	if count > 0 {
		log.Info().Int64("pruned", count).Msg("pruned old analysis cache entries")
	}
}
