package llm

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"

	"github.com/raine/telegram-stamp-bot/internal/stamp"
	"github.com/rs/zerolog/log"
)

// AnalysisCache stores normalized analyses by cache key.
type AnalysisCache interface {
	// GetAnalysisCache returns nil, nil on a miss.
	GetAnalysisCache(cacheKey string) (*stamp.Analysis, error)
	SetAnalysisCache(cacheKey string, a *stamp.Analysis) error
}

// CachedAnalyzer wraps an Analyzer with a persistent result cache.
type CachedAnalyzer struct {
	inner Analyzer
	cache AnalysisCache
}

// NewCachedAnalyzer creates a cached analyzer.
func NewCachedAnalyzer(inner Analyzer, cache AnalysisCache) *CachedAnalyzer {
	return &CachedAnalyzer{inner: inner, cache: cache}
}

// cacheKey hashes the image, its MIME type and the prompt. Each part is
// length-prefixed so that boundaries cannot collide.
func cacheKey(image []byte, mimeType, prompt string) string {
	h := sha256.New()
	for _, part := range [][]byte{image, []byte(mimeType), []byte(prompt)} {
		binary.Write(h, binary.LittleEndian, int64(len(part)))
		h.Write(part)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// AnalyzeStamp implements the Analyzer interface with caching. Options.Refresh
// skips the lookup but still stores the fresh result.
func (c *CachedAnalyzer) AnalyzeStamp(ctx context.Context, image []byte, mimeType string, prior *stamp.Stamp, opts Options) (*AnalysisResult, error) {
	key := cacheKey(image, mimeType, BuildPrompt(prior, opts))

	if c.cache != nil && !opts.Refresh {
		cached, err := c.cache.GetAnalysisCache(key)
		if err != nil {
			log.Warn().Err(err).Msg("failed to check analysis cache")
		} else if cached != nil {
			log.Debug().Str("hash", key[:16]).Msg("analysis cache hit")
			return &AnalysisResult{Analysis: cached, Cached: true}, nil
		}
	}

	result, err := c.inner.AnalyzeStamp(ctx, image, mimeType, prior, opts)
	if err != nil {
		return nil, err
	}

	if c.cache != nil && result.Analysis != nil {
		if err := c.cache.SetAnalysisCache(key, result.Analysis); err != nil {
			log.Warn().Err(err).Msg("failed to cache analysis result")
		} else {
			log.Debug().Str("hash", key[:16]).Msg("cached analysis result")
		}
	}

	return result, nil
}
