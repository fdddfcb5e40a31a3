package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/novelsrc"
)

// Ensure LoggingProvider implements novelsrc.Provider.
var _ novelsrc.Provider = (*LoggingProvider)(nil)

// LoggingProvider wraps a Provider with logging.
type LoggingProvider struct {
	next   novelsrc.Provider
	logger *slog.Logger
}

// NewLoggingProvider creates a new LoggingProvider.
func NewLoggingProvider(next novelsrc.Provider, logger *slog.Logger) *LoggingProvider {
	return &LoggingProvider{next: next, logger: logger}
}

// Name delegates to the wrapped provider.
func (p *LoggingProvider) Name() string {
	return p.next.Name()
}

// ExtractBookID delegates to the wrapped provider.
func (p *LoggingProvider) ExtractBookID(rawURL string) (string, error) {
	return p.next.ExtractBookID(rawURL)
}

// GetBookMetadata delegates to the wrapped provider and logs the operation.
func (p *LoggingProvider) GetBookMetadata(ctx context.Context, bookID string) (meta *novelsrc.BookMetadata, err error) {
	defer func(begin time.Time) {
		chapters := 0
		if meta != nil {
			chapters = len(meta.Chapters)
		}
		p.logger.Info("book metadata",
			"provider", p.next.Name(),
			"book", bookID,
			"chapters", chapters,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return p.next.GetBookMetadata(ctx, bookID)
}

// GetEpisode delegates to the wrapped provider and logs the operation.
func (p *LoggingProvider) GetEpisode(ctx context.Context, bookID, episodeID string) (ep *novelsrc.EpisodeContent, err error) {
	defer func(begin time.Time) {
		paragraphs := 0
		if ep != nil {
			paragraphs = len(ep.Paragraphs)
		}
		p.logger.Info("episode",
			"provider", p.next.Name(),
			"book", bookID,
			"episode", episodeID,
			"paragraphs", paragraphs,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return p.next.GetEpisode(ctx, bookID, episodeID)
}
