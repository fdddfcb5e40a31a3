package slog

import (
	"log/slog"
	"time"

	"github.com/fwojciec/novelsrc"
)

// Ensure LoggingRegistry implements novelsrc.ProviderRegistry.
var _ novelsrc.ProviderRegistry = (*LoggingRegistry)(nil)

// LoggingRegistry wraps a ProviderRegistry with logging for URL dispatch.
// Providers it returns are wrapped in LoggingProvider.
type LoggingRegistry struct {
	next   novelsrc.ProviderRegistry
	logger *slog.Logger
}

// NewLoggingRegistry creates a new LoggingRegistry.
func NewLoggingRegistry(next novelsrc.ProviderRegistry, logger *slog.Logger) *LoggingRegistry {
	return &LoggingRegistry{next: next, logger: logger}
}

// Register delegates to the wrapped registry.
func (r *LoggingRegistry) Register(p novelsrc.Provider) {
	r.next.Register(p)
}

// Get returns the named provider wrapped with logging, or nil.
func (r *LoggingRegistry) Get(name string) novelsrc.Provider {
	p := r.next.Get(name)
	if p == nil {
		return nil
	}
	return NewLoggingProvider(p, r.logger)
}

// ForURL resolves the URL, logs the provider it dispatched to, and returns
// that provider wrapped with logging.
func (r *LoggingRegistry) ForURL(rawURL string) (novelsrc.Provider, string, error) {
	begin := time.Now()
	p, bookID, err := r.next.ForURL(rawURL)
	name := "(none)"
	if p != nil {
		name = p.Name()
	}
	r.logger.Info("resolve url",
		"url", rawURL,
		"provider", name,
		"book", bookID,
		"duration", time.Since(begin),
		"err", err,
	)
	if err != nil {
		return nil, "", err
	}
	return NewLoggingProvider(p, r.logger), bookID, nil
}

// List delegates to the wrapped registry.
func (r *LoggingRegistry) List() []string {
	return r.next.List()
}
