package main

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/fwojciec/novelsrc"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx      context.Context
	Stdout   io.Writer
	Stderr   io.Writer
	Logger   *slog.Logger
	Registry novelsrc.ProviderRegistry
	JSON     bool
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Proxy      string        `env:"HTTPS_PROXY" help:"HTTP proxy URL for sites listed in --proxy-site"`
	ProxySites []string      `name:"proxy-site" default:"syosetu" help:"Sites fetched through --proxy (repeatable)"`
	Timeout    time.Duration `default:"30s" help:"Per-request timeout"`
	RPS        float64       `name:"rps" default:"2" help:"Requests per second per host"`
	Cache      string        `env:"NOVELSRC_CACHE" type:"path" help:"SQLite page cache path (disabled if empty)"`
	JSON       bool          `help:"Print JSON instead of text"`
	Verbose    bool          `short:"v" help:"Log requests to stderr"`

	Resolve  ResolveCmd  `cmd:"" help:"Show the provider and book ID for a URL"`
	Info     InfoCmd     `cmd:"" help:"Show a book's metadata and chapter list"`
	Episode  EpisodeCmd  `cmd:"" help:"Print one episode"`
	Download DownloadCmd `cmd:"" help:"Download every episode of a book"`
	Sites    SitesCmd    `cmd:"" help:"List supported sites"`
}

// ResolveCmd is the "resolve" subcommand.
type ResolveCmd struct {
	URL string `arg:"" help:"Book or episode URL"`
}

// InfoCmd is the "info" subcommand.
type InfoCmd struct {
	Book string `arg:"" help:"Book URL, or book ID with --site"`
	Site string `short:"s" help:"Provider name when passing a book ID"`
}

// EpisodeCmd is the "episode" subcommand.
type EpisodeCmd struct {
	Book    string `arg:"" help:"Book URL, or book ID with --site"`
	Episode string `arg:"" help:"Episode ID (\"default\" for single-chapter books)"`
	Site    string `short:"s" help:"Provider name when passing a book ID"`
}

// DownloadCmd is the "download" subcommand.
type DownloadCmd struct {
	Book        string `arg:"" help:"Book URL, or book ID with --site"`
	Site        string `short:"s" help:"Provider name when passing a book ID"`
	Out         string `short:"o" default:"." type:"path" help:"Parent directory for the book directory"`
	Concurrency int    `short:"c" default:"4" help:"Concurrent episode fetch limit"`
}

// SitesCmd is the "sites" subcommand.
type SitesCmd struct{}

// resolveBook finds the provider and book ID for a command's book argument.
// A URL is dispatched by the registry unless site names the provider; a
// bare ID requires site.
func resolveBook(registry novelsrc.ProviderRegistry, book, site string) (novelsrc.Provider, string, error) {
	isURL := strings.Contains(book, "://")
	if site == "" {
		if !isURL {
			return nil, "", novelsrc.Errorf(novelsrc.EINVALID, "%q is not a URL; pass --site to use a book ID", book)
		}
		return registry.ForURL(book)
	}

	p := registry.Get(site)
	if p == nil {
		return nil, "", novelsrc.Errorf(novelsrc.EINVALID, "unknown site %q (supported: %s)", site, strings.Join(registry.List(), ", "))
	}
	if !isURL {
		return p, book, nil
	}
	bookID, err := p.ExtractBookID(book)
	if err != nil {
		return nil, "", err
	}
	return p, bookID, nil
}

// writeJSON writes v as indented JSON.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
