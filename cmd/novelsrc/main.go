package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"slices"

	"github.com/alecthomas/kong"
	"github.com/fwojciec/novelsrc"
	"github.com/fwojciec/novelsrc/crawl"
	"github.com/fwojciec/novelsrc/goquery"
	nshttp "github.com/fwojciec/novelsrc/http"
	nslog "github.com/fwojciec/novelsrc/slog"
	"github.com/fwojciec/novelsrc/sqlite"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// Registry overrides the providers built from flags. Set before calling
	// Run(), typically by tests.
	Registry novelsrc.ProviderRegistry

	// SQLite database backing the page cache, if enabled.
	DB *sqlite.DB

	fetchers []novelsrc.Fetcher
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{}
}

// Close gracefully stops the program.
func (m *Main) Close() error {
	for _, f := range m.fetchers {
		_ = f.Close()
	}
	m.fetchers = nil
	if m.DB != nil {
		return m.DB.Close()
	}
	return nil
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	// Initialize dependencies struct for Kong binding
	deps := &Dependencies{
		Ctx:    ctx,
		Stdout: stdout,
		Stderr: stderr,
	}

	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("novelsrc"),
		kong.Description("Fetch web novels from Kakuyomu, Syosetu, Novelup and Hameln."),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}), // Don't exit on help
		kong.Bind(deps),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'novelsrc --help' to see available commands")
	}

	cmd := args[0]
	if cmd == "help" || cmd == "--help" || cmd == "-h" {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	logger := slog.New(slog.DiscardHandler)
	if cli.Verbose {
		logger = slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	deps.Logger = logger
	deps.JSON = cli.JSON

	registry := m.Registry
	if registry == nil {
		defer m.Close()
		if registry, err = m.buildRegistry(cli, logger); err != nil {
			fmt.Fprintf(stderr, "error: %s\n", novelsrc.ErrorMessage(err))
			return err
		}
	}
	deps.Registry = nslog.NewLoggingRegistry(registry, logger)

	return kongCtx.Run(deps)
}

// cachePolicy is implemented by providers whose sites serve error pages
// with a 200 status.
type cachePolicy interface {
	Cacheable(resp *novelsrc.Response) bool
}

// buildRegistry creates one fetcher per provider and registers the providers.
// Each fetcher is decorated, from the outside in, with the page cache (if
// enabled), the shared per-domain rate limit, retries and logging.
func (m *Main) buildRegistry(cli *CLI, logger *slog.Logger) (*goquery.Registry, error) {
	if cli.Cache != "" {
		m.DB = sqlite.NewDB(cli.Cache)
		if err := m.DB.Open(); err != nil {
			return nil, novelsrc.WrapError(novelsrc.EINVALID, err, "failed to open cache at %q", cli.Cache)
		}
	}

	limiter := crawl.NewDomainLimiter(cli.RPS)
	retryLog := func(format string, args ...any) {
		logger.Warn(fmt.Sprintf(format, args...))
	}

	newFetcher := func(site string, extra ...nshttp.Option) (novelsrc.Fetcher, error) {
		opts := []nshttp.Option{nshttp.WithTimeout(cli.Timeout)}
		if cli.Proxy != "" && slices.Contains(cli.ProxySites, site) {
			opts = append(opts, nshttp.WithProxy(cli.Proxy))
		}
		hf, err := nshttp.NewFetcher(append(opts, extra...)...)
		if err != nil {
			return nil, err
		}
		var f novelsrc.Fetcher = nslog.NewLoggingFetcher(hf, logger.With("site", site))
		f = crawl.NewRetryFetcher(f, retryLog)
		f = &crawl.LimitedFetcher{Fetcher: f, Limiter: limiter}
		if m.DB != nil {
			f = sqlite.NewPageCache(m.DB, f)
		}
		m.fetchers = append(m.fetchers, f)
		return f, nil
	}

	registry := goquery.NewRegistry()
	constructors := []struct {
		site  string
		extra []nshttp.Option
		build func(novelsrc.Fetcher) novelsrc.Provider
	}{
		{"kakuyomu", nil, func(f novelsrc.Fetcher) novelsrc.Provider { return goquery.NewKakuyomu(f) }},
		{"syosetu", []nshttp.Option{nshttp.WithCookie("https://syosetu.com", "over18", "yes")},
			func(f novelsrc.Fetcher) novelsrc.Provider { return goquery.NewSyosetu(f) }},
		{"novelup", nil, func(f novelsrc.Fetcher) novelsrc.Provider { return goquery.NewNovelup(f) }},
		{"hameln", nil, func(f novelsrc.Fetcher) novelsrc.Provider { return goquery.NewHameln(f) }},
	}
	for _, c := range constructors {
		f, err := newFetcher(c.site, c.extra...)
		if err != nil {
			return nil, err
		}
		p := c.build(f)
		if cache, ok := f.(*sqlite.PageCache); ok {
			if cp, ok := p.(cachePolicy); ok {
				cache.Cacheable = cp.Cacheable
			}
		}
		registry.Register(p)
	}
	return registry, nil
}
