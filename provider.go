package novelsrc

import "context"

// Provider bundles URL resolution and content parsing for one hosting site.
// Implementations hold no mutable state and are safe for concurrent use.
type Provider interface {
	// Name returns the provider's identifier (e.g., "kakuyomu").
	Name() string

	// ExtractBookID derives the canonical book ID from any URL of the book,
	// including episode URLs and URLs with extra query parameters.
	// Performs no I/O. Returns EINVALID if the URL is not recognized.
	ExtractBookID(rawURL string) (string, error)

	// GetBookMetadata fetches the book's title, author and complete chapter list.
	// Returns ENOTFOUND if the site reports no such book and EPARSE if the
	// page structure is not recognized.
	GetBookMetadata(ctx context.Context, bookID string) (*BookMetadata, error)

	// GetEpisode fetches a single chapter. The episode ID DefaultEpisodeID
	// resolves to the sole chapter of a single-chapter book.
	// Returns ENOTFOUND if the episode does not exist.
	GetEpisode(ctx context.Context, bookID, episodeID string) (*EpisodeContent, error)
}

// ProviderRegistry manages the set of known providers.
type ProviderRegistry interface {
	// Register adds a provider, replacing any provider with the same name.
	Register(p Provider)

	// Get returns the provider with the given name, or nil.
	Get(name string) Provider

	// ForURL returns the first provider that recognizes the URL together
	// with the extracted book ID. Returns EINVALID if none does.
	ForURL(rawURL string) (Provider, string, error)

	// List returns the names of all registered providers in sorted order.
	List() []string
}
