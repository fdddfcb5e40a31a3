package fs

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/fwojciec/novelsrc"
)

// Ensure BookStore implements novelsrc.BookStore at compile time.
var _ novelsrc.BookStore = (*BookStore)(nil)

// BookStore implements novelsrc.BookStore with atomic update semantics.
// Files are saved to a temporary directory, then moved atomically on Commit.
type BookStore struct {
	baseDir string
	name    string

	// Now returns the download date written to the index. Defaults to time.Now.
	Now func() time.Time
}

// NewBookStore creates a new BookStore.
// baseDir is the parent directory, name is the book's directory name.
// Files are saved to baseDir/name.tmp and moved to baseDir/name on Commit.
func NewBookStore(baseDir, name string) *BookStore {
	return &BookStore{
		baseDir: baseDir,
		name:    name,
		Now:     time.Now,
	}
}

func (s *BookStore) tempDir() string {
	return filepath.Join(s.baseDir, s.name+".tmp")
}

func (s *BookStore) finalDir() string {
	return filepath.Join(s.baseDir, s.name)
}

// Dir returns the directory the book is committed to.
func (s *BookStore) Dir() string {
	return s.finalDir()
}

// SaveMetadata writes the book's index file.
func (s *BookStore) SaveMetadata(ctx context.Context, bookID string, meta *novelsrc.BookMetadata) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.write(IndexFile, FormatIndex(bookID, meta, s.Now()))
}

// SaveEpisode writes one episode file named after its position.
func (s *BookStore) SaveEpisode(ctx context.Context, position int, ch novelsrc.Chapter, ep *novelsrc.EpisodeContent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	name, err := EpisodePath(position, ch.EpisodeID)
	if err != nil {
		return err
	}
	return s.write(name, FormatEpisodeFile(position, ch, ep))
}

func (s *BookStore) write(name, content string) error {
	if err := os.MkdirAll(s.tempDir(), 0755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(s.tempDir(), name), []byte(content), 0644)
}

// Commit replaces the book directory with the saved files.
func (s *BookStore) Commit() error {
	// Remove existing final directory if present
	if err := os.RemoveAll(s.finalDir()); err != nil {
		return err
	}

	// Atomically rename temp to final
	if err := os.Rename(s.tempDir(), s.finalDir()); err != nil {
		return err
	}

	return nil
}

// Abort discards the saved files.
func (s *BookStore) Abort() error {
	return os.RemoveAll(s.tempDir())
}
