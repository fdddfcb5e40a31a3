// Package fs provides file-based storage for downloaded books.
package fs

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/fwojciec/novelsrc"
)

// IndexFile is the name of the book's metadata file.
const IndexFile = "index.md"

// EpisodePath returns the file name for the episode at position (1-based).
// Names sort in chapter order, e.g. "0003-16816700429191679071.txt".
func EpisodePath(position int, episodeID string) (string, error) {
	if position < 1 {
		return "", novelsrc.Errorf(novelsrc.EINVALID, "episode position must be positive, got %d", position)
	}
	if episodeID == "" || episodeID == "." || episodeID == ".." ||
		strings.ContainsAny(episodeID, `/\`) || strings.Contains(episodeID, "..") {
		return "", novelsrc.Errorf(novelsrc.EINVALID, "path traversal in episode ID %q", episodeID)
	}
	return fmt.Sprintf("%04d-%s.txt", position, episodeID), nil
}

// FormatIndex formats book metadata with YAML frontmatter.
func FormatIndex(bookID string, meta *novelsrc.BookMetadata, downloaded time.Time) string {
	var b strings.Builder
	b.WriteString("---\n")
	b.WriteString("book: ")
	b.WriteString(bookID)
	b.WriteString("\ntitle: ")
	b.WriteString(meta.Title)
	if meta.Author != "" {
		b.WriteString("\nauthor: ")
		b.WriteString(meta.Author)
	}
	b.WriteString("\nepisodes: ")
	b.WriteString(strconv.Itoa(len(meta.Chapters)))
	b.WriteString("\ndownloaded: ")
	b.WriteString(downloaded.Format("2006-01-02"))
	b.WriteString("\n---\n\n")
	b.WriteString(novelsrc.FormatMetadata(meta))
	return b.String()
}

// FormatEpisodeFile formats an episode with YAML frontmatter.
func FormatEpisodeFile(position int, ch novelsrc.Chapter, ep *novelsrc.EpisodeContent) string {
	var b strings.Builder
	b.WriteString("---\n")
	b.WriteString("episode: ")
	b.WriteString(ch.EpisodeID)
	b.WriteString("\nposition: ")
	b.WriteString(strconv.Itoa(position))
	b.WriteString("\ntitle: ")
	b.WriteString(ch.Title)
	b.WriteString("\n---\n\n")
	b.WriteString(novelsrc.FormatEpisode(ep))
	b.WriteString("\n")
	return b.String()
}
