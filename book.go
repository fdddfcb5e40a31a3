package novelsrc

// DefaultEpisodeID identifies the only chapter of a single-chapter book.
const DefaultEpisodeID = "default"

// Chapter is one entry of a book's table of contents.
type Chapter struct {
	EpisodeID string `json:"episodeId"`
	Title     string `json:"title"`
}

// BookMetadata represents a book as published on a hosting site.
type BookMetadata struct {
	Title string `json:"title"`

	// Author is empty when the site shows no linked author.
	Author string `json:"author,omitempty"`

	// Introduction is the book's synopsis, including any folded part.
	Introduction string `json:"introduction,omitempty"`

	// Chapters are in the site's reading order across every ToC page.
	Chapters []Chapter `json:"chapters"`
}

// Validate returns an error if the metadata contains invalid fields.
func (m *BookMetadata) Validate() error {
	if m.Title == "" {
		return Errorf(EINVALID, "book title required")
	}
	if len(m.Chapters) == 0 {
		return Errorf(EINVALID, "book has no chapters")
	}
	seen := make(map[string]struct{}, len(m.Chapters))
	for _, ch := range m.Chapters {
		if ch.EpisodeID == "" {
			return Errorf(EINVALID, "chapter %q has no episode ID", ch.Title)
		}
		if _, ok := seen[ch.EpisodeID]; ok {
			return Errorf(EINVALID, "duplicate episode ID %q", ch.EpisodeID)
		}
		seen[ch.EpisodeID] = struct{}{}
	}
	return nil
}

// IsSingleChapter reports whether the book is a one-shot without episode numbering.
func (m *BookMetadata) IsSingleChapter() bool {
	return len(m.Chapters) == 1 && m.Chapters[0].EpisodeID == DefaultEpisodeID
}

// EpisodeContent is the normalized text of a single chapter.
type EpisodeContent struct {
	Title string `json:"title"`

	// Paragraphs are in reading order. Blank lines are kept as empty strings
	// and ruby annotations are flattened to "base(gloss)".
	Paragraphs []string `json:"paragraphs"`
}

// Validate returns an error if the episode contains no content.
func (e *EpisodeContent) Validate() error {
	if e.Title == "" && len(e.Paragraphs) == 0 {
		return Errorf(EINVALID, "episode has neither title nor body")
	}
	return nil
}
