package novelsrc

import (
	"strconv"
	"strings"
)

// FormatEpisode formats an episode as plain text.
// The title is followed by a blank line and one paragraph per line.
func FormatEpisode(ep *EpisodeContent) string {
	if ep == nil {
		return ""
	}

	var b strings.Builder
	if ep.Title != "" {
		b.WriteString(ep.Title)
		b.WriteString("\n\n")
	}
	b.WriteString(strings.Join(ep.Paragraphs, "\n"))
	return b.String()
}

// FormatMetadata formats book metadata as a human-readable listing.
// Chapters are numbered from 1 and annotated with their episode ID.
func FormatMetadata(meta *BookMetadata) string {
	if meta == nil {
		return ""
	}

	var b strings.Builder
	b.WriteString(meta.Title)
	b.WriteString("\n")
	if meta.Author != "" {
		b.WriteString("by ")
		b.WriteString(meta.Author)
		b.WriteString("\n")
	}
	if meta.Introduction != "" {
		b.WriteString("\n")
		b.WriteString(meta.Introduction)
		b.WriteString("\n")
	}
	b.WriteString("\n")
	for i, ch := range meta.Chapters {
		b.WriteString("  ")
		b.WriteString(strconv.Itoa(i + 1))
		b.WriteString(". ")
		b.WriteString(ch.Title)
		b.WriteString(" [")
		b.WriteString(ch.EpisodeID)
		b.WriteString("]\n")
	}
	return b.String()
}
