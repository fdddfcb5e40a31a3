package crawl

import "fmt"

// FormatBytes formats bytes in human-readable form.
func FormatBytes(bytes int) string {
	const (
		KB = 1024
		MB = KB * 1024
	)
	switch {
	case bytes >= MB:
		return fmt.Sprintf("%.1f MB", float64(bytes)/float64(MB))
	case bytes >= KB:
		return fmt.Sprintf("%.1f KB", float64(bytes)/float64(KB))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}

// FormatChars formats a character count in human-readable form.
func FormatChars(chars int) string {
	if chars < 1000 {
		return fmt.Sprintf("%d chars", chars)
	}
	return fmt.Sprintf("%dk chars", (chars+500)/1000)
}
