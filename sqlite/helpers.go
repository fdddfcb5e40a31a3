package sqlite

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/cespare/xxhash/v2"
)

// timeFormat is a fixed-width RFC3339 layout so stored timestamps sort
// lexically in time order.
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// parseRFC3339 parses an RFC3339 formatted timestamp string.
// Returns an error if parsing fails with a descriptive message including the field name.
func parseRFC3339(value, fieldName string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse %s: %w", fieldName, err)
	}
	return t, nil
}

// hashContent computes xxHash of content and returns hex string.
func hashContent(content string) string {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], xxhash.Sum64String(content))
	return hex.EncodeToString(b[:])
}
