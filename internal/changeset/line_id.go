package changeset

import (
	"fmt"
	"math/rand/v2"
	"strconv"
	"time"
)

// now is replaced in tests.
var now = time.Now

// NewLineID mints a line id: 8 hex digits of Unix seconds, the last 6
// characters of the user id, four zeros and 8 random hex digits. Two
// editors never need to coordinate to avoid collisions.
func NewLineID(userID string) string {
	suffix := userID
	if len(suffix) > 6 {
		suffix = suffix[len(suffix)-6:]
	}
	return fmt.Sprintf("%08x%s0000%08x", now().Unix(), suffix, rand.Uint32())
}

// UnixTimeFromID decodes the creation time encoded in a line id.
func UnixTimeFromID(id string) (int64, error) {
	if len(id) < 8 {
		return 0, fmt.Errorf("line id %q is too short", id)
	}
	t, err := strconv.ParseInt(id[:8], 16, 64)
	if err != nil {
		return 0, fmt.Errorf("line id %q has no timestamp: %w", id, err)
	}
	return t, nil
}
