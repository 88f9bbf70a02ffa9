package declaration

import (
	"crypto/rand"
	"fmt"
	"io"
	"regexp"
	"time"
)

const (
	idPrefix     = "DECL-"
	idTimeLayout = "20060102-150405"
	suffixLen    = 5
	base36       = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

var idPattern = regexp.MustCompile(`^DECL-\d{8}-\d{6}-[0-9A-Z]{5}$`)

// NewID returns a declaration ID of the form DECL-YYYYMMDD-HHMMSS-XXXXX.
// The timestamp is UTC. The suffix is drawn from entropy, or crypto/rand
// when entropy is nil.
func NewID(now time.Time, entropy io.Reader) (string, error) {
	if entropy == nil {
		entropy = rand.Reader
	}
	suffix, err := randomBase36(entropy, suffixLen)
	if err != nil {
		return "", fmt.Errorf("failed to generate declaration id: %w", err)
	}
	return idPrefix + now.UTC().Format(idTimeLayout) + "-" + suffix, nil
}

// ValidID reports whether id has the declaration ID shape.
func ValidID(id string) bool {
	return idPattern.MatchString(id)
}

// randomBase36 rejects bytes at or above 252 so every character is equally likely.
func randomBase36(r io.Reader, n int) (string, error) {
	out := make([]byte, 0, n)
	buf := make([]byte, n*2)
	for len(out) < n {
		if _, err := io.ReadFull(r, buf); err != nil {
			return "", err
		}
		for _, b := range buf {
			if b >= 252 {
				continue
			}
			out = append(out, base36[int(b)%len(base36)])
			if len(out) == n {
				break
			}
		}
	}
	return string(out), nil
}
