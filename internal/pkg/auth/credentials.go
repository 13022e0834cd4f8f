package auth

import (
	"crypto/rand"
	"math/big"
	"regexp"
	"strings"
)

const (
	passwordAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZabcdefghjkmnpqrstuvwxyz23456789!@#$%&*?"
	digits           = "0123456789"
)

var usernameStrip = regexp.MustCompile(`[^a-z0-9]+`)

// GenerateUsername derives a login name from a display name, e.g. "Ali Traders" => "alitraders4821"
func GenerateUsername(name string) (string, error) {
	base := usernameStrip.ReplaceAllString(strings.ToLower(name), "")
	if len(base) > 16 {
		base = base[:16]
	}
	if base == "" {
		base = "dealer"
	}

	suffix, err := randomString(digits, 4)
	if err != nil {
		return "", err
	}
	return base + suffix, nil
}

func randomString(alphabet string, n int) (string, error) {
	limit := big.NewInt(int64(len(alphabet)))
	var b strings.Builder
	b.Grow(n)
	for _i := 0; _i < n; _i++ {
		i, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", err
		}
		b.WriteByte(alphabet[i.Int64()])
	}
	return b.String(), nil
}
