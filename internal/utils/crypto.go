// internal/utils/crypto.go
package utils

import (
	"crypto/rand"
	"math/big"
	"regexp"
	"strings"
)

var nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)

func GenerateRandomString(length int) (string, error) {
	const charset = "abcdefghijklmnopqrstuvwxyz0123456789"
	b := make([]byte, length)

	for i := range b {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		b[i] = charset[n.Int64()]
	}

	return string(b), nil
}

// Slugify lowercases s and joins its ASCII alphanumeric runs with hyphens.
// Titles with no ASCII letters or digits get a random "post-" slug.
func Slugify(s string) (string, error) {
	slug := strings.Trim(nonSlugChars.ReplaceAllString(strings.ToLower(s), "-"), "-")
	if len(slug) > 180 {
		slug = strings.TrimRight(slug[:180], "-")
	}
	if slug != "" {
		return slug, nil
	}

	suffix, err := GenerateRandomString(8)
	if err != nil {
		return "", err
	}
	return "post-" + suffix, nil
}
