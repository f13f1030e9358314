package user

import (
	"fmt"
	"strings"
	"time"
	"unicode"
)

// UniqueURL derives the public profile slug from a display name: lowercase,
// whitespace collapsed to hyphens, non-alphanumerics stripped, with a unix
// millisecond suffix to keep slugs unique across users sharing a name.
func UniqueURL(fullName string) string {
	return fmt.Sprintf("%s-%d", slugify(fullName), time.Now().UnixMilli())
}

func slugify(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	lastHyphen := true // suppress a leading hyphen
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastHyphen = false
		case !lastHyphen:
			b.WriteByte('-')
			lastHyphen = true
		}
	}

	return strings.TrimSuffix(b.String(), "-")
}
