package sanitizer

import (
	"regexp"
	"strings"
)

type Strategy func(string) string

type Pipeline []Strategy

func (p Pipeline) Apply(s string) string {
	for _, fn := range p {
		s = fn(s)
	}
	return s
}

var (
	reWhitespace  = regexp.MustCompile(`\s+`)
	reTagAllowed  = regexp.MustCompile(`[^0-9A-Za-z_\-]+`)
	reNameAllowed = regexp.MustCompile(`[^\p{L}\p{N} '\-.]+`)
)

func trim(s string) string {
	return strings.TrimSpace(s)
}

func lower(s string) string {
	return strings.ToLower(s)
}

func collapseWhitespace(s string) string {
	return reWhitespace.ReplaceAllString(s, " ")
}

// NameKey is the case-insensitive lookup key for a display name.
func NameKey(name string) string {
	return Pipeline{
		trim,
		func(s string) string { return reNameAllowed.ReplaceAllString(s, "") },
		collapseWhitespace,
		trim,
		lower,
	}.Apply(name)
}

// DisplayName tidies a name for messages without changing its case.
func DisplayName(name string) string {
	return Pipeline{trim, collapseWhitespace}.Apply(name)
}

// Tag strips everything but letters, digits, '-' and '_'. Tags are case
// sensitive.
func Tag(tag string) string {
	return Pipeline{
		trim,
		func(s string) string { return reTagAllowed.ReplaceAllString(s, "") },
	}.Apply(tag)
}

func Email(email string) string {
	return Pipeline{trim, lower}.Apply(email)
}
