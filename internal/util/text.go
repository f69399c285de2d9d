package util

import (
	"regexp"
	"strings"
)

var (
	whitespace = regexp.MustCompile(`\s+`)
	hashtagRe  = regexp.MustCompile(`#(\w+)`)
	mentionRe  = regexp.MustCompile(`@(\w+)`)
)

// NormalizeWhitespace trims and collapses whitespace to single spaces.
func NormalizeWhitespace(s string) string {
	return strings.TrimSpace(whitespace.ReplaceAllString(s, " "))
}

// ExtractHashtags returns the lowercased hashtags found in text,
// deduplicated, in first-seen order, without the leading '#'.
func ExtractHashtags(text string) []string {
	return extractTags(hashtagRe, text)
}

// ExtractMentions returns the lowercased @mentions found in text,
// deduplicated, in first-seen order, without the leading '@'.
func ExtractMentions(text string) []string {
	return extractTags(mentionRe, text)
}

func extractTags(re *regexp.Regexp, text string) []string {
	if text == "" {
		return nil
	}
	matches := re.FindAllStringSubmatch(strings.ToLower(text), -1)
	seen := make(map[string]struct{}, len(matches))
	var out []string
	for _, m := range matches {
		if _, ok := seen[m[1]]; ok {
			continue
		}
		seen[m[1]] = struct{}{}
		out = append(out, m[1])
	}
	return out
}

// ContainsAnyCaseInsensitive returns true if text contains any of the needles (case-insensitive).
func ContainsAnyCaseInsensitive(text string, needles []string) bool {
	lt := strings.ToLower(text)
	for _, n := range needles {
		if strings.Contains(lt, strings.ToLower(n)) {
			return true
		}
	}
	return false
}
