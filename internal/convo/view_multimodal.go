package convo

import (
	"regexp"
	"strings"
)

// imageURLPattern matches an image URL by extension, with an optional query
// string, per §6's recognized extension list.
var imageURLPattern = regexp.MustCompile(`https?://\S+?\.(?:jpg|jpeg|png|gif|webp|svg)(?:\?\S*)?`)

// reservedHostSuffixes are hostname endings that mark a URL as a
// placeholder that must never be fetched/expanded (§6).
var reservedHostSuffixes = []string{".invalid", ".test", ".localhost"}

func isReservedHost(host string) bool {
	host = strings.ToLower(host)
	if host == "localhost" || host == "example.com" {
		return true
	}
	// *.example.*: any non-final label equal to "example".
	labels := strings.Split(host, ".")
	for _, l := range labels[:len(labels)-1] {
		if l == "example" {
			return true
		}
	}
	for _, suf := range reservedHostSuffixes {
		if strings.HasSuffix(host, suf) {
			return true
		}
	}
	return false
}

// applyMultimodalExpansion finds the most recent staged message whose role
// will be user and expands its text into [text, image(url)...] content when
// it contains non-placeholder image URLs (§4.4.4). Repair never reorders
// text relative to other text, so "most recent in the final output" is the
// same entry as "most recent among staged messages" found here.
func applyMultimodalExpansion(list []staged) {
	for i := len(list) - 1; i >= 0; i-- {
		s := &list[i]
		if s.isToolCall || s.msg.Role != MsgUser {
			continue
		}
		expandOne(s)
		return
	}
}

func expandOne(s *staged) {
	matches := imageURLPattern.FindAllStringIndex(s.msg.Text, -1)
	if len(matches) == 0 {
		return
	}
	var urls []string
	for _, m := range matches {
		url := s.msg.Text[m[0]:m[1]]
		if isReservedHost(hostOf(url)) {
			continue
		}
		urls = append(urls, url)
	}
	if len(urls) == 0 {
		return
	}
	parts := []ContentPart{{Text: s.msg.Text}}
	for _, u := range urls {
		parts = append(parts, ContentPart{ImageURL: u})
	}
	s.msg.Parts = parts
	s.msg.Text = ""
}

// hostOf extracts the hostname portion of a URL without importing net/url,
// which would choke on some of the deliberately malformed placeholder hosts
// this check exists to catch.
func hostOf(rawURL string) string {
	rest := rawURL
	if idx := strings.Index(rest, "://"); idx >= 0 {
		rest = rest[idx+3:]
	}
	if idx := strings.IndexAny(rest, "/?#"); idx >= 0 {
		rest = rest[:idx]
	}
	if idx := strings.Index(rest, "@"); idx >= 0 {
		rest = rest[idx+1:]
	}
	if idx := strings.LastIndex(rest, ":"); idx >= 0 {
		rest = rest[:idx]
	}
	return rest
}
