package pollinations

import (
	"net/url"
	"strings"
)

// Query is an insertion-ordered query string. The API does not care about
// order, but echoed URLs are easier to read with model first.
type Query struct {
	keys   []string
	values []string
}

// Set adds key or replaces its value in place.
func (q *Query) Set(key, value string) {
	for i, k := range q.keys {
		if k == key {
			q.values[i] = value
			return
		}
	}
	q.keys = append(q.keys, key)
	q.values = append(q.values, value)
}

// Get returns the value for key.
func (q *Query) Get(key string) (string, bool) {
	for i, k := range q.keys {
		if k == key {
			return q.values[i], true
		}
	}
	return "", false
}

func (q *Query) Len() int {
	return len(q.keys)
}

// Encode serializes the pairs in insertion order, form-encoded.
func (q *Query) Encode() string {
	var sb strings.Builder
	for i, k := range q.keys {
		if i > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(url.QueryEscape(k))
		sb.WriteByte('=')
		sb.WriteString(url.QueryEscape(q.values[i]))
	}
	return sb.String()
}

// componentUnescape restores the marks that encodeURIComponent leaves as is
// but url.QueryEscape escapes. Spaces become %20 rather than +.
var componentUnescape = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

// EncodeComponent escapes s for use as a single path segment, the way
// encodeURIComponent does: letters, digits and -_.!~*'() stay literal and
// everything else is percent-encoded.
func EncodeComponent(s string) string {
	return componentUnescape.Replace(url.QueryEscape(s))
}
