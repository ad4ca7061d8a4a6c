package models

import "encoding/json"

// SourceKind discriminates the parsed shape of a document's source column.
type SourceKind int

const (
	SourceNone SourceKind = iota
	SourceSingleURL
	SourceURLList
	SourceRawOpaque
)

// Source is the parsed origin of a document: a single URL, a list of URLs,
// or an opaque string that could not be parsed as JSON. The column stores a
// JSON-encoded value; malformed values degrade to RawOpaque rather than
// failing the save.
type Source struct {
	Kind SourceKind
	URL  string
	URLs []string
	Raw  string
}

// ParseSource decodes the stored source column.
func ParseSource(stored string) Source {
	if stored == "" {
		return Source{Kind: SourceNone}
	}

	var list []string
	if err := json.Unmarshal([]byte(stored), &list); err == nil {
		return Source{Kind: SourceURLList, URLs: list}
	}

	var single string
	if err := json.Unmarshal([]byte(stored), &single); err == nil {
		return Source{Kind: SourceSingleURL, URL: single}
	}

	return Source{Kind: SourceRawOpaque, Raw: stored}
}

// SourceFromURLs builds a list-shaped source.
func SourceFromURLs(urls []string) Source {
	if len(urls) == 0 {
		return Source{Kind: SourceNone}
	}
	return Source{Kind: SourceURLList, URLs: urls}
}

// SourceFromString builds a source from a single crawler-reported value. A
// value that is already valid JSON is preserved as-is on encode.
func SourceFromString(value string) Source {
	if value == "" {
		return Source{Kind: SourceNone}
	}
	if json.Valid([]byte(value)) {
		return ParseSource(value)
	}
	return Source{Kind: SourceSingleURL, URL: value}
}

// Encode serializes the source for storage.
func (s Source) Encode() string {
	switch s.Kind {
	case SourceNone:
		return ""
	case SourceSingleURL:
		encoded, err := json.Marshal(s.URL)
		if err != nil {
			return ""
		}
		return string(encoded)
	case SourceURLList:
		encoded, err := json.Marshal(s.URLs)
		if err != nil {
			return ""
		}
		return string(encoded)
	default:
		return s.Raw
	}
}

// Primary returns the first origin URL, or "" when none is known.
func (s Source) Primary() string {
	switch s.Kind {
	case SourceSingleURL:
		return s.URL
	case SourceURLList:
		if len(s.URLs) > 0 {
			return s.URLs[0]
		}
		return ""
	case SourceRawOpaque:
		return s.Raw
	default:
		return ""
	}
}
