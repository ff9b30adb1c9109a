package docstore

import (
	"fmt"
	"strings"
)

const forbiddenKeyChars = ".#$[]"

// Path is a parsed store location: a collection, an optional row key and an optional
// path of child keys inside that row.
type Path struct {
	Collection string
	Key        string
	Nested     []string
}

// ParsePath splits a slash separated location. Leading and trailing slashes are ignored;
// empty or malformed segments are rejected.
func ParsePath(raw string) (Path, error) {
	trimmed := strings.Trim(strings.TrimSpace(raw), "/")
	if trimmed == "" {
		return Path{}, fmt.Errorf("%w: empty path", ErrInvalidPath)
	}
	segments := strings.Split(trimmed, "/")
	for _, seg := range segments {
		if err := validateSegment(seg); err != nil {
			return Path{}, err
		}
	}
	p := Path{Collection: segments[0]}
	if len(segments) > 1 {
		p.Key = segments[1]
	}
	if len(segments) > 2 {
		p.Nested = segments[2:]
	}
	return p, nil
}

// Join builds a path string from segments.
func Join(segments ...string) string {
	return strings.Join(segments, "/")
}

// IsCollection reports whether the path addresses a whole collection.
func (p Path) IsCollection() bool { return p.Key == "" }

// IsRow reports whether the path addresses exactly one row.
func (p Path) IsRow() bool { return p.Key != "" && len(p.Nested) == 0 }

// Segments returns every segment of the path in order.
func (p Path) Segments() []string {
	segments := []string{p.Collection}
	if p.Key != "" {
		segments = append(segments, p.Key)
	}
	return append(segments, p.Nested...)
}

// String renders the path back into its slash separated form.
func (p Path) String() string {
	return Join(p.Segments()...)
}

// Child returns the path extended with key.
func (p Path) Child(key string) Path {
	if p.Key == "" {
		return Path{Collection: p.Collection, Key: key}
	}
	nested := make([]string, 0, len(p.Nested)+1)
	nested = append(nested, p.Nested...)
	return Path{Collection: p.Collection, Key: p.Key, Nested: append(nested, key)}
}

func validateSegment(seg string) error {
	if strings.TrimSpace(seg) == "" {
		return fmt.Errorf("%w: empty segment", ErrInvalidPath)
	}
	if strings.ContainsAny(seg, forbiddenKeyChars) {
		return fmt.Errorf("%w: segment %q contains one of %q", ErrInvalidPath, seg, forbiddenKeyChars)
	}
	return nil
}
