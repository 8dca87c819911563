package server

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
)

// KindMatcher decides whether the product types reported by a server are
// acceptable. It either holds a set of exact product types or a pattern that
// must match a whole reported type. The zero value matches nothing
type KindMatcher struct {
	kinds   []ProductType
	expr    string
	pattern *regexp.Regexp
}

// ExactKinds matches servers reporting any of the given product types
func ExactKinds(kinds ...ProductType) KindMatcher {
	var m KindMatcher
	for _, k := range kinds {
		if !slices.Contains(m.kinds, k) {
			m.kinds = append(m.kinds, k)
		}
	}
	return m
}

// KindPattern matches servers reporting a product type matched in full by
// expr. Useful for connectors, which report types such as FILESYSTEM_CONNECTOR
func KindPattern(expr string) (KindMatcher, error) {
	re, err := regexp.Compile(`^(?:` + expr + `)$`)
	if err != nil {
		return KindMatcher{}, fmt.Errorf("invalid product type pattern %q: %w", expr, err)
	}
	return KindMatcher{expr: expr, pattern: re}, nil
}

// MustKindPattern is like KindPattern but panics if expr does not compile
func MustKindPattern(expr string) KindMatcher {
	m, err := KindPattern(expr)
	if err != nil {
		panic(err)
	}
	return m
}

// IsPattern reports whether the matcher uses a pattern
func (m KindMatcher) IsPattern() bool {
	return m.pattern != nil
}

// IsZero reports whether the matcher is unset
func (m KindMatcher) IsZero() bool {
	return m.pattern == nil && len(m.kinds) == 0
}

// Kinds returns the exact product types, nil for a pattern matcher
func (m KindMatcher) Kinds() []ProductType {
	return slices.Clone(m.kinds)
}

// Pattern returns the pattern as written, "" for an exact matcher
func (m KindMatcher) Pattern() string {
	return m.expr
}

// Matches reports whether any of the reported product types is acceptable
func (m KindMatcher) Matches(reported []string) bool {
	for _, r := range reported {
		if m.pattern != nil {
			if m.pattern.MatchString(r) {
				return true
			}
			continue
		}
		if slices.Contains(m.kinds, ProductType(r)) {
			return true
		}
	}
	return false
}

// FriendlyNames returns the friendly names of the exact product types
func (m KindMatcher) FriendlyNames() []string {
	names := make([]string, 0, len(m.kinds))
	for _, k := range m.kinds {
		names = append(names, k.FriendlyName())
	}
	return names
}

func (m KindMatcher) String() string {
	if m.pattern != nil {
		return "/" + m.expr + "/"
	}
	tags := make([]string, 0, len(m.kinds))
	for _, k := range m.kinds {
		tags = append(tags, string(k))
	}
	return strings.Join(tags, ",")
}
