// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package classify

import (
	"regexp"
	"sort"
	"strings"

	"github.com/pdiddy/iedi-engine/pkg/types"
)

// wordChar mirrors \w but over Unicode letters and digits, so that names
// ending in accented letters ("Itaú") still see a boundary after them.
const wordChar = `\p{L}\p{N}_`

// matcher tests text for any of an entity's names at word boundaries,
// case-insensitively.
type matcher struct {
	re *regexp.Regexp
}

// newMatcher compiles one pattern for all names of e. An entity without
// names gets a matcher that never matches.
func newMatcher(e types.Entity) *matcher {
	names := e.Names()
	if len(names) == 0 {
		return &matcher{}
	}
	// Longest first so the alternation prefers the most specific name.
	sort.SliceStable(names, func(i, j int) bool { return len(names[i]) > len(names[j]) })

	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = regexp.QuoteMeta(strings.TrimSpace(n))
	}
	pattern := `(?i)(?:^|[^` + wordChar + `])(?:` + strings.Join(quoted, "|") + `)(?:$|[^` + wordChar + `])`
	return &matcher{re: regexp.MustCompile(pattern)}
}

// In reports whether text mentions the entity.
func (m *matcher) In(text string) bool {
	if m.re == nil || text == "" {
		return false
	}
	return m.re.MatchString(text)
}

// matchesTag reports whether a taxonomy tag names e exactly, ignoring case.
func matchesTag(tag string, e types.Entity) bool {
	tag = strings.TrimSpace(tag)
	for _, n := range e.Names() {
		if strings.EqualFold(tag, strings.TrimSpace(n)) {
			return true
		}
	}
	return false
}
