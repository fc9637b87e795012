package domain

import (
	"sort"
	"strings"
)

// CleanScopes returns the canonical form of a scope set: sorted, without
// duplicates, without empty entries and without any id listed in exclude.
// The result is never nil so that cleaned sets always serialize as [].
func CleanScopes(scopes []string, exclude ...string) []string {
	out := make([]string, 0, len(scopes))
	if len(scopes) == 0 {
		return out
	}

	skip := make(map[string]struct{}, len(exclude))
	for _, e := range exclude {
		skip[e] = struct{}{}
	}

	seen := make(map[string]struct{}, len(scopes))
	for _, s := range scopes {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, ok := skip[s]; ok {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// CleanScopesFunc is CleanScopes with a predicate instead of an exclude list.
func CleanScopesFunc(scopes []string, drop func(string) bool) []string {
	cleaned := CleanScopes(scopes)
	if drop == nil {
		return cleaned
	}
	out := cleaned[:0]
	for _, s := range cleaned {
		if !drop(s) {
			out = append(out, s)
		}
	}
	return out
}

// ScopeKey renders a scope set as a string usable for equality checks.
// Two sets with the same members in any order yield the same key.
func ScopeKey(scopes []string) string {
	return strings.Join(CleanScopes(scopes), "\x1f")
}

// ScopesEqual reports whether a and b hold the same members.
func ScopesEqual(a, b []string) bool {
	return ScopeKey(a) == ScopeKey(b)
}

// IsSubset reports whether every member of a is also in b.
func IsSubset(a, b []string) bool {
	if len(a) == 0 {
		return true
	}
	members := make(map[string]struct{}, len(b))
	for _, s := range b {
		members[s] = struct{}{}
	}
	for _, s := range a {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, ok := members[s]; !ok {
			return false
		}
	}
	return true
}
