package service

import (
	"context"
	"regexp"
	"strings"
	"unicode"

	"github.com/Harshitk-cp/topicgraph/internal/domain"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	domainPattern = regexp.MustCompile(`(?i)^[a-z0-9][a-z0-9-]*(\.[a-z0-9-]+)*\.[a-z]{2,}(/|$)`)
	userPattern   = regexp.MustCompile(`(?i)^[^@/\s]+@[a-z0-9-]+(\.[a-z0-9-]+)*\.[a-z]{2,}$`)
)

// letters that NFKD does not decompose into an ASCII base
var transliterations = map[rune]string{
	'ø': "o", 'Ø': "o", 'æ': "ae", 'Æ': "ae", 'ß': "ss",
	'đ': "d", 'Đ': "d", 'ł': "l", 'Ł': "l", 'þ': "th", 'Þ': "th", 'ð': "d", 'Ð': "d",
}

// ExistsFunc reports whether a topic with the given id is known.
type ExistsFunc func(ctx context.Context, id string) (bool, error)

// IsQualified reports whether candidate already is a full topic id,
// either namespaced under a domain or a user@domain identity.
func IsQualified(candidate string) bool {
	return domainPattern.MatchString(candidate) || userPattern.MatchString(candidate)
}

// Basify resolves candidate to a fully-qualified topic id. Unqualified
// candidates are joined with each base in order and the first existing id
// wins; when none exists the last base is used, so first-time creation is
// reproducible. Candidates ending in the user marker are joined as
// name@host instead of as a path.
func Basify(ctx context.Context, candidate string, bases []string, exists ExistsFunc) (string, error) {
	if strings.TrimSpace(candidate) == "" {
		return "", domain.NewValidationError("id", "cannot resolve an empty id")
	}
	if IsQualified(candidate) || len(bases) == 0 {
		return candidate, nil
	}

	user := strings.HasSuffix(candidate, domain.UserMarker)
	if exists != nil {
		for _, base := range bases[:len(bases)-1] {
			id := joinBase(base, candidate, user)
			ok, err := exists(ctx, id)
			if err != nil {
				return "", err
			}
			if ok {
				return id, nil
			}
		}
	}
	return joinBase(bases[len(bases)-1], candidate, user), nil
}

func joinBase(base, candidate string, user bool) string {
	if user {
		host, _, _ := strings.Cut(strings.TrimLeft(base, "/"), "/")
		if host == "" {
			return candidate
		}
		return strings.TrimSuffix(candidate, domain.UserMarker) + "@" + host
	}
	base = strings.TrimRight(base, "/")
	candidate = strings.TrimLeft(candidate, "/")
	if base == "" {
		return candidate
	}
	return base + "/" + candidate
}

var stripMarks = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Slugify restricts s to lowercase ASCII letters, digits and the id
// punctuation "-_./@". Other runs of characters collapse into a single "-".
func Slugify(s string) string {
	var pre strings.Builder
	for _, r := range s {
		if t, ok := transliterations[r]; ok {
			pre.WriteString(t)
			continue
		}
		pre.WriteRune(r)
	}
	ascii, _, err := transform.String(stripMarks, pre.String())
	if err != nil {
		ascii = pre.String()
	}

	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(ascii) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', strings.ContainsRune("_./@", r):
			b.WriteRune(r)
			dash = false
		default:
			if !dash && b.Len() > 0 {
				b.WriteByte('-')
				dash = true
			}
		}
	}
	return strings.Trim(b.String(), "-/")
}
