package codeforces

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

// ErrInvalidLink is returned for links that do not point at a problem
var ErrInvalidLink = errors.New("invalid Codeforces problem link")

var indexPattern = regexp.MustCompile(`^[A-Z][1-9]?$`)

// ProblemRef is a parsed problem link
type ProblemRef struct {
	ContestID int
	Index     string
}

// ID returns the portal problem id, "<contest>-<index>"
func (r ProblemRef) ID() string {
	return fmt.Sprintf("%d-%s", r.ContestID, r.Index)
}

// ParseProblemLink accepts codeforces.com/contest/<id>/problem/<X> and
// codeforces.com/problemset/problem/<id>/<X>.
func ParseProblemLink(link string) (ProblemRef, error) {
	u, err := url.Parse(strings.TrimSpace(link))
	if err != nil {
		return ProblemRef{}, ErrInvalidLink
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	if host != "codeforces.com" {
		return ProblemRef{}, ErrInvalidLink
	}

	parts := strings.FieldsFunc(u.Path, func(r rune) bool { return r == '/' })
	var contest, index string
	switch {
	case len(parts) >= 4 && parts[0] == "contest" && parts[2] == "problem":
		contest, index = parts[1], parts[3]
	case len(parts) >= 4 && parts[0] == "problemset" && parts[1] == "problem":
		contest, index = parts[2], parts[3]
	default:
		return ProblemRef{}, ErrInvalidLink
	}

	id, err := strconv.Atoi(contest)
	if err != nil || id <= 0 {
		return ProblemRef{}, ErrInvalidLink
	}
	index = strings.ToUpper(index)
	if !indexPattern.MatchString(index) {
		return ProblemRef{}, ErrInvalidLink
	}
	return ProblemRef{ContestID: id, Index: index}, nil
}

// ParseProblemID splits "<contest>-<index>" (or "<contest><index>")
func ParseProblemID(id string) (ProblemRef, error) {
	id = strings.ToUpper(strings.ReplaceAll(id, "-", ""))
	i := strings.IndexFunc(id, func(r rune) bool { return r < '0' || r > '9' })
	if i <= 0 {
		return ProblemRef{}, ErrInvalidLink
	}
	contest, err := strconv.Atoi(id[:i])
	if err != nil || !indexPattern.MatchString(id[i:]) {
		return ProblemRef{}, ErrInvalidLink
	}
	return ProblemRef{ContestID: contest, Index: id[i:]}, nil
}
