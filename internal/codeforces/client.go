// Package codeforces is a client for the public Codeforces API.
package codeforces

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrNotFound is returned when the API reports an unknown handle or contest
	ErrNotFound = errors.New("codeforces: not found")
	// ErrUnavailable is returned for transport failures and FAILED responses
	ErrUnavailable = errors.New("codeforces: unavailable")
)

// Verdicts used by the portal
const (
	VerdictOK               = "OK"
	VerdictCompilationError = "COMPILATION_ERROR"
)

// Problem identifies a problem within a contest
type Problem struct {
	ContestID int      `json:"contestId"`
	Index     string   `json:"index"`
	Name      string   `json:"name"`
	Rating    int      `json:"rating,omitempty"`
	Tags      []string `json:"tags,omitempty"`
}

// Party is the submitting side of a submission
type Party struct {
	Members []struct {
		Handle string `json:"handle"`
	} `json:"members"`
}

// Submission is a single judged submission
type Submission struct {
	ID                  int64   `json:"id"`
	ContestID           int     `json:"contestId"`
	CreationTimeSeconds int64   `json:"creationTimeSeconds"`
	Problem             Problem `json:"problem"`
	Author              Party   `json:"author"`
	ProgrammingLanguage string  `json:"programmingLanguage"`
	Verdict             string  `json:"verdict"`
}

// CreatedAt returns the submission time
func (s Submission) CreatedAt() time.Time {
	return time.Unix(s.CreationTimeSeconds, 0)
}

// User is a Codeforces account
type User struct {
	Handle    string `json:"handle"`
	Rank      string `json:"rank"`
	Rating    int    `json:"rating"`
	MaxRank   string `json:"maxRank"`
	MaxRating int    `json:"maxRating"`
}

type envelope struct {
	Status  string          `json:"status"`
	Comment string          `json:"comment"`
	Result  json.RawMessage `json:"result"`
}

// Client calls the Codeforces API
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for baseURL (e.g. https://codeforces.com/api)
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// UserStatus returns a user's most recent submissions, newest first
func (c *Client) UserStatus(ctx context.Context, handle string, from, count int) ([]Submission, error) {
	var out []Submission
	err := c.call(ctx, "user.status", url.Values{
		"handle": {handle},
		"from":   {strconv.Itoa(from)},
		"count":  {strconv.Itoa(count)},
	}, &out)
	return out, err
}

// UserInfo returns rank and rating for handle
func (c *Client) UserInfo(ctx context.Context, handle string) (*User, error) {
	var out []User
	if err := c.call(ctx, "user.info", url.Values{"handles": {handle}}, &out); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, ErrNotFound
	}
	return &out[0], nil
}

// ContestStatus returns a user's submissions in a contest
func (c *Client) ContestStatus(ctx context.Context, contestID int, handle string) ([]Submission, error) {
	var out []Submission
	err := c.call(ctx, "contest.status", url.Values{
		"contestId": {strconv.Itoa(contestID)},
		"handle":    {handle},
	}, &out)
	return out, err
}

// ContestProblems returns the problem list of a contest
func (c *Client) ContestProblems(ctx context.Context, contestID int) ([]Problem, error) {
	var out struct {
		Problems []Problem `json:"problems"`
	}
	err := c.call(ctx, "contest.standings", url.Values{
		"contestId":      {strconv.Itoa(contestID)},
		"from":           {"1"},
		"count":          {"1"},
		"showUnofficial": {"true"},
	}, &out)
	return out.Problems, err
}

// ProblemsetProblems returns the full problemset
func (c *Client) ProblemsetProblems(ctx context.Context) ([]Problem, error) {
	var out struct {
		Problems []Problem `json:"problems"`
	}
	err := c.call(ctx, "problemset.problems", nil, &out)
	return out.Problems, err
}

// FindProblem looks a problem up in the contest standings, falling back to
// the problemset when the contest is unavailable. Returns ErrNotFound when
// neither lists it.
func (c *Client) FindProblem(ctx context.Context, contestID int, index string) (*Problem, error) {
	problems, err := c.ContestProblems(ctx, contestID)
	if err == nil {
		for _, p := range problems {
			if p.Index == index {
				p.ContestID = contestID
				return &p, nil
			}
		}
	}

	all, err := c.ProblemsetProblems(ctx)
	if err != nil {
		return nil, err
	}
	for _, p := range all {
		if p.ContestID == contestID && p.Index == index {
			return &p, nil
		}
	}
	return nil, ErrNotFound
}

func (c *Client) call(ctx context.Context, method string, params url.Values, out interface{}) error {
	endpoint := c.baseURL + "/" + method
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrUnavailable, method, err)
	}
	defer resp.Body.Close()

	// FAILED responses come back as 400 with a JSON body.
	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("%w: %s: status %d", ErrUnavailable, method, resp.StatusCode)
	}
	if env.Status != "OK" {
		if strings.Contains(strings.ToLower(env.Comment), "not found") {
			return fmt.Errorf("%w: %s", ErrNotFound, env.Comment)
		}
		return fmt.Errorf("%w: %s: %s", ErrUnavailable, method, env.Comment)
	}

	if err := json.Unmarshal(env.Result, out); err != nil {
		return fmt.Errorf("%w: %s: decode result: %v", ErrUnavailable, method, err)
	}
	return nil
}
