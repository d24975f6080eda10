package codeforces

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/", time.Second)
}

// ============================================================================
// API calls
// ============================================================================

func TestUserStatus_DecodesSubmissions(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/user.status" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("handle") != "tourist" || q.Get("from") != "1" || q.Get("count") != "10" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`{"status":"OK","result":[{"id":99,"contestId":1408,"creationTimeSeconds":1700000000,
			"problem":{"contestId":1408,"index":"A","name":"Circle Coloring"},"verdict":"COMPILATION_ERROR"}]}`))
	})

	subs, err := c.UserStatus(context.Background(), "tourist", 1, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(subs) != 1 {
		t.Fatalf("expected 1 submission, got %d", len(subs))
	}
	s := subs[0]
	if s.ID != 99 || s.Problem.Index != "A" || s.Verdict != VerdictCompilationError {
		t.Errorf("unexpected submission %+v", s)
	}
	if !s.CreatedAt().Equal(time.Unix(1700000000, 0)) {
		t.Errorf("unexpected time %v", s.CreatedAt())
	}
}

func TestUserInfo_NotFound(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"status":"FAILED","comment":"handles: User with handle nobody not found"}`))
	})

	_, err := c.UserInfo(context.Background(), "nobody")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestCall_NonJSONIsUnavailable(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("<html>busy</html>"))
	})

	_, err := c.UserInfo(context.Background(), "tourist")
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable, got %v", err)
	}
}

func TestFindProblem_FallsBackToProblemset(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/contest.standings":
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"status":"FAILED","comment":"contestId: Contest is not started"}`))
		case "/problemset.problems":
			_, _ = w.Write([]byte(`{"status":"OK","result":{"problems":[{"contestId":1,"index":"A","name":"Theatre Square"}]}}`))
		}
	})

	p, err := c.FindProblem(context.Background(), 1, "A")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Name != "Theatre Square" {
		t.Errorf("unexpected problem %+v", p)
	}

	if _, err := c.FindProblem(context.Background(), 1, "Z"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestFindProblem_FromStandings(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/contest.standings" {
			t.Errorf("unexpected fallback to %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"status":"OK","result":{"problems":[{"index":"A","name":"One"},{"index":"B","name":"Two"}]}}`))
	})

	p, err := c.FindProblem(context.Background(), 2000, "B")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Name != "Two" || p.ContestID != 2000 {
		t.Errorf("unexpected problem %+v", p)
	}
}

// ============================================================================
// Links
// ============================================================================

func TestParseProblemLink(t *testing.T) {
	t.Parallel()

	tests := []struct {
		link    string
		want    string
		wantErr bool
	}{
		{"https://codeforces.com/contest/1408/problem/A", "1408-A", false},
		{"https://codeforces.com/problemset/problem/4/a", "4-A", false},
		{"https://www.codeforces.com/contest/1000/problem/F1", "1000-F1", false},
		{"https://codeforces.com/contest/abc/problem/A", "", true},
		{"https://example.com/contest/1/problem/A", "", true},
		{"https://codeforces.com/blog/entry/1", "", true},
		{"not a url", "", true},
	}
	for _, tt := range tests {
		ref, err := ParseProblemLink(tt.link)
		if tt.wantErr {
			if !errors.Is(err, ErrInvalidLink) {
				t.Errorf("%s: expected ErrInvalidLink, got %v", tt.link, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("%s: unexpected error %v", tt.link, err)
			continue
		}
		if ref.ID() != tt.want {
			t.Errorf("%s: expected %s, got %s", tt.link, tt.want, ref.ID())
		}
	}
}

func TestParseProblemID(t *testing.T) {
	t.Parallel()

	for _, id := range []string{"1408-A", "1408A", "1408-a"} {
		ref, err := ParseProblemID(id)
		if err != nil || ref.ContestID != 1408 || ref.Index != "A" {
			t.Errorf("%s: got %+v, %v", id, ref, err)
		}
	}
	if _, err := ParseProblemID("A"); err == nil {
		t.Error("expected error for missing contest")
	}
}
