package github

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Kavirubc/gitscout/internal/logging"
	"github.com/Kavirubc/gitscout/pkg/models"
)

func TestBuildQuery(t *testing.T) {
	tests := []struct {
		name   string
		filter models.Filter
		want   string
	}{
		{
			name:   "empty filter is label only",
			filter: models.Filter{},
			want:   `label:"good first issue"`,
		},
		{
			name:   "org expands to org and user",
			filter: models.Filter{Organizations: []string{"golang"}},
			want:   `org:golang user:golang label:"good first issue"`,
		},
		{
			name: "orgs and languages",
			filter: models.Filter{
				Organizations: []string{"cli", "charmbracelet"},
				Languages:     []string{"go", "typescript"},
			},
			want: `org:cli user:cli org:charmbracelet user:charmbracelet language:go language:typescript label:"good first issue"`,
		},
		{
			name:   "duplicates are kept",
			filter: models.Filter{Languages: []string{"go", "go"}},
			want:   `language:go language:go label:"good first issue"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BuildQuery(tt.filter); got != tt.want {
				t.Errorf("BuildQuery() = %q, want %q", got, tt.want)
			}
		})
	}
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(Options{
		Host:      "github.com",
		APIURL:    srv.URL,
		Token:     "test-token",
		Transport: srv.Client().Transport,
	}, logging.Discard())
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	return c
}

func TestSearch(t *testing.T) {
	var gotQuery map[string]string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search/issues" {
			t.Errorf("path = %s, want /search/issues", r.URL.Path)
		}
		q := r.URL.Query()
		gotQuery = map[string]string{
			"q":        q.Get("q"),
			"sort":     q.Get("sort"),
			"order":    q.Get("order"),
			"per_page": q.Get("per_page"),
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"total_count": 2, "items": [
			{"id": 11, "number": 1, "title": "first", "html_url": "https://github.com/o/r/issues/1",
			 "repository_url": "https://api.github.com/repos/o/r", "state": "open", "body": null},
			{"id": 12, "number": 2, "title": "second", "state": "open"}
		]}`)
	})

	items, err := c.Search(context.Background(), models.Filter{
		Organizations: []string{"o"},
		Languages:     []string{"go"},
	})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}

	want := map[string]string{
		"q":        `org:o user:o language:go label:"good first issue"`,
		"sort":     "updated",
		"order":    "desc",
		"per_page": "50",
	}
	for k, v := range want {
		if gotQuery[k] != v {
			t.Errorf("query %s = %q, want %q", k, gotQuery[k], v)
		}
	}

	if len(items) != 2 {
		t.Fatalf("len(items) = %d, want 2", len(items))
	}
	if items[0].ID != 11 || items[0].RepoFullName() != "o/r" {
		t.Errorf("items[0] = %+v", items[0])
	}
	if items[1].ID != 12 {
		t.Errorf("items[1].ID = %d, want 12 (order preserved)", items[1].ID)
	}
}

func TestSearch_CapsPageSize(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		resp := searchResponse{}
		for i := 1; i <= SearchPageSize+10; i++ {
			resp.Items = append(resp.Items, models.Item{ID: int64(i)})
		}
		json.NewEncoder(w).Encode(resp)
	})

	items, err := c.Search(context.Background(), models.Filter{})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(items) != SearchPageSize {
		t.Errorf("len(items) = %d, want %d", len(items), SearchPageSize)
	}
}

func TestSearch_UpstreamError(t *testing.T) {
	tests := []struct {
		name   string
		status int
	}{
		{"rate limited", http.StatusForbidden},
		{"validation failed", http.StatusUnprocessableEntity},
		{"server error", http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				fmt.Fprint(w, `{"message": "nope"}`)
			})

			items, err := c.Search(context.Background(), models.Filter{})
			if err == nil {
				t.Fatalf("Search() error = nil, want error for status %d", tt.status)
			}
			if items != nil {
				t.Errorf("Search() items = %v, want nil on error", items)
			}
		})
	}
}

func TestSearch_EmptyResult(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"total_count": 0, "items": []}`)
	})

	items, err := c.Search(context.Background(), models.Filter{})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if items == nil || len(items) != 0 {
		t.Errorf("Search() = %v, want empty non-nil slice", items)
	}
}
