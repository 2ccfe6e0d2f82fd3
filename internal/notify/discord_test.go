package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Kavirubc/gitscout/internal/logging"
	"github.com/Kavirubc/gitscout/pkg/models"
)

func makeItems(n int) []models.Item {
	items := make([]models.Item, n)
	for i := range items {
		items[i] = models.Item{
			ID:            int64(i + 1),
			Title:         "issue " + string(rune('A'+i)),
			HTMLURL:       "https://github.com/o/r/issues/1",
			RepositoryURL: "https://api.github.com/repos/o/r",
			State:         "open",
		}
	}
	return items
}

func TestBuildPayload_SevenItems(t *testing.T) {
	p := BuildPayload(makeItems(7))

	if !strings.Contains(p.Content, "Found 7 new") {
		t.Errorf("Content = %q, want count 7", p.Content)
	}
	if len(p.Embeds) != 5 {
		t.Fatalf("len(Embeds) = %d, want 5", len(p.Embeds))
	}
	for i, e := range p.Embeds {
		want := "issue " + string(rune('A'+i))
		if e.Title != want {
			t.Errorf("Embeds[%d].Title = %q, want %q", i, e.Title, want)
		}
	}
}

func TestBuildPayload_Singular(t *testing.T) {
	p := BuildPayload(makeItems(1))
	if !strings.HasSuffix(p.Content, "'good first issue'!") {
		t.Errorf("Content = %q, want singular form", p.Content)
	}
}

func TestBuildPayload_Description(t *testing.T) {
	item := models.Item{
		RepositoryURL: "https://api.github.com/repos/golang/go",
		State:         "open",
		Body:          strings.Repeat("é", 250),
	}
	p := BuildPayload([]models.Item{item})
	desc := p.Embeds[0].Description

	if !strings.HasPrefix(desc, "Repo: golang/go\nState: open\n\n") {
		t.Errorf("Description prefix = %q", desc)
	}
	body := strings.TrimPrefix(desc, "Repo: golang/go\nState: open\n\n")
	body = strings.TrimSuffix(body, "...")
	if n := len([]rune(body)); n != maxBodyLen {
		t.Errorf("body length = %d runes, want %d", n, maxBodyLen)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 200); got != "short" {
		t.Errorf("truncate(short) = %q", got)
	}
	if got := truncate("abcdef", 3); got != "abc..." {
		t.Errorf("truncate(abcdef, 3) = %q, want abc...", got)
	}
}

func TestNotify_NoOp(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	d := NewDiscord(time.Second, logging.Discard())
	ctx := context.Background()

	if err := d.Notify(ctx, models.NotificationTarget{}, makeItems(3)); err != nil {
		t.Errorf("Notify(no target) error = %v", err)
	}
	if err := d.Notify(ctx, models.NotificationTarget{WebhookURL: srv.URL}, nil); err != nil {
		t.Errorf("Notify(no items) error = %v", err)
	}
	if calls.Load() != 0 {
		t.Errorf("webhook called %d times, want 0", calls.Load())
	}
}

func TestNotify_Delivers(t *testing.T) {
	var got Payload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	d := NewDiscord(time.Second, logging.Discard())
	if err := d.Notify(context.Background(), models.NotificationTarget{WebhookURL: srv.URL}, makeItems(7)); err != nil {
		t.Fatalf("Notify() error = %v", err)
	}

	if len(got.Embeds) != 5 || !strings.Contains(got.Content, "7") {
		t.Errorf("payload = %+v", got)
	}
}

func TestNotify_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid webhook token", http.StatusUnauthorized)
	}))
	defer srv.Close()

	d := NewDiscord(time.Second, logging.Discard())
	err := d.Notify(context.Background(), models.NotificationTarget{WebhookURL: srv.URL}, makeItems(1))
	if err == nil || !strings.Contains(err.Error(), "401") {
		t.Errorf("Notify() error = %v, want 401 error", err)
	}
}
