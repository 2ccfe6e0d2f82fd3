package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/Kavirubc/gitscout/internal/engine"
	"github.com/Kavirubc/gitscout/internal/logging"
	"github.com/Kavirubc/gitscout/internal/store"
	"github.com/Kavirubc/gitscout/pkg/models"
)

type stubSource struct {
	mu    sync.Mutex
	items []models.Item
	err   error
}

func (s *stubSource) Search(_ context.Context, _ models.Filter) ([]models.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.items, s.err
}

type stubNotifier struct{}

func (stubNotifier) Notify(context.Context, models.NotificationTarget, []models.Item) error {
	return nil
}

type fixture struct {
	srv    *httptest.Server
	store  *store.FileStore
	source *stubSource
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()
	fs := store.NewFileStore(filepath.Join(t.TempDir(), "config.json"))
	src := &stubSource{}

	eng, err := engine.New(context.Background(), fs, src, stubNotifier{}, engine.Options{}, logging.Discard())
	if err != nil {
		t.Fatalf("engine.New() error = %v", err)
	}

	srv := httptest.NewServer(NewServer(eng, opts, logging.Discard()).Handler())
	t.Cleanup(srv.Close)
	return &fixture{srv: srv, store: fs, source: src}
}

func (f *fixture) do(t *testing.T, method, path, body string, out any) int {
	t.Helper()
	req, err := http.NewRequest(method, f.srv.URL+path, strings.NewReader(body))
	if err != nil {
		t.Fatalf("NewRequest() error = %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s error = %v", method, path, err)
	}
	defer resp.Body.Close()

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s %s: %v", method, path, err)
		}
	}
	return resp.StatusCode
}

func TestHealth(t *testing.T) {
	f := newFixture(t, Options{})

	var body struct {
		Status string `json:"status"`
		Active bool   `json:"active"`
	}
	if code := f.do(t, http.MethodGet, "/health", "", &body); code != http.StatusOK {
		t.Fatalf("GET /health = %d, want 200", code)
	}
	if body.Status != "ok" || body.Active {
		t.Errorf("health = %+v, want ok/inactive", body)
	}
}

func TestWatchStartStop(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()

	var msg message
	if code := f.do(t, http.MethodPost, "/watch/start", "", &msg); code != http.StatusOK || msg.Message != "watch started" {
		t.Fatalf("POST /watch/start = %d %+v", code, msg)
	}
	persisted, err := f.store.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !persisted.Active {
		t.Errorf("persisted Active = false, want true")
	}

	if code := f.do(t, http.MethodPost, "/watch/stop", "", &msg); code != http.StatusOK || msg.Message != "watch stopped" {
		t.Fatalf("POST /watch/stop = %d %+v", code, msg)
	}
	persisted, err = f.store.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if persisted.Active {
		t.Errorf("persisted Active = true, want false")
	}
}

func TestUpdateConfig(t *testing.T) {
	f := newFixture(t, Options{})

	body := `{"search": {"organizations": ["golang"], "languages": [], "polling_interval": 300},
	          "notif": {"webhook_url": "https://discord.com/api/webhooks/1/x"}}`
	var msg message
	if code := f.do(t, http.MethodPost, "/config", body, &msg); code != http.StatusOK {
		t.Fatalf("POST /config = %d, want 200", code)
	}

	var got configBody
	if code := f.do(t, http.MethodGet, "/config", "", &got); code != http.StatusOK {
		t.Fatalf("GET /config = %d, want 200", code)
	}
	if got.Search.Organizations[0] != "golang" || got.Search.PollInterval != 300 {
		t.Errorf("search = %+v", got.Search)
	}
	if got.Notif.WebhookURL != "https://discord.com/api/webhooks/1/x" {
		t.Errorf("notif = %+v", got.Notif)
	}

	persisted, err := f.store.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if persisted.Filter.PollInterval != 300 {
		t.Errorf("persisted PollInterval = %d, want 300", persisted.Filter.PollInterval)
	}
}

func TestUpdateConfig_Invalid(t *testing.T) {
	f := newFixture(t, Options{})

	tests := []string{
		`{not json`,
		`{"search": {"organizations": "golang"}}`,
		`{"search": {"polling_interval": "fast"}}`,
	}
	for _, body := range tests {
		if code := f.do(t, http.MethodPost, "/config", body, nil); code != http.StatusBadRequest {
			t.Errorf("POST /config %s = %d, want 400", body, code)
		}
	}
}

func TestCheck(t *testing.T) {
	f := newFixture(t, Options{})
	f.source.items = []models.Item{{ID: 1, Title: "a"}, {ID: 2, Title: "b"}}

	var res models.CycleResult
	if code := f.do(t, http.MethodPost, "/check", "", &res); code != http.StatusOK {
		t.Fatalf("POST /check = %d, want 200", code)
	}
	if !res.Skipped {
		t.Errorf("inactive check result = %+v, want skipped", res)
	}

	f.do(t, http.MethodPost, "/watch/start", "", nil)
	if code := f.do(t, http.MethodGet, "/cron/check", "", &res); code != http.StatusOK {
		t.Fatalf("GET /cron/check = %d, want 200", code)
	}
	if res.Fetched != 2 || res.New != 2 {
		t.Errorf("result = %+v, want fetched 2, new 2", res)
	}

	var issues struct {
		Items []models.Item `json:"items"`
	}
	if code := f.do(t, http.MethodGet, "/issues", "", &issues); code != http.StatusOK {
		t.Fatalf("GET /issues = %d", code)
	}
	if len(issues.Items) != 2 {
		t.Errorf("len(items) = %d, want 2", len(issues.Items))
	}

	var state map[string]any
	f.do(t, http.MethodGet, "/state", "", &state)
	if state["seen_count"] != float64(2) {
		t.Errorf("seen_count = %v, want 2", state["seen_count"])
	}
}

func TestCheck_UpstreamError(t *testing.T) {
	f := newFixture(t, Options{})
	f.do(t, http.MethodPost, "/watch/start", "", nil)
	f.source.err = errors.New("HTTP 503")

	var body map[string]string
	if code := f.do(t, http.MethodPost, "/check", "", &body); code != http.StatusBadGateway {
		t.Fatalf("POST /check = %d, want 502", code)
	}
	if !strings.Contains(body["detail"], "github error") {
		t.Errorf("detail = %q", body["detail"])
	}
}

func TestCheck_Throttled(t *testing.T) {
	f := newFixture(t, Options{TriggerPerMinute: 1, TriggerBurst: 1})

	if code := f.do(t, http.MethodPost, "/check", "", nil); code != http.StatusOK {
		t.Fatalf("first POST /check = %d, want 200", code)
	}
	if code := f.do(t, http.MethodPost, "/check", "", nil); code != http.StatusTooManyRequests {
		t.Errorf("second POST /check = %d, want 429", code)
	}
}

func TestWriteJSON_LogsEncodeFailure(t *testing.T) {
	var logs bytes.Buffer
	s := NewServer(nil, Options{}, slog.New(slog.NewTextHandler(&logs, nil)))

	rec := httptest.NewRecorder()
	s.writeJSON(rec, http.StatusOK, map[string]any{"bad": math.Inf(1)})

	if !strings.Contains(logs.String(), "failed to write response") {
		t.Errorf("log output = %q, want encode failure", logs.String())
	}
}
