package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rowjay/file-backup-utility/internal/config"
)

func TestWebhookPostsEvent(t *testing.T) {
	var received Event
	var gotHeader string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeader = r.Header.Get("X-Token")
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	hook := Webhook{Name: "ops", URL: server.URL, Headers: map[string]string{"X-Token": "secret"}}
	event := Event{
		Type:         "backup",
		Status:       "success",
		Source:       "/data",
		Target:       "/backups",
		StartedAt:    time.Now().Add(-time.Second),
		EndedAt:      time.Now(),
		FilesScanned: 3,
		FilesCopied:  1,
	}
	if err := hook.Notify(context.Background(), event); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if gotHeader != "secret" {
		t.Fatalf("custom header not sent, got %q", gotHeader)
	}
	if received.Type != "backup" || received.FilesCopied != 1 {
		t.Fatalf("event fields lost in transit: %+v", received)
	}
}

func TestWebhookErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	hook := Webhook{Name: "broken", URL: server.URL}
	if err := hook.Notify(context.Background(), Event{Type: "backup"}); err == nil {
		t.Fatal("expected error for non-2xx response")
	}
}

func TestMultiDeliversToAllTargets(t *testing.T) {
	var hits int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	multi := Multi{Targets: []Notifier{
		Webhook{Name: "a", URL: server.URL},
		nil,
		Webhook{Name: "b", URL: server.URL},
	}}
	if err := multi.Notify(context.Background(), Event{Type: "verify"}); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if hits != 2 {
		t.Fatalf("expected 2 deliveries, got %d", hits)
	}
}

func TestFromConfig(t *testing.T) {
	cfg := config.NotificationsConfig{
		Webhooks: []config.WebhookConfig{
			{Name: "ops", URL: "https://example.com/hook"},
		},
	}
	multi := FromConfig(cfg)
	if len(multi.Targets) != 1 {
		t.Fatalf("expected 1 target, got %d", len(multi.Targets))
	}
}
