package notify

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"librarian/internal/config"
)

func serviceForServer(t *testing.T, url string) Service {
	t.Helper()
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = url
	return NewService(&cfg)
}

func TestNewServiceWithoutTopicIsNoop(t *testing.T) {
	cfg := config.Default()
	svc := NewService(&cfg)
	if _, ok := svc.(noopService); !ok {
		t.Fatalf("expected noop service, got %T", svc)
	}
	if err := svc.NotifyResolved(context.Background(), "Armageddon", "1998", 0.83); err != nil {
		t.Fatalf("noop should never error: %v", err)
	}
}

func TestNewServiceExpandsBareTopic(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = "my-librarian"
	svc := NewService(&cfg)
	ntfy, ok := svc.(*ntfyService)
	if !ok {
		t.Fatalf("expected ntfy service, got %T", svc)
	}
	if ntfy.endpoint != "https://ntfy.sh/my-librarian" {
		t.Fatalf("unexpected endpoint: %q", ntfy.endpoint)
	}
}

func TestNotifyResolvedSendsHeadersAndBody(t *testing.T) {
	var gotTitle, gotTags, gotBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotTitle = r.Header.Get("Title")
		gotTags = r.Header.Get("Tags")
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
	}))
	defer server.Close()

	svc := serviceForServer(t, server.URL)
	if err := svc.NotifyResolved(context.Background(), "Armageddon", "1998", 0.83); err != nil {
		t.Fatalf("NotifyResolved returned error: %v", err)
	}
	if gotTitle != "Librarian - Resolved" {
		t.Fatalf("unexpected title header: %q", gotTitle)
	}
	if !strings.Contains(gotTags, "resolve") {
		t.Fatalf("unexpected tags: %q", gotTags)
	}
	if !strings.Contains(gotBody, "Armageddon (1998)") || !strings.Contains(gotBody, "0.83") {
		t.Fatalf("unexpected body: %q", gotBody)
	}
}

func TestNotifyReviewUsesHighPriority(t *testing.T) {
	var gotPriority string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPriority = r.Header.Get("Priority")
	}))
	defer server.Close()

	svc := serviceForServer(t, server.URL)
	if err := svc.NotifyReview(context.Background(), "ARMAGEDN", 0.41); err != nil {
		t.Fatalf("NotifyReview returned error: %v", err)
	}
	if gotPriority != "high" {
		t.Fatalf("unexpected priority: %q", gotPriority)
	}
}

func TestDisabledEventsAreSkipped(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected for disabled event")
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	cfg.Notifications.Review = false
	svc := NewService(&cfg)

	if err := svc.NotifyReview(context.Background(), "ARMAGEDN", 0.41); err != nil {
		t.Fatalf("disabled event should be silent: %v", err)
	}
}

func TestDetectedEventsGatedIndependently(t *testing.T) {
	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	cfg.Notifications.Resolved = false
	svc := NewService(&cfg)

	// Disabling resolved pushes must not silence detection pings.
	if err := svc.NotifyDiscDetected(context.Background(), "ARMAGEDN"); err != nil {
		t.Fatalf("NotifyDiscDetected returned error: %v", err)
	}
	if err := svc.NotifyResolved(context.Background(), "Armageddon", "1998", 0.83); err != nil {
		t.Fatalf("NotifyResolved returned error: %v", err)
	}
	if requests != 1 {
		t.Fatalf("requests = %d, want the detection ping only", requests)
	}

	cfg.Notifications.Detected = false
	cfg.Notifications.Resolved = true
	svc = NewService(&cfg)
	if err := svc.NotifyDiscDetected(context.Background(), "ARMAGEDN"); err != nil {
		t.Fatalf("NotifyDiscDetected returned error: %v", err)
	}
	if requests != 1 {
		t.Fatalf("requests = %d, want no ping with detection disabled", requests)
	}
}

func TestSendSurfacesServerErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "topic over quota", http.StatusTooManyRequests)
	}))
	defer server.Close()

	svc := serviceForServer(t, server.URL)
	err := svc.TestNotification(context.Background())
	if err == nil || !strings.Contains(err.Error(), "429") {
		t.Fatalf("expected status error, got %v", err)
	}
}
