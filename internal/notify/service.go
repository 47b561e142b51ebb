package notify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"librarian/internal/config"
)

const userAgent = "librarian/0.1.0"

// Service defines the notification surface exposed to the pipeline.
type Service interface {
	NotifyDiscDetected(ctx context.Context, label string) error
	NotifyResolved(ctx context.Context, title, year string, confidence float64) error
	NotifyReview(ctx context.Context, query string, confidence float64) error
	NotifyError(ctx context.Context, err error, contextLabel string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when a topic
// is configured, otherwise a noop implementation.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}
	if !strings.Contains(topic, "://") {
		topic = "https://ntfy.sh/" + topic
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint:       topic,
		client:         &http.Client{Timeout: timeout},
		detectedEvents: cfg.Notifications.Detected,
		resolvedEvents: cfg.Notifications.Resolved,
		reviewEvents:   cfg.Notifications.Review,
		errorEvents:    cfg.Notifications.Errors,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint       string
	client         *http.Client
	detectedEvents bool
	resolvedEvents bool
	reviewEvents   bool
	errorEvents    bool
}

func (n *ntfyService) NotifyDiscDetected(ctx context.Context, label string) error {
	if !n.detectedEvents {
		return nil
	}
	label = strings.TrimSpace(label)
	if label == "" {
		label = "unlabeled disc"
	}
	return n.send(ctx, payload{
		title:   "Librarian - Disc Detected",
		message: fmt.Sprintf("Disc detected: %s", label),
		tags:    []string{"librarian", "disc", "detected"},
	})
}

func (n *ntfyService) NotifyResolved(ctx context.Context, title, year string, confidence float64) error {
	if !n.resolvedEvents {
		return nil
	}
	title = strings.TrimSpace(title)
	message := fmt.Sprintf("Resolved: %s", title)
	if year = strings.TrimSpace(year); year != "" {
		message = fmt.Sprintf("Resolved: %s (%s)", title, year)
	}
	return n.send(ctx, payload{
		title:   "Librarian - Resolved",
		message: fmt.Sprintf("%s [confidence %.2f]", message, confidence),
		tags:    []string{"librarian", "resolve", "completed"},
	})
}

func (n *ntfyService) NotifyReview(ctx context.Context, query string, confidence float64) error {
	if !n.reviewEvents {
		return nil
	}
	return n.send(ctx, payload{
		title:    "Librarian - Review Needed",
		message:  fmt.Sprintf("Low-confidence match for %q (%.2f)\nManual review required", strings.TrimSpace(query), confidence),
		tags:     []string{"librarian", "review"},
		priority: "high",
	})
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	if !n.errorEvents {
		return nil
	}
	var builder strings.Builder
	builder.WriteString("Error")
	if contextLabel = strings.TrimSpace(contextLabel); contextLabel != "" {
		builder.WriteString(" with ")
		builder.WriteString(contextLabel)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}
	return n.send(ctx, payload{
		title:    "Librarian - Error",
		message:  builder.String(),
		tags:     []string{"librarian", "error", "alert"},
		priority: "high",
	})
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	return n.send(ctx, payload{
		title:    "Librarian - Test",
		message:  "Notification system test",
		tags:     []string{"librarian", "test"},
		priority: "low",
	})
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyDiscDetected(context.Context, string) error           { return nil }
func (noopService) NotifyResolved(context.Context, string, string, float64) error { return nil }
func (noopService) NotifyReview(context.Context, string, float64) error        { return nil }
func (noopService) NotifyError(context.Context, error, string) error           { return nil }
func (noopService) TestNotification(context.Context) error                     { return nil }
