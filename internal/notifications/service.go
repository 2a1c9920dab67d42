package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"merchlens/internal/config"
)

const userAgent = "MerchLens/0.1.0"

// Service defines the notification surface exposed to the job
// orchestrator.
type Service interface {
	NotifyJobStarted(ctx context.Context, inputPath string, rows int) error
	NotifyJobCompleted(ctx context.Context, inputPath string, processed int, totalCost float64, duration time.Duration) error
	NotifyJobStopped(ctx context.Context, inputPath string, processed int) error
	NotifyJobFailed(ctx context.Context, inputPath, detail string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg config.Notifications) Service {
	topic := strings.TrimSpace(cfg.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

func (n *ntfyService) NotifyJobStarted(ctx context.Context, inputPath string, rows int) error {
	data := payload{
		title:   "MerchLens - Job Started",
		message: fmt.Sprintf("Started processing %s (%d rows)", inputPath, rows),
		tags:    []string{"merchlens", "job", "started"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyJobCompleted(ctx context.Context, inputPath string, processed int, totalCost float64, duration time.Duration) error {
	duration = duration.Round(time.Second)
	if duration < 0 {
		duration = 0
	}
	data := payload{
		title:    "MerchLens - Job Complete",
		message:  fmt.Sprintf("Completed %s: %d rows resolved in %s ($%.2f spent)", inputPath, processed, duration, totalCost),
		tags:     []string{"merchlens", "job", "completed"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyJobStopped(ctx context.Context, inputPath string, processed int) error {
	data := payload{
		title:   "MerchLens - Job Stopped",
		message: fmt.Sprintf("Stopped %s after %d rows; checkpoint kept for resume", inputPath, processed),
		tags:    []string{"merchlens", "job", "stopped"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyJobFailed(ctx context.Context, inputPath, detail string) error {
	detail = strings.TrimSpace(detail)
	if detail == "" {
		detail = "unknown"
	}
	data := payload{
		title:    "MerchLens - Job Failed",
		message:  fmt.Sprintf("Failed %s: %s", inputPath, detail),
		tags:     []string{"merchlens", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "MerchLens - Test",
		message:  "Notification system test",
		tags:     []string{"merchlens", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
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

func (noopService) NotifyJobStarted(context.Context, string, int) error { return nil }
func (noopService) NotifyJobCompleted(context.Context, string, int, float64, time.Duration) error {
	return nil
}
func (noopService) NotifyJobStopped(context.Context, string, int) error { return nil }
func (noopService) NotifyJobFailed(context.Context, string, string) error {
	return nil
}
func (noopService) TestNotification(context.Context) error { return nil }
