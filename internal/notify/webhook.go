// Package notify delivers fire-and-forget webhook notifications.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/jonathanvouilloz/extensionReview/internal/models"
)

// WebhookNotifier posts comment events to a project's webhook URL. Delivery
// never blocks or fails the request that triggered it; failures are logged
// and dropped.
type WebhookNotifier struct {
	client *http.Client
}

// NewWebhookNotifier returns a notifier with a bounded HTTP client.
func NewWebhookNotifier() *WebhookNotifier {
	return &WebhookNotifier{
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

type commentCreatedPayload struct {
	Event       string    `json:"event"`
	ProjectCode string    `json:"project_code"`
	ProjectName string    `json:"project_name"`
	CommentID   string    `json:"comment_id"`
	Priority    string    `json:"priority"`
	URL         string    `json:"url"`
	CreatedAt   time.Time `json:"created_at"`
}

// CommentCreated fires the comment.created event in a goroutine when the
// project carries a webhook URL and has notifications enabled.
func (n *WebhookNotifier) CommentCreated(project *models.Project, commentID, priority, pageURL string) {
	if project.WebhookURL == "" || !project.NotifyEmail {
		return
	}

	payload := commentCreatedPayload{
		Event:       "comment.created",
		ProjectCode: project.Code,
		ProjectName: project.Name,
		CommentID:   commentID,
		Priority:    priority,
		URL:         pageURL,
		CreatedAt:   time.Now().UTC(),
	}

	go n.deliver(project.WebhookURL, payload)
}

func (n *WebhookNotifier) deliver(url string, payload commentCreatedPayload) {
	body, err := json.Marshal(payload)
	if err != nil {
		log.Printf("[NOTIFY] failed to encode webhook payload: %v", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		log.Printf("[NOTIFY] failed to build webhook request: %v", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		log.Printf("[NOTIFY] webhook delivery to %s failed: %v", url, err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		log.Printf("[NOTIFY] webhook %s answered status %d", url, resp.StatusCode)
	}
}
