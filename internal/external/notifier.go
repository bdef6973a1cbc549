package external

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// NotifierClient talks to the notification service that renders and emails
// tickets (PDF/QR generation happens on that side). Calls are time-bounded by
// the configured client timeout so a slow notifier can never stall a caller.
type NotifierClient struct {
	baseURL    string
	httpClient *http.Client
}

type NotifierConfig struct {
	BaseURL string
	Timeout time.Duration
}

// TicketNotification is the payload the notification service expects
type TicketNotification struct {
	BookingID     int64  `json:"booking_id"`
	Reference     string `json:"reference"`
	EventTitle    string `json:"event_title"`
	AttendeeName  string `json:"attendee_name"`
	AttendeeEmail string `json:"attendee_email"`
	TotalAmount   string `json:"total_amount"`
	Currency      string `json:"currency"`
}

func NewNotifierClient(cfg NotifierConfig) *NotifierClient {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}

	return &NotifierClient{
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// SendTicket asks the notification service to email the ticket for a booking
func (nc *NotifierClient) SendTicket(ctx context.Context, notification *TicketNotification) error {
	jsonBody, err := json.Marshal(notification)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		nc.baseURL+"/api/notifications/ticket", bytes.NewBuffer(jsonBody))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := nc.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send ticket notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	return nil
}

// SendCancellation notifies the attendee that a booking was cancelled
func (nc *NotifierClient) SendCancellation(ctx context.Context, bookingID int64, reference, reason string) error {
	payload := map[string]interface{}{
		"booking_id": bookingID,
		"reference":  reference,
		"reason":     reason,
	}

	jsonBody, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		nc.baseURL+"/api/notifications/cancellation", bytes.NewBuffer(jsonBody))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := nc.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send cancellation notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	return nil
}
