package consumers

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"afisha/internal/external"
	"afisha/internal/models"

	"github.com/nats-io/stan.go"
)

type Handlers struct {
	notifierClient *external.NotifierClient
}

func NewHandlers(notifierClient *external.NotifierClient) *Handlers {
	return &Handlers{
		notifierClient: notifierClient,
	}
}

// HandleBookingConfirmed отправляет билет посетителю после подтверждения бронирования.
// The message stays unacked on notifier failure and is redelivered after AckWait.
func (h *Handlers) HandleBookingConfirmed(m *stan.Msg) {
	var event models.BookingConfirmedEvent
	if err := json.Unmarshal(m.Data, &event); err != nil {
		// Redelivery cannot fix a malformed payload
		slog.Error("Failed to unmarshal booking confirmed event", "error", err)
		ack(m)
		return
	}

	slog.Info("Processing booking confirmed event",
		"booking_id", event.BookingID,
		"reference", event.Reference)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	err := h.notifierClient.SendTicket(ctx, &external.TicketNotification{
		BookingID:     event.BookingID,
		Reference:     event.Reference,
		EventTitle:    event.EventTitle,
		AttendeeName:  event.AttendeeName,
		AttendeeEmail: event.AttendeeEmail,
		TotalAmount:   event.TotalAmount,
		Currency:      event.Currency,
	})
	if err != nil {
		slog.Error("Failed to send ticket notification",
			"error", err,
			"booking_id", event.BookingID)
		return
	}

	ack(m)
}

// HandleBookingCancelled уведомляет посетителя об отмене бронирования
func (h *Handlers) HandleBookingCancelled(m *stan.Msg) {
	var event models.BookingCancelledEvent
	if err := json.Unmarshal(m.Data, &event); err != nil {
		slog.Error("Failed to unmarshal booking cancelled event", "error", err)
		ack(m)
		return
	}

	slog.Info("Processing booking cancelled event",
		"booking_id", event.BookingID,
		"reference", event.Reference)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := h.notifierClient.SendCancellation(ctx, event.BookingID, event.Reference, event.Reason); err != nil {
		slog.Error("Failed to send cancellation notification",
			"error", err,
			"booking_id", event.BookingID)
		return
	}

	ack(m)
}

func ack(m *stan.Msg) {
	if err := m.Ack(); err != nil {
		slog.Error("Failed to ack message", "error", err, "subject", m.Subject, "sequence", m.Sequence)
	}
}
