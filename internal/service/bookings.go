package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	apperrors "afisha/internal/errors"
	"afisha/internal/logger"
	"afisha/internal/metrics"
	"afisha/internal/middleware"
	"afisha/internal/models"
	"afisha/internal/revenue"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type BookingService struct {
	bookingRepo BookingStore
	eventRepo   EventStore
	wallets     WalletLedger
	natsClient  Publisher
}

func NewBookingService(bookingRepo BookingStore, eventRepo EventStore, wallets WalletLedger, natsClient Publisher) *BookingService {
	return &BookingService{
		bookingRepo: bookingRepo,
		eventRepo:   eventRepo,
		wallets:     wallets,
		natsClient:  natsClient,
	}
}

// Create books tickets for an event. The wallet debit, the inventory reservation
// and the booking insert are separate storage operations; whenever a later step
// fails, the earlier ones are compensated (refund, release) before returning, so
// no money or tickets are ever held by a booking that does not exist.
func (s *BookingService) Create(ctx context.Context, req *models.CreateBookingRequest) (*models.Booking, error) {
	user, ok := middleware.UserFromContext(ctx)
	if !ok {
		return nil, apperrors.ErrUnauthorized
	}

	event, err := s.eventRepo.GetByID(ctx, req.EventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	if event == nil {
		return nil, fmt.Errorf("%w: event %d", apperrors.ErrNotFound, req.EventID)
	}
	if event.Status != models.EventPublished {
		return nil, apperrors.ErrEventNotBookable
	}
	if !time.Now().Before(event.StartsAt) {
		return nil, apperrors.ErrEventAlreadyStarted
	}

	lines, totalAmount, err := buildTicketLines(event, req.Tickets)
	if err != nil {
		return nil, err
	}

	// A request that never chose wallet payment must not move wallet money:
	// the default is a card booking that stays pending until confirmed
	paymentMethod := req.PaymentMethod
	if paymentMethod == "" {
		paymentMethod = models.MethodStripe
	}

	booking := &models.Booking{
		Reference:     newBookingReference(),
		UserID:        user.UserID,
		EventID:       event.ID,
		Status:        models.BookingPending,
		PaymentStatus: models.PaymentPending,
		PaymentMethod: paymentMethod,
		TotalAmount:   totalAmount,
		Currency:      event.Currency,
		Tickets:       lines,
		AttendeeName:  req.AttendeeInfo.Name,
		AttendeeEmail: req.AttendeeInfo.Email,
		CheckInStatus: models.CheckInNone,
	}
	if req.AttendeeInfo.Phone != "" {
		booking.AttendeePhone = &req.AttendeeInfo.Phone
	}
	if req.AttendeeInfo.SpecialRequirements != "" {
		booking.SpecialRequirements = &req.AttendeeInfo.SpecialRequirements
	}

	if err := s.eventRepo.Reserve(ctx, event.ID, lines); err != nil {
		return nil, err
	}

	paidFromWallet := false
	if paymentMethod == models.MethodWallet {
		// Free bookings skip the ledger; transaction amounts are strictly positive
		if totalAmount.IsPositive() {
			_, err := s.wallets.Debit(ctx, user.UserID, totalAmount,
				fmt.Sprintf("Event booking: %s", event.Title), nil)
			if err != nil {
				s.release(ctx, event.ID, lines)
				return nil, err
			}
			paidFromWallet = true
			metrics.WalletTransactions.WithLabelValues(models.TxDebit).Inc()
		}
		booking.Status = models.BookingConfirmed
		booking.PaymentStatus = models.PaymentPaid
	}

	platformShare, organizerShare := revenue.Split(totalAmount)
	if err := s.bookingRepo.Create(ctx, booking, platformShare, organizerShare); err != nil {
		if paidFromWallet {
			if _, refundErr := s.wallets.Refund(ctx, user.UserID, totalAmount,
				fmt.Sprintf("Reversal of failed booking %s", booking.Reference), nil); refundErr != nil {
				logger.WithContext(ctx).Error("Failed to reverse wallet debit for failed booking",
					"error", refundErr,
					"reference", booking.Reference,
					"amount", totalAmount)
			}
		}
		s.release(ctx, event.ID, lines)
		return nil, fmt.Errorf("failed to create booking: %w", err)
	}

	metrics.BookingsCreated.Inc()

	if booking.Status == models.BookingConfirmed {
		s.publishConfirmed(ctx, booking, event.Title)
	}

	return booking, nil
}

// Cancel cancels a booking. Paid bookings get 50% of the total credited back to
// the wallet; the inventory is always released in full and the event revenue
// counters are decremented by the original booked amounts.
func (s *BookingService) Cancel(ctx context.Context, bookingID int64, req *models.CancelBookingRequest) (*models.Booking, error) {
	booking, err := s.authorizedBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if booking.Status == models.BookingCancelled || booking.Status == models.BookingRefunded {
		return nil, apperrors.ErrAlreadyCancelled
	}

	event, err := s.eventRepo.GetByID(ctx, booking.EventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	if event != nil && !time.Now().Before(event.StartsAt) {
		return nil, apperrors.ErrEventAlreadyStarted
	}

	// Only synchronously captured wallet payments are refundable here
	refundable := booking.PaymentStatus == models.PaymentPaid && booking.PaymentMethod == models.MethodWallet

	booking.Status = models.BookingCancelled
	if refundable {
		booking.PaymentStatus = models.PaymentRefunded
	}
	if req.Reason != "" {
		booking.Notes = &req.Reason
	}

	platformShare, organizerShare := revenue.Split(booking.TotalAmount)
	if err := s.bookingRepo.Cancel(ctx, booking, platformShare, organizerShare); err != nil {
		// A concurrent cancel may have won between the status read and the update
		if errors.Is(err, apperrors.ErrAlreadyCancelled) {
			return nil, apperrors.ErrAlreadyCancelled
		}
		return nil, fmt.Errorf("failed to cancel booking: %w", err)
	}

	if refundable {
		refund := revenue.CancellationRefund(booking.TotalAmount)
		if refund.IsPositive() {
			_, err := s.wallets.Refund(ctx, booking.UserID, refund,
				fmt.Sprintf("Refund for cancelled booking %s", booking.Reference), &booking.ID)
			if err != nil {
				return nil, fmt.Errorf("failed to refund wallet for booking %s: %w", booking.Reference, err)
			}
			metrics.WalletTransactions.WithLabelValues(models.TxRefund).Inc()
		}
	}

	s.release(ctx, booking.EventID, booking.Tickets)

	metrics.BookingsCancelled.Inc()

	eventData := models.BookingCancelledEvent{
		BookingID: booking.ID,
		EventID:   booking.EventID,
		UserID:    booking.UserID,
		Reference: booking.Reference,
		Reason:    req.Reason,
		Timestamp: time.Now(),
	}
	if s.natsClient != nil {
		if err := s.natsClient.Publish(models.EventBookingCancelled, eventData); err != nil {
			// Log error but don't fail the operation
			logger.WithContext(ctx).Error("Failed to publish booking cancelled event",
				"error", err,
				"booking_id", booking.ID,
				"event_type", models.EventBookingCancelled)
		}
	}

	return booking, nil
}

// Confirm marks a pending booking as paid after an external payment completes.
// Wallet bookings are confirmed at creation and never pass through here.
func (s *BookingService) Confirm(ctx context.Context, bookingID int64) (*models.Booking, error) {
	booking, err := s.authorizedBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if booking.Status == models.BookingCancelled || booking.Status == models.BookingRefunded {
		return nil, apperrors.ErrAlreadyCancelled
	}
	if booking.Status != models.BookingPending {
		return nil, apperrors.ErrNotPending
	}

	booking.Status = models.BookingConfirmed
	booking.PaymentStatus = models.PaymentPaid

	if err := s.bookingRepo.UpdateStatus(ctx, booking); err != nil {
		return nil, fmt.Errorf("failed to confirm booking: %w", err)
	}

	var eventTitle string
	if event, err := s.eventRepo.GetByID(ctx, booking.EventID); err == nil && event != nil {
		eventTitle = event.Title
	}
	s.publishConfirmed(ctx, booking, eventTitle)

	return booking, nil
}

// CheckIn marks the attendee as arrived. Restricted to the event organizer and admins.
func (s *BookingService) CheckIn(ctx context.Context, bookingID int64) (*models.Booking, error) {
	user, ok := middleware.UserFromContext(ctx)
	if !ok {
		return nil, apperrors.ErrUnauthorized
	}

	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	if booking == nil {
		return nil, fmt.Errorf("%w: booking %d", apperrors.ErrNotFound, bookingID)
	}

	event, err := s.eventRepo.GetByID(ctx, booking.EventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	if !user.IsAdmin() && (event == nil || event.OrganizerID != user.UserID) {
		return nil, apperrors.ErrForbidden
	}

	if booking.CheckInStatus == models.CheckInDone {
		return nil, apperrors.ErrAlreadyCheckedIn
	}
	if booking.Status != models.BookingConfirmed {
		return nil, fmt.Errorf("%w: only confirmed bookings can be checked in", apperrors.ErrValidation)
	}

	now := time.Now()
	if err := s.bookingRepo.CheckIn(ctx, booking.ID, now); err != nil {
		return nil, fmt.Errorf("failed to check in booking: %w", err)
	}

	booking.CheckInStatus = models.CheckInDone
	booking.CheckInTime = &now
	return booking, nil
}

func (s *BookingService) Get(ctx context.Context, bookingID int64) (*models.Booking, error) {
	return s.authorizedBooking(ctx, bookingID)
}

// QRPayload returns the data the client encodes into the ticket QR image
func (s *BookingService) QRPayload(ctx context.Context, bookingID int64) (*models.QRCodePayload, error) {
	booking, err := s.authorizedBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.Status != models.BookingConfirmed {
		return nil, fmt.Errorf("%w: QR code is only available for confirmed bookings", apperrors.ErrValidation)
	}

	return &models.QRCodePayload{
		BookingReference: booking.Reference,
		EventID:          booking.EventID,
		UserID:           booking.UserID,
		TotalAmount:      booking.TotalAmount,
		Status:           booking.Status,
	}, nil
}

func (s *BookingService) ListByUser(ctx context.Context, status string, page, pageSize int) (*models.BookingListResponse, error) {
	user, ok := middleware.UserFromContext(ctx)
	if !ok {
		return nil, apperrors.ErrUnauthorized
	}

	page, pageSize = normalizePage(page, pageSize)
	bookings, total, err := s.bookingRepo.ListByUser(ctx, user.UserID, status, page, pageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}

	return &models.BookingListResponse{
		Bookings:   bookings,
		Pagination: paginate(page, pageSize, total),
	}, nil
}

// ListByEvent returns the bookings of one event for its organizer or an admin
func (s *BookingService) ListByEvent(ctx context.Context, eventID int64, status string, page, pageSize int) (*models.BookingListResponse, error) {
	user, ok := middleware.UserFromContext(ctx)
	if !ok {
		return nil, apperrors.ErrUnauthorized
	}

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	if event == nil {
		return nil, fmt.Errorf("%w: event %d", apperrors.ErrNotFound, eventID)
	}
	if !user.IsAdmin() && event.OrganizerID != user.UserID {
		return nil, apperrors.ErrForbidden
	}

	page, pageSize = normalizePage(page, pageSize)
	bookings, total, err := s.bookingRepo.ListByEvent(ctx, eventID, status, page, pageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}

	return &models.BookingListResponse{
		Bookings:   bookings,
		Pagination: paginate(page, pageSize, total),
	}, nil
}

// authorizedBooking loads the booking and checks the caller owns it or is an admin
func (s *BookingService) authorizedBooking(ctx context.Context, bookingID int64) (*models.Booking, error) {
	user, ok := middleware.UserFromContext(ctx)
	if !ok {
		return nil, apperrors.ErrUnauthorized
	}

	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	if booking == nil {
		return nil, fmt.Errorf("%w: booking %d", apperrors.ErrNotFound, bookingID)
	}
	if booking.UserID != user.UserID && !user.IsAdmin() {
		return nil, apperrors.ErrForbidden
	}

	return booking, nil
}

func (s *BookingService) release(ctx context.Context, eventID int64, lines []models.TicketLine) {
	if err := s.eventRepo.Release(ctx, eventID, lines); err != nil {
		logger.WithContext(ctx).Error("Failed to release reserved tickets",
			"error", err,
			"event_id", eventID)
	}
}

func (s *BookingService) publishConfirmed(ctx context.Context, booking *models.Booking, eventTitle string) {
	if s.natsClient == nil {
		return
	}

	eventData := models.BookingConfirmedEvent{
		BookingID:     booking.ID,
		EventID:       booking.EventID,
		UserID:        booking.UserID,
		Reference:     booking.Reference,
		EventTitle:    eventTitle,
		AttendeeName:  booking.AttendeeName,
		AttendeeEmail: booking.AttendeeEmail,
		TotalAmount:   booking.TotalAmount.StringFixed(2),
		Currency:      booking.Currency,
		Timestamp:     time.Now(),
	}

	if err := s.natsClient.Publish(models.EventBookingConfirmed, eventData); err != nil {
		// Log error but don't fail the operation
		logger.WithContext(ctx).Error("Failed to publish booking confirmed event",
			"error", err,
			"booking_id", booking.ID,
			"event_type", models.EventBookingConfirmed)
	}
}

// buildTicketLines validates the requested tiers against the event and snapshots
// the current tier prices into booking lines
func buildTicketLines(event *models.Event, selections []models.TicketSelection) ([]models.TicketLine, decimal.Decimal, error) {
	total := decimal.Zero
	seen := make(map[string]bool, len(selections))
	lines := make([]models.TicketLine, 0, len(selections))

	for _, sel := range selections {
		if sel.Quantity <= 0 {
			return nil, decimal.Zero, fmt.Errorf("%w: ticket quantity must be positive", apperrors.ErrValidation)
		}
		if seen[sel.Tier] {
			return nil, decimal.Zero, fmt.Errorf("%w: duplicate tier %s", apperrors.ErrValidation, sel.Tier)
		}
		seen[sel.Tier] = true

		tier := event.Tier(sel.Tier)
		if tier == nil {
			return nil, decimal.Zero, fmt.Errorf("%w: %s", apperrors.ErrInvalidTier, sel.Tier)
		}

		lineTotal := tier.Price.Mul(decimal.NewFromInt(int64(sel.Quantity)))
		lines = append(lines, models.TicketLine{
			TierName:  tier.Name,
			UnitPrice: tier.Price,
			Quantity:  sel.Quantity,
			LineTotal: lineTotal,
		})
		total = total.Add(lineTotal)
	}

	return lines, total, nil
}

// newBookingReference generates a human-readable unique booking code,
// e.g. EVT-MEWV0K2H-4F7A9
func newBookingReference() string {
	millis := strconv.FormatInt(time.Now().UnixMilli(), 36)
	suffix := strings.ReplaceAll(uuid.New().String(), "-", "")[:5]
	return strings.ToUpper(fmt.Sprintf("EVT-%s-%s", millis, suffix))
}

func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 10
	}
	return page, pageSize
}

func paginate(page, pageSize, total int) models.Pagination {
	totalPages := (total + pageSize - 1) / pageSize
	return models.Pagination{
		CurrentPage: page,
		TotalPages:  totalPages,
		TotalItems:  total,
	}
}
