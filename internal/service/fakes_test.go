package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	apperrors "afisha/internal/errors"
	"afisha/internal/models"

	"github.com/shopspring/decimal"
)

// In-memory fakes with the same conditional-update semantics as the Postgres
// repositories, so the compensation flow can be exercised without a database.

type fakeWallets struct {
	mu           sync.Mutex
	balances     map[int64]decimal.Decimal
	transactions []models.WalletTransaction
}

func newFakeWallets() *fakeWallets {
	return &fakeWallets{balances: make(map[int64]decimal.Decimal)}
}

func (f *fakeWallets) balance(userID int64) decimal.Decimal {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.balances[userID]
}

func (f *fakeWallets) Get(_ context.Context, userID int64) (*models.Wallet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &models.Wallet{UserID: userID, Balance: f.balances[userID], Currency: "USD"}, nil
}

func (f *fakeWallets) Credit(_ context.Context, userID int64, amount decimal.Decimal, description, paymentMethod string, bookingID *int64) (*models.WalletTransaction, error) {
	return f.add(userID, amount, models.TxCredit, description, paymentMethod, bookingID)
}

func (f *fakeWallets) Refund(_ context.Context, userID int64, amount decimal.Decimal, description string, bookingID *int64) (*models.WalletTransaction, error) {
	return f.add(userID, amount, models.TxRefund, description, models.MethodRefund, bookingID)
}

func (f *fakeWallets) Debit(_ context.Context, userID int64, amount decimal.Decimal, description string, bookingID *int64) (*models.WalletTransaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	available := f.balances[userID]
	if available.LessThan(amount) {
		return nil, &apperrors.InsufficientBalanceError{Required: amount, Available: available}
	}
	f.balances[userID] = available.Sub(amount)

	t := models.WalletTransaction{
		ID: fmt.Sprintf("tx-%d", len(f.transactions)), UserID: userID,
		Type: models.TxDebit, Amount: amount, Description: description,
		BookingID: bookingID, PaymentMethod: models.MethodWallet,
		Status: "completed", CreatedAt: time.Now(),
	}
	f.transactions = append(f.transactions, t)
	return &t, nil
}

func (f *fakeWallets) add(userID int64, amount decimal.Decimal, txType, description, paymentMethod string, bookingID *int64) (*models.WalletTransaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.balances[userID] = f.balances[userID].Add(amount)
	t := models.WalletTransaction{
		ID: fmt.Sprintf("tx-%d", len(f.transactions)), UserID: userID,
		Type: txType, Amount: amount, Description: description,
		BookingID: bookingID, PaymentMethod: paymentMethod,
		Status: "completed", CreatedAt: time.Now(),
	}
	f.transactions = append(f.transactions, t)
	return &t, nil
}

func (f *fakeWallets) ListTransactions(_ context.Context, userID int64, page, pageSize int, typeFilter string) ([]models.WalletTransaction, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var matching []models.WalletTransaction
	for i := len(f.transactions) - 1; i >= 0; i-- {
		t := f.transactions[i]
		if t.UserID != userID {
			continue
		}
		if typeFilter != "" && t.Type != typeFilter {
			continue
		}
		matching = append(matching, t)
	}

	total := len(matching)
	start := (page - 1) * pageSize
	if start > total {
		start = total
	}
	end := start + pageSize
	if end > total {
		end = total
	}
	return matching[start:end], total, nil
}

type fakeEvents struct {
	mu     sync.Mutex
	events map[int64]*models.Event
	nextID int64
}

func newFakeEvents() *fakeEvents {
	return &fakeEvents{events: make(map[int64]*models.Event), nextID: 1}
}

func (f *fakeEvents) put(event *models.Event) *models.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	if event.ID == 0 {
		event.ID = f.nextID
		f.nextID++
	}
	for i := range event.Tiers {
		event.Tiers[i].EventID = event.ID
	}
	f.events[event.ID] = event
	return event
}

func (f *fakeEvents) sold(eventID int64, tier string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := f.events[eventID].Tier(tier)
	return t.Sold
}

func (f *fakeEvents) Create(_ context.Context, event *models.Event) error {
	now := time.Now()
	event.CreatedAt = now
	event.UpdatedAt = now
	f.put(event)
	return nil
}

func (f *fakeEvents) GetByID(_ context.Context, id int64) (*models.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	event, ok := f.events[id]
	if !ok {
		return nil, nil
	}
	copied := *event
	copied.Tiers = append([]models.TicketTier(nil), event.Tiers...)
	return &copied, nil
}

func (f *fakeEvents) List(_ context.Context, page, pageSize int) ([]models.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var events []models.Event
	for _, event := range f.events {
		if event.Status == models.EventPublished {
			events = append(events, *event)
		}
	}
	return events, nil
}

func (f *fakeEvents) Reserve(_ context.Context, eventID int64, lines []models.TicketLine) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	event, ok := f.events[eventID]
	if !ok {
		return fmt.Errorf("%w: event %d", apperrors.ErrNotFound, eventID)
	}

	total := 0
	for _, line := range lines {
		total += line.Quantity
		tier := event.Tier(line.TierName)
		if tier == nil {
			return fmt.Errorf("%w: %s", apperrors.ErrInvalidTier, line.TierName)
		}
		if tier.Quantity != nil && tier.Sold+line.Quantity > *tier.Quantity {
			return fmt.Errorf("%w for %s", apperrors.ErrSoldOut, line.TierName)
		}
	}
	if event.CapacityTotal != nil && event.CapacitySold+total > *event.CapacityTotal {
		return fmt.Errorf("%w: event capacity reached", apperrors.ErrSoldOut)
	}

	for _, line := range lines {
		event.Tier(line.TierName).Sold += line.Quantity
	}
	event.CapacitySold += total
	return nil
}

func (f *fakeEvents) Release(_ context.Context, eventID int64, lines []models.TicketLine) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	event, ok := f.events[eventID]
	if !ok {
		return fmt.Errorf("%w: event %d", apperrors.ErrNotFound, eventID)
	}

	total := 0
	for _, line := range lines {
		total += line.Quantity
		if tier := event.Tier(line.TierName); tier != nil {
			tier.Sold -= line.Quantity
			if tier.Sold < 0 {
				tier.Sold = 0
			}
		}
	}
	event.CapacitySold -= total
	if event.CapacitySold < 0 {
		event.CapacitySold = 0
	}
	return nil
}

type fakeBookings struct {
	mu        sync.Mutex
	bookings  map[int64]*models.Booking
	nextID    int64
	createErr error
}

func newFakeBookings() *fakeBookings {
	return &fakeBookings{bookings: make(map[int64]*models.Booking), nextID: 1}
}

func (f *fakeBookings) Create(_ context.Context, booking *models.Booking, platformShare, organizerShare decimal.Decimal) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.createErr != nil {
		return f.createErr
	}

	booking.ID = f.nextID
	f.nextID++
	now := time.Now()
	booking.CreatedAt = now
	booking.UpdatedAt = now

	copied := *booking
	f.bookings[booking.ID] = &copied
	return nil
}

func (f *fakeBookings) GetByID(_ context.Context, id int64) (*models.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	booking, ok := f.bookings[id]
	if !ok {
		return nil, nil
	}
	copied := *booking
	return &copied, nil
}

func (f *fakeBookings) ListByUser(_ context.Context, userID int64, status string, page, pageSize int) ([]models.Booking, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var bookings []models.Booking
	for _, booking := range f.bookings {
		if booking.UserID == userID && (status == "" || booking.Status == status) {
			bookings = append(bookings, *booking)
		}
	}
	return bookings, len(bookings), nil
}

func (f *fakeBookings) ListByEvent(_ context.Context, eventID int64, status string, page, pageSize int) ([]models.Booking, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var bookings []models.Booking
	for _, booking := range f.bookings {
		if booking.EventID == eventID && (status == "" || booking.Status == status) {
			bookings = append(bookings, *booking)
		}
	}
	return bookings, len(bookings), nil
}

func (f *fakeBookings) Cancel(_ context.Context, booking *models.Booking, platformShare, organizerShare decimal.Decimal) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	stored, ok := f.bookings[booking.ID]
	if !ok {
		return fmt.Errorf("%w: booking %d", apperrors.ErrNotFound, booking.ID)
	}
	if stored.Status == models.BookingCancelled || stored.Status == models.BookingRefunded {
		return apperrors.ErrAlreadyCancelled
	}
	stored.Status = booking.Status
	stored.PaymentStatus = booking.PaymentStatus
	stored.Notes = booking.Notes
	return nil
}

func (f *fakeBookings) UpdateStatus(_ context.Context, booking *models.Booking) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	stored, ok := f.bookings[booking.ID]
	if !ok {
		return fmt.Errorf("%w: booking %d", apperrors.ErrNotFound, booking.ID)
	}
	stored.Status = booking.Status
	stored.PaymentStatus = booking.PaymentStatus
	return nil
}

func (f *fakeBookings) CheckIn(_ context.Context, id int64, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	stored, ok := f.bookings[id]
	if !ok {
		return fmt.Errorf("%w: booking %d", apperrors.ErrNotFound, id)
	}
	stored.CheckInStatus = models.CheckInDone
	stored.CheckInTime = &at
	return nil
}

type fakePublisher struct {
	mu       sync.Mutex
	subjects []string
}

func (f *fakePublisher) Publish(subject string, data interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subjects = append(f.subjects, subject)
	return nil
}

func (f *fakePublisher) published() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.subjects...)
}
