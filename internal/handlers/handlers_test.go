package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	apperrors "afisha/internal/errors"
	"afisha/internal/middleware"
	"afisha/internal/models"
	"afisha/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// In-memory stores backing the handler tests. Same conditional semantics as the
// Postgres repositories, enough to drive the endpoints end to end.

type memWallets struct {
	mu           sync.Mutex
	balances     map[int64]decimal.Decimal
	transactions []models.WalletTransaction
}

func (m *memWallets) Get(_ context.Context, userID int64) (*models.Wallet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return &models.Wallet{UserID: userID, Balance: m.balances[userID], Currency: "USD"}, nil
}

func (m *memWallets) Credit(_ context.Context, userID int64, amount decimal.Decimal, description, paymentMethod string, bookingID *int64) (*models.WalletTransaction, error) {
	return m.append(userID, amount, models.TxCredit, description, paymentMethod, bookingID)
}

func (m *memWallets) Refund(_ context.Context, userID int64, amount decimal.Decimal, description string, bookingID *int64) (*models.WalletTransaction, error) {
	return m.append(userID, amount, models.TxRefund, description, models.MethodRefund, bookingID)
}

func (m *memWallets) Debit(_ context.Context, userID int64, amount decimal.Decimal, description string, bookingID *int64) (*models.WalletTransaction, error) {
	m.mu.Lock()
	available := m.balances[userID]
	if available.LessThan(amount) {
		m.mu.Unlock()
		return nil, &apperrors.InsufficientBalanceError{Required: amount, Available: available}
	}
	m.balances[userID] = available.Sub(amount)
	m.mu.Unlock()

	t := models.WalletTransaction{Type: models.TxDebit, UserID: userID, Amount: amount, Status: "completed"}
	return &t, nil
}

func (m *memWallets) append(userID int64, amount decimal.Decimal, txType, description, paymentMethod string, bookingID *int64) (*models.WalletTransaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balances[userID] = m.balances[userID].Add(amount)
	t := models.WalletTransaction{
		ID: fmt.Sprintf("tx-%d", len(m.transactions)), UserID: userID, Type: txType,
		Amount: amount, Description: description, PaymentMethod: paymentMethod,
		BookingID: bookingID, Status: "completed", CreatedAt: time.Now(),
	}
	m.transactions = append(m.transactions, t)
	return &t, nil
}

func (m *memWallets) ListTransactions(_ context.Context, userID int64, page, pageSize int, typeFilter string) ([]models.WalletTransaction, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []models.WalletTransaction
	for i := len(m.transactions) - 1; i >= 0; i-- {
		t := m.transactions[i]
		if t.UserID == userID && (typeFilter == "" || t.Type == typeFilter) {
			result = append(result, t)
		}
	}
	return result, len(result), nil
}

type memEvents struct {
	mu     sync.Mutex
	events map[int64]*models.Event
}

func (m *memEvents) Create(_ context.Context, event *models.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	event.ID = int64(len(m.events) + 1)
	m.events[event.ID] = event
	return nil
}

func (m *memEvents) GetByID(_ context.Context, id int64) (*models.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	event, ok := m.events[id]
	if !ok {
		return nil, nil
	}
	copied := *event
	copied.Tiers = append([]models.TicketTier(nil), event.Tiers...)
	return &copied, nil
}

func (m *memEvents) List(_ context.Context, page, pageSize int) ([]models.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var events []models.Event
	for _, event := range m.events {
		if event.Status == models.EventPublished {
			events = append(events, *event)
		}
	}
	return events, nil
}

func (m *memEvents) Reserve(_ context.Context, eventID int64, lines []models.TicketLine) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	event := m.events[eventID]
	for _, line := range lines {
		tier := event.Tier(line.TierName)
		if tier == nil {
			return fmt.Errorf("%w: %s", apperrors.ErrInvalidTier, line.TierName)
		}
		if tier.Quantity != nil && tier.Sold+line.Quantity > *tier.Quantity {
			return fmt.Errorf("%w for %s", apperrors.ErrSoldOut, line.TierName)
		}
	}
	for _, line := range lines {
		event.Tier(line.TierName).Sold += line.Quantity
	}
	return nil
}

func (m *memEvents) Release(_ context.Context, eventID int64, lines []models.TicketLine) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	event := m.events[eventID]
	for _, line := range lines {
		if tier := event.Tier(line.TierName); tier != nil && tier.Sold >= line.Quantity {
			tier.Sold -= line.Quantity
		}
	}
	return nil
}

type memBookings struct {
	mu       sync.Mutex
	bookings map[int64]*models.Booking
}

func (m *memBookings) Create(_ context.Context, booking *models.Booking, platformShare, organizerShare decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	booking.ID = int64(len(m.bookings) + 1)
	booking.CreatedAt = time.Now()
	booking.UpdatedAt = booking.CreatedAt
	copied := *booking
	m.bookings[booking.ID] = &copied
	return nil
}

func (m *memBookings) GetByID(_ context.Context, id int64) (*models.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	booking, ok := m.bookings[id]
	if !ok {
		return nil, nil
	}
	copied := *booking
	return &copied, nil
}

func (m *memBookings) ListByUser(_ context.Context, userID int64, status string, page, pageSize int) ([]models.Booking, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []models.Booking
	for _, booking := range m.bookings {
		if booking.UserID == userID && (status == "" || booking.Status == status) {
			result = append(result, *booking)
		}
	}
	return result, len(result), nil
}

func (m *memBookings) ListByEvent(_ context.Context, eventID int64, status string, page, pageSize int) ([]models.Booking, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []models.Booking
	for _, booking := range m.bookings {
		if booking.EventID == eventID && (status == "" || booking.Status == status) {
			result = append(result, *booking)
		}
	}
	return result, len(result), nil
}

func (m *memBookings) Cancel(_ context.Context, booking *models.Booking, platformShare, organizerShare decimal.Decimal) error {
	m.mu.Lock()
	stored, ok := m.bookings[booking.ID]
	if ok && (stored.Status == models.BookingCancelled || stored.Status == models.BookingRefunded) {
		m.mu.Unlock()
		return apperrors.ErrAlreadyCancelled
	}
	m.mu.Unlock()
	return m.UpdateStatus(context.Background(), booking)
}

func (m *memBookings) UpdateStatus(_ context.Context, booking *models.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.bookings[booking.ID]
	if !ok {
		return fmt.Errorf("booking %d not found", booking.ID)
	}
	stored.Status = booking.Status
	stored.PaymentStatus = booking.PaymentStatus
	stored.Notes = booking.Notes
	return nil
}

func (m *memBookings) CheckIn(_ context.Context, id int64, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.bookings[id]
	if !ok {
		return fmt.Errorf("booking %d not found", id)
	}
	stored.CheckInStatus = models.CheckInDone
	stored.CheckInTime = &at
	return nil
}

type testEnv struct {
	router  *gin.Engine
	wallets *memWallets
	events  *memEvents
}

// authAs injects the given user the way BasicAuth does after verification
func authAs(user *models.User) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user_id", user.UserID)
		c.Request = c.Request.WithContext(middleware.ContextWithUser(c.Request.Context(), user))
		c.Next()
	}
}

func setupEnv(t *testing.T, user *models.User) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	wallets := &memWallets{balances: make(map[int64]decimal.Decimal)}
	events := &memEvents{events: make(map[int64]*models.Event)}
	bookings := &memBookings{bookings: make(map[int64]*models.Booking)}

	events.events[1] = &models.Event{
		ID:          1,
		Title:       "Summer Concert",
		OrganizerID: 99,
		Status:      models.EventPublished,
		StartsAt:    time.Now().Add(24 * time.Hour),
		EndsAt:      time.Now().Add(28 * time.Hour),
		Currency:    "USD",
		Tiers: []models.TicketTier{
			{EventID: 1, Name: "standard", Price: decimal.NewFromInt(75), Quantity: func() *int { v := 10; return &v }()},
		},
	}

	services := &service.Services{
		Events:   service.NewEventService(events, nil),
		Wallets:  service.NewWalletService(wallets),
		Bookings: service.NewBookingService(bookings, events, wallets, nil),
	}
	h := NewHandlers(services)

	r := gin.New()
	api := r.Group("/api")
	api.Use(authAs(user))

	bookingRoutes := api.Group("/bookings")
	{
		bookingRoutes.POST("", h.CreateBooking)
		bookingRoutes.GET("", h.ListBookings)
		bookingRoutes.GET("/:id", h.GetBooking)
		bookingRoutes.PUT("/:id/cancel", h.CancelBooking)
		bookingRoutes.PUT("/:id/confirm", h.ConfirmBooking)
		bookingRoutes.PUT("/:id/checkin", h.CheckInBooking)
		bookingRoutes.GET("/:id/qrcode", h.BookingQRCode)
	}

	walletRoutes := api.Group("/users/:id/wallet")
	{
		walletRoutes.GET("", h.GetWallet)
		walletRoutes.POST("/recharge", h.RechargeWallet)
		walletRoutes.GET("/transactions", h.ListWalletTransactions)
	}

	eventRoutes := api.Group("/events")
	{
		eventRoutes.POST("", h.CreateEvent)
		eventRoutes.GET("", h.ListEvents)
		eventRoutes.GET("/:id", h.GetEvent)
		eventRoutes.GET("/:id/bookings", h.ListEventBookings)
	}

	return &testEnv{router: r, wallets: wallets, events: events}
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req, err := http.NewRequest(method, path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func bookingRequest() *models.CreateBookingRequest {
	return &models.CreateBookingRequest{
		EventID: 1,
		Tickets: []models.TicketSelection{{Tier: "standard", Quantity: 2}},
		AttendeeInfo: models.AttendeeInfo{
			Name:  "Dana Serik",
			Email: "dana@example.com",
		},
		PaymentMethod: models.MethodWallet,
	}
}

func TestRechargeAndGetWallet(t *testing.T) {
	env := setupEnv(t, &models.User{UserID: 1, Role: models.RoleUser, IsActive: true})

	w := env.do(t, "POST", "/api/users/1/wallet/recharge", models.RechargeWalletRequest{
		Amount:        decimal.NewFromInt(200),
		PaymentMethod: models.MethodStripe,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var recharge models.RechargeWalletResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &recharge))
	assert.True(t, recharge.Wallet.Balance.Equal(decimal.NewFromInt(200)))
	assert.Equal(t, models.TxCredit, recharge.Transaction.Type)

	w = env.do(t, "GET", "/api/users/1/wallet", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var wallet models.WalletResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &wallet))
	assert.True(t, wallet.Wallet.Balance.Equal(decimal.NewFromInt(200)))
}

func TestRechargeRejectsNegativeAmount(t *testing.T) {
	env := setupEnv(t, &models.User{UserID: 1, Role: models.RoleUser, IsActive: true})

	w := env.do(t, "POST", "/api/users/1/wallet/recharge", models.RechargeWalletRequest{
		Amount:        decimal.NewFromInt(-50),
		PaymentMethod: models.MethodStripe,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWalletForbiddenForOtherUser(t *testing.T) {
	env := setupEnv(t, &models.User{UserID: 2, Role: models.RoleUser, IsActive: true})

	w := env.do(t, "GET", "/api/users/1/wallet", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestCreateBookingEndpoint(t *testing.T) {
	env := setupEnv(t, &models.User{UserID: 1, Role: models.RoleUser, IsActive: true})
	env.wallets.balances[1] = decimal.NewFromInt(200)

	w := env.do(t, "POST", "/api/bookings", bookingRequest())
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var response models.BookingResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.NotNil(t, response.Booking)
	assert.Equal(t, models.BookingConfirmed, response.Booking.Status)
	assert.True(t, response.Booking.TotalAmount.Equal(decimal.NewFromInt(150)))
	assert.NotEmpty(t, response.Booking.Reference)
}

func TestCreateBookingInsufficientBalanceEndpoint(t *testing.T) {
	env := setupEnv(t, &models.User{UserID: 1, Role: models.RoleUser, IsActive: true})
	env.wallets.balances[1] = decimal.NewFromInt(50)

	w := env.do(t, "POST", "/api/bookings", bookingRequest())
	require.Equal(t, http.StatusBadRequest, w.Code)

	var body struct {
		Message   string          `json:"message"`
		Required  decimal.Decimal `json:"required"`
		Available decimal.Decimal `json:"available"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Insufficient wallet balance", body.Message)
	assert.True(t, body.Required.Equal(decimal.NewFromInt(150)))
	assert.True(t, body.Available.Equal(decimal.NewFromInt(50)))
}

func TestCreateBookingValidation(t *testing.T) {
	env := setupEnv(t, &models.User{UserID: 1, Role: models.RoleUser, IsActive: true})

	req := bookingRequest()
	req.Tickets = nil
	w := env.do(t, "POST", "/api/bookings", req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	req = bookingRequest()
	req.AttendeeInfo.Email = "not-an-email"
	w = env.do(t, "POST", "/api/bookings", req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCancelBookingEndpoint(t *testing.T) {
	env := setupEnv(t, &models.User{UserID: 1, Role: models.RoleUser, IsActive: true})
	env.wallets.balances[1] = decimal.NewFromInt(200)

	w := env.do(t, "POST", "/api/bookings", bookingRequest())
	require.Equal(t, http.StatusCreated, w.Code)

	var created models.BookingResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	path := fmt.Sprintf("/api/bookings/%d/cancel", created.Booking.ID)
	w = env.do(t, "PUT", path, models.CancelBookingRequest{Reason: "changed plans"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var cancelled models.BookingResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &cancelled))
	assert.Equal(t, models.BookingCancelled, cancelled.Booking.Status)
	assert.Equal(t, models.PaymentRefunded, cancelled.Booking.PaymentStatus)

	// Half of 150 returned on top of the remaining 50
	assert.True(t, env.wallets.balances[1].Equal(decimal.NewFromInt(125)))

	// Second cancel is rejected
	w = env.do(t, "PUT", path, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetBookingNotFoundEndpoint(t *testing.T) {
	env := setupEnv(t, &models.User{UserID: 1, Role: models.RoleUser, IsActive: true})

	w := env.do(t, "GET", "/api/bookings/999", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSoldOutEndpoint(t *testing.T) {
	env := setupEnv(t, &models.User{UserID: 1, Role: models.RoleUser, IsActive: true})
	env.wallets.balances[1] = decimal.NewFromInt(10000)

	req := bookingRequest()
	req.Tickets = []models.TicketSelection{{Tier: "standard", Quantity: 11}}
	w := env.do(t, "POST", "/api/bookings", req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateEventEndpoint(t *testing.T) {
	env := setupEnv(t, &models.User{UserID: 7, Role: models.RoleOrganizer, IsActive: true})

	w := env.do(t, "POST", "/api/events", models.CreateEventRequest{
		Title:    "Jazz Night",
		StartsAt: time.Now().Add(48 * time.Hour),
		EndsAt:   time.Now().Add(52 * time.Hour),
		Status:   models.EventPublished,
		Tiers:    []models.TierRequest{{Name: "standard", Price: decimal.NewFromInt(50)}},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var response models.CreateEventResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.NotZero(t, response.ID)
}

func TestCreateEventForbiddenEndpoint(t *testing.T) {
	env := setupEnv(t, &models.User{UserID: 1, Role: models.RoleUser, IsActive: true})

	w := env.do(t, "POST", "/api/events", models.CreateEventRequest{
		Title:    "Jazz Night",
		StartsAt: time.Now().Add(48 * time.Hour),
		EndsAt:   time.Now().Add(52 * time.Hour),
		Tiers:    []models.TierRequest{{Name: "standard", Price: decimal.NewFromInt(50)}},
	})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestGetEventEndpoint(t *testing.T) {
	env := setupEnv(t, &models.User{UserID: 1, Role: models.RoleUser, IsActive: true})

	w := env.do(t, "GET", "/api/events/1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var event models.Event
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &event))
	assert.Equal(t, "Summer Concert", event.Title)
	require.Len(t, event.Tiers, 1)
	assert.Equal(t, "standard", event.Tiers[0].Name)
}
