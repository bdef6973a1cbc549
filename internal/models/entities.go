package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// User roles
const (
	RoleUser      = "user"
	RoleOrganizer = "organizer"
	RoleAdmin     = "admin"
)

// Booking statuses
const (
	BookingPending   = "pending"
	BookingConfirmed = "confirmed"
	BookingCancelled = "cancelled"
	BookingRefunded  = "refunded"
)

// Payment statuses
const (
	PaymentPending  = "pending"
	PaymentPaid     = "paid"
	PaymentFailed   = "failed"
	PaymentRefunded = "refunded"
)

// Check-in statuses
const (
	CheckInNone   = "not_checked_in"
	CheckInDone   = "checked_in"
	CheckInNoShow = "no_show"
)

// Wallet transaction types
const (
	TxCredit = "credit"
	TxDebit  = "debit"
	TxRefund = "refund"
)

// Payment methods
const (
	MethodStripe       = "stripe"
	MethodPaypal       = "paypal"
	MethodBankTransfer = "bank_transfer"
	MethodWallet       = "wallet"
	MethodRefund       = "refund"
)

// Event statuses
const (
	EventDraft     = "draft"
	EventPublished = "published"
	EventCancelled = "cancelled"
	EventCompleted = "completed"
)

// User represents a user in the system
type User struct {
	UserID       int64     `json:"user_id" db:"user_id"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Name         string    `json:"name" db:"name"`
	Role         string    `json:"role" db:"role"`
	IsActive     bool      `json:"is_active" db:"is_active"`
	RegisteredAt time.Time `json:"registered_at" db:"registered_at"`
}

// IsAdmin reports whether the user has the admin role
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Wallet represents a user's wallet balance
type Wallet struct {
	UserID    int64           `json:"user_id" db:"user_id"`
	Balance   decimal.Decimal `json:"balance" db:"balance"`
	Currency  string          `json:"currency" db:"currency"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt time.Time       `json:"updated_at" db:"updated_at"`
}

// WalletTransaction is an append-only ledger entry; rows are never updated,
// corrections are always new compensating transactions
type WalletTransaction struct {
	ID            string          `json:"id" db:"id"`
	UserID        int64           `json:"user_id" db:"user_id"`
	Type          string          `json:"type" db:"type"`
	Amount        decimal.Decimal `json:"amount" db:"amount"`
	Description   string          `json:"description" db:"description"`
	BookingID     *int64          `json:"booking_id,omitempty" db:"booking_id"`
	PaymentMethod string          `json:"payment_method" db:"payment_method"`
	Status        string          `json:"status" db:"status"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
}

// Event represents an event with its capacity and revenue counters
type Event struct {
	ID               int64           `json:"id" db:"id"`
	Title            string          `json:"title" db:"title"`
	Description      *string         `json:"description" db:"description"`
	OrganizerID      int64           `json:"organizer_id" db:"organizer_id"`
	Status           string          `json:"status" db:"status"`
	StartsAt         time.Time       `json:"starts_at" db:"starts_at"`
	EndsAt           time.Time       `json:"ends_at" db:"ends_at"`
	Currency         string          `json:"currency" db:"currency"`
	CapacityTotal    *int            `json:"capacity_total" db:"capacity_total"`
	CapacitySold     int             `json:"capacity_sold" db:"capacity_sold"`
	RevenueTotal     decimal.Decimal `json:"revenue_total" db:"revenue_total"`
	RevenuePlatform  decimal.Decimal `json:"revenue_platform" db:"revenue_platform"`
	RevenueOrganizer decimal.Decimal `json:"revenue_organizer" db:"revenue_organizer"`
	TicketsSold      int             `json:"tickets_sold" db:"tickets_sold"`
	Tiers            []TicketTier    `json:"tiers,omitempty"` // Not from the events table, filled separately
	CreatedAt        time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at" db:"updated_at"`
}

// Tier returns the pricing tier with the given name, or nil
func (e *Event) Tier(name string) *TicketTier {
	for i := range e.Tiers {
		if e.Tiers[i].Name == name {
			return &e.Tiers[i]
		}
	}
	return nil
}

// TicketTier is a priced ticket category with an optional cap
type TicketTier struct {
	EventID  int64           `json:"event_id" db:"event_id"`
	Name     string          `json:"name" db:"name"`
	Price    decimal.Decimal `json:"price" db:"price"`
	Quantity *int            `json:"quantity" db:"quantity"`
	Sold     int             `json:"sold" db:"sold"`
}

// Booking represents a booking; never physically deleted, retained for audit
type Booking struct {
	ID                  int64           `json:"id" db:"id"`
	Reference           string          `json:"reference" db:"reference"`
	UserID              int64           `json:"user_id" db:"user_id"`
	EventID             int64           `json:"event_id" db:"event_id"`
	Status              string          `json:"status" db:"status"`
	PaymentStatus       string          `json:"payment_status" db:"payment_status"`
	PaymentMethod       string          `json:"payment_method" db:"payment_method"`
	TotalAmount         decimal.Decimal `json:"total_amount" db:"total_amount"`
	Currency            string          `json:"currency" db:"currency"`
	Tickets             []TicketLine    `json:"tickets,omitempty"` // Not from the bookings table, filled separately
	AttendeeName        string          `json:"attendee_name" db:"attendee_name"`
	AttendeeEmail       string          `json:"attendee_email" db:"attendee_email"`
	AttendeePhone       *string         `json:"attendee_phone,omitempty" db:"attendee_phone"`
	SpecialRequirements *string         `json:"special_requirements,omitempty" db:"special_requirements"`
	CheckInStatus       string          `json:"check_in_status" db:"check_in_status"`
	CheckInTime         *time.Time      `json:"check_in_time,omitempty" db:"check_in_time"`
	Notes               *string         `json:"notes,omitempty" db:"notes"`
	CreatedAt           time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at" db:"updated_at"`
}

// TotalTickets returns the total quantity across all ticket lines
func (b *Booking) TotalTickets() int {
	total := 0
	for _, t := range b.Tickets {
		total += t.Quantity
	}
	return total
}

// TicketLine is a booked quantity of one tier; the tier name and unit price are
// snapshots taken at booking time and do not track later pricing changes
type TicketLine struct {
	TierName  string          `json:"tier_name" db:"tier_name"`
	UnitPrice decimal.Decimal `json:"unit_price" db:"unit_price"`
	Quantity  int             `json:"quantity" db:"quantity"`
	LineTotal decimal.Decimal `json:"line_total" db:"line_total"`
}
