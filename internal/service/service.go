package service

import (
	"context"
	"time"

	"afisha/internal/models"
	"afisha/internal/repository"
	"afisha/internal/search"

	"github.com/shopspring/decimal"
)

// Storage interfaces are declared on the consumer side so the booking flow can
// be tested against in-memory fakes. The Postgres repositories satisfy them.

type WalletLedger interface {
	Get(ctx context.Context, userID int64) (*models.Wallet, error)
	Credit(ctx context.Context, userID int64, amount decimal.Decimal, description, paymentMethod string, bookingID *int64) (*models.WalletTransaction, error)
	Debit(ctx context.Context, userID int64, amount decimal.Decimal, description string, bookingID *int64) (*models.WalletTransaction, error)
	Refund(ctx context.Context, userID int64, amount decimal.Decimal, description string, bookingID *int64) (*models.WalletTransaction, error)
	ListTransactions(ctx context.Context, userID int64, page, pageSize int, typeFilter string) ([]models.WalletTransaction, int, error)
}

type EventStore interface {
	Create(ctx context.Context, event *models.Event) error
	GetByID(ctx context.Context, id int64) (*models.Event, error)
	List(ctx context.Context, page, pageSize int) ([]models.Event, error)
	Reserve(ctx context.Context, eventID int64, lines []models.TicketLine) error
	Release(ctx context.Context, eventID int64, lines []models.TicketLine) error
}

type BookingStore interface {
	Create(ctx context.Context, booking *models.Booking, platformShare, organizerShare decimal.Decimal) error
	GetByID(ctx context.Context, id int64) (*models.Booking, error)
	ListByUser(ctx context.Context, userID int64, status string, page, pageSize int) ([]models.Booking, int, error)
	ListByEvent(ctx context.Context, eventID int64, status string, page, pageSize int) ([]models.Booking, int, error)
	Cancel(ctx context.Context, booking *models.Booking, platformShare, organizerShare decimal.Decimal) error
	UpdateStatus(ctx context.Context, booking *models.Booking) error
	CheckIn(ctx context.Context, id int64, at time.Time) error
}

type Publisher interface {
	Publish(subject string, data interface{}) error
}

type EventIndexer interface {
	IndexEvent(ctx context.Context, event *models.Event) error
	Search(ctx context.Context, query, date string, page, pageSize int) ([]int64, int64, error)
}

type Services struct {
	Events   *EventService
	Bookings *BookingService
	Wallets  *WalletService
}

func NewServices(repos *repository.Repositories, natsClient Publisher, searchClient *search.ElasticsearchClient) *Services {
	var indexer EventIndexer
	if searchClient != nil {
		indexer = searchClient
	}

	eventService := NewEventService(repos.Events, indexer)
	walletService := NewWalletService(repos.Wallets)
	bookingService := NewBookingService(repos.Bookings, repos.Events, repos.Wallets, natsClient)

	return &Services{
		Events:   eventService,
		Bookings: bookingService,
		Wallets:  walletService,
	}
}
