package repository

import (
	"afisha/internal/database"
)

type Repositories struct {
	Users    *UserRepository
	Wallets  *WalletRepository
	Events   *EventRepository
	Bookings *BookingRepository
}

func NewRepositories(db *database.DB) *Repositories {
	return &Repositories{
		Users:    NewUserRepository(db),
		Wallets:  NewWalletRepository(db),
		Events:   NewEventRepository(db),
		Bookings: NewBookingRepository(db),
	}
}
