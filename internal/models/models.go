package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Pagination - общие сведения о страницах для списочных ответов
type Pagination struct {
	CurrentPage int `json:"currentPage"`
	TotalPages  int `json:"totalPages"`
	TotalItems  int `json:"totalItems"`
}

// TicketSelection - запрошенное количество билетов одной категории
type TicketSelection struct {
	Tier     string `json:"tier" binding:"required"`
	Quantity int    `json:"quantity" binding:"required,min=1"`
}

// AttendeeInfo - контактные данные посетителя
type AttendeeInfo struct {
	Name                string `json:"name" binding:"required,min=2"`
	Email               string `json:"email" binding:"required,email"`
	Phone               string `json:"phone,omitempty"`
	SpecialRequirements string `json:"specialRequirements,omitempty"`
}

// CreateBookingRequest - модель для создания бронирования
type CreateBookingRequest struct {
	EventID       int64             `json:"eventId" binding:"required"`
	Tickets       []TicketSelection `json:"tickets" binding:"required,min=1,dive"`
	AttendeeInfo  AttendeeInfo      `json:"attendeeInfo" binding:"required"`
	PaymentMethod string            `json:"paymentMethod" binding:"omitempty,oneof=stripe paypal bank_transfer wallet"`
}

// CancelBookingRequest - модель для отмены бронирования
type CancelBookingRequest struct {
	Reason string `json:"reason,omitempty"`
}

// ConfirmBookingRequest - модель для подтверждения бронирования после внешней оплаты
type ConfirmBookingRequest struct {
	PaymentIntentID string `json:"paymentIntentId,omitempty"`
	TransactionID   string `json:"transactionId,omitempty"`
}

// BookingResponse - ответ с одним бронированием
type BookingResponse struct {
	Message string   `json:"message,omitempty"`
	Booking *Booking `json:"booking"`
}

// BookingListResponse - список бронирований
type BookingListResponse struct {
	Bookings   []Booking  `json:"bookings"`
	Pagination Pagination `json:"pagination"`
}

// QRCodePayload - данные для QR-кода билета; кодирование в изображение выполняет клиент
type QRCodePayload struct {
	BookingReference string          `json:"bookingReference"`
	EventID          int64           `json:"event"`
	UserID           int64           `json:"user"`
	TotalAmount      decimal.Decimal `json:"totalAmount"`
	Status           string          `json:"status"`
}

// RechargeWalletRequest - модель для пополнения кошелька
type RechargeWalletRequest struct {
	Amount        decimal.Decimal `json:"amount" binding:"required"`
	PaymentMethod string          `json:"paymentMethod" binding:"required,oneof=stripe paypal bank_transfer"`
	Description   string          `json:"description,omitempty"`
}

// WalletResponse - ответ с кошельком
type WalletResponse struct {
	Wallet *Wallet `json:"wallet"`
}

// RechargeWalletResponse - ответ на пополнение кошелька
type RechargeWalletResponse struct {
	Message     string             `json:"message"`
	Wallet      *Wallet            `json:"wallet"`
	Transaction *WalletTransaction `json:"transaction"`
}

// WalletSummary - баланс без истории операций
type WalletSummary struct {
	Balance  decimal.Decimal `json:"balance"`
	Currency string          `json:"currency"`
}

// TransactionListResponse - история операций кошелька, новые первыми
type TransactionListResponse struct {
	Transactions []WalletTransaction `json:"transactions"`
	Pagination   Pagination          `json:"pagination"`
	Wallet       WalletSummary       `json:"wallet"`
}

// TierRequest - категория билетов при создании события
type TierRequest struct {
	Name     string          `json:"name" binding:"required"`
	Price    decimal.Decimal `json:"price"`
	Quantity *int            `json:"quantity,omitempty"`
}

// CreateEventRequest - модель для создания события
type CreateEventRequest struct {
	Title         string        `json:"title" binding:"required"`
	Description   string        `json:"description,omitempty"`
	StartsAt      time.Time     `json:"startsAt" binding:"required"`
	EndsAt        time.Time     `json:"endsAt" binding:"required"`
	Currency      string        `json:"currency" binding:"omitempty,len=3"`
	CapacityTotal *int          `json:"capacityTotal,omitempty"`
	Status        string        `json:"status" binding:"omitempty,oneof=draft published"`
	Tiers         []TierRequest `json:"tiers" binding:"required,min=1,dive"`
}

// CreateEventResponse - модель ответа при создании события
type CreateEventResponse struct {
	ID int64 `json:"id"`
}

// ListEventsResponseItem - элемент списка событий
type ListEventsResponseItem struct {
	ID       int64     `json:"id"`
	Title    string    `json:"title"`
	StartsAt time.Time `json:"startsAt"`
	Status   string    `json:"status"`
}

// ListEventsResponse - список событий
type ListEventsResponse []ListEventsResponseItem
