package handlers

import (
	"net/http"

	"afisha/internal/models"

	"github.com/gin-gonic/gin"
)

// Bookings handlers

// CreateBooking - POST /api/bookings
// Создать бронирование
func (h *Handlers) CreateBooking(c *gin.Context) {
	var req models.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	booking, err := h.services.Bookings.Create(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, models.BookingResponse{
		Message: "Booking created successfully",
		Booking: booking,
	})
}

// ListBookings - GET /api/bookings
// Получить бронирования текущего пользователя
func (h *Handlers) ListBookings(c *gin.Context) {
	page, pageSize := pageParams(c)

	response, err := h.services.Bookings.ListByUser(c.Request.Context(), c.Query("status"), page, pageSize)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// GetBooking - GET /api/bookings/:id
// Получить бронирование
func (h *Handlers) GetBooking(c *gin.Context) {
	id := pathID(c, "id")
	if id == 0 {
		respondBadRequest(c, "invalid booking id")
		return
	}

	booking, err := h.services.Bookings.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.BookingResponse{Booking: booking})
}

// CancelBooking - PUT /api/bookings/:id/cancel
// Отменить бронирование
func (h *Handlers) CancelBooking(c *gin.Context) {
	id := pathID(c, "id")
	if id == 0 {
		respondBadRequest(c, "invalid booking id")
		return
	}

	// Тело не обязательно, причина опциональна
	var req models.CancelBookingRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBadRequest(c, err.Error())
			return
		}
	}

	booking, err := h.services.Bookings.Cancel(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.BookingResponse{
		Message: "Booking cancelled successfully",
		Booking: booking,
	})
}

// ConfirmBooking - PUT /api/bookings/:id/confirm
// Подтвердить бронирование после внешней оплаты
func (h *Handlers) ConfirmBooking(c *gin.Context) {
	id := pathID(c, "id")
	if id == 0 {
		respondBadRequest(c, "invalid booking id")
		return
	}

	var req models.ConfirmBookingRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBadRequest(c, err.Error())
			return
		}
	}

	booking, err := h.services.Bookings.Confirm(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.BookingResponse{
		Message: "Booking confirmed successfully",
		Booking: booking,
	})
}

// CheckInBooking - PUT /api/bookings/:id/checkin
// Отметить посетителя как пришедшего
func (h *Handlers) CheckInBooking(c *gin.Context) {
	id := pathID(c, "id")
	if id == 0 {
		respondBadRequest(c, "invalid booking id")
		return
	}

	booking, err := h.services.Bookings.CheckIn(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.BookingResponse{
		Message: "Checked in successfully",
		Booking: booking,
	})
}

// BookingQRCode - GET /api/bookings/:id/qrcode
// Данные для QR-кода билета
func (h *Handlers) BookingQRCode(c *gin.Context) {
	id := pathID(c, "id")
	if id == 0 {
		respondBadRequest(c, "invalid booking id")
		return
	}

	payload, err := h.services.Bookings.QRPayload(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, payload)
}

// ListEventBookings - GET /api/events/:id/bookings
// Бронирования события для организатора
func (h *Handlers) ListEventBookings(c *gin.Context) {
	eventID := pathID(c, "id")
	if eventID == 0 {
		respondBadRequest(c, "invalid event id")
		return
	}

	page, pageSize := pageParams(c)
	response, err := h.services.Bookings.ListByEvent(c.Request.Context(), eventID, c.Query("status"), page, pageSize)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}
