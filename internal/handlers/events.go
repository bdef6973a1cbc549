package handlers

import (
	"net/http"

	"afisha/internal/models"

	"github.com/gin-gonic/gin"
)

// Events handlers

// CreateEvent - POST /api/events
// Создать событие
func (h *Handlers) CreateEvent(c *gin.Context) {
	var req models.CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	event, err := h.services.Events.Create(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, models.CreateEventResponse{ID: event.ID})
}

// ListEvents - GET /api/events
// Получить список событий, опционально с поиском по тексту и дате
func (h *Handlers) ListEvents(c *gin.Context) {
	page, pageSize := pageParams(c)

	response, err := h.services.Events.List(c.Request.Context(), c.Query("query"), c.Query("date"), page, pageSize)
	if err != nil {
		respondError(c, err)
		return
	}

	if response == nil {
		response = models.ListEventsResponse{}
	}
	c.JSON(http.StatusOK, response)
}

// GetEvent - GET /api/events/:id
// Получить событие с категориями билетов
func (h *Handlers) GetEvent(c *gin.Context) {
	id := pathID(c, "id")
	if id == 0 {
		respondBadRequest(c, "invalid event id")
		return
	}

	event, err := h.services.Events.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, event)
}
