package service

import (
	"context"
	"fmt"
	"time"

	apperrors "afisha/internal/errors"
	"afisha/internal/logger"
	"afisha/internal/middleware"
	"afisha/internal/models"
)

type EventService struct {
	eventRepo EventStore
	indexer   EventIndexer
}

func NewEventService(eventRepo EventStore, indexer EventIndexer) *EventService {
	return &EventService{
		eventRepo: eventRepo,
		indexer:   indexer,
	}
}

// Create publishes a new event with its pricing tiers. Only organizers and
// admins may create events.
func (s *EventService) Create(ctx context.Context, req *models.CreateEventRequest) (*models.Event, error) {
	user, ok := middleware.UserFromContext(ctx)
	if !ok {
		return nil, apperrors.ErrUnauthorized
	}
	if user.Role != models.RoleOrganizer && !user.IsAdmin() {
		return nil, apperrors.ErrForbidden
	}

	if err := validateEventRequest(req); err != nil {
		return nil, err
	}

	status := req.Status
	if status == "" {
		status = models.EventDraft
	}
	currency := req.Currency
	if currency == "" {
		currency = "USD"
	}

	event := &models.Event{
		Title:         req.Title,
		OrganizerID:   user.UserID,
		Status:        status,
		StartsAt:      req.StartsAt,
		EndsAt:        req.EndsAt,
		Currency:      currency,
		CapacityTotal: req.CapacityTotal,
	}
	if req.Description != "" {
		event.Description = &req.Description
	}
	for _, tier := range req.Tiers {
		event.Tiers = append(event.Tiers, models.TicketTier{
			Name:     tier.Name,
			Price:    tier.Price,
			Quantity: tier.Quantity,
		})
	}

	if err := s.eventRepo.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	// Search indexing is best effort; Postgres stays the source of truth
	if s.indexer != nil {
		if err := s.indexer.IndexEvent(ctx, event); err != nil {
			logger.WithContext(ctx).Error("Failed to index event",
				"error", err,
				"event_id", event.ID)
		}
	}

	return event, nil
}

func (s *EventService) GetByID(ctx context.Context, id int64) (*models.Event, error) {
	event, err := s.eventRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	if event == nil {
		return nil, fmt.Errorf("%w: event %d", apperrors.ErrNotFound, id)
	}
	return event, nil
}

// List returns published events. With a query or date filter the lookup goes
// through Elasticsearch and the hits are hydrated from Postgres; otherwise it
// is a plain paginated listing. If the search side fails, we degrade to the
// unfiltered listing rather than erroring the whole endpoint.
func (s *EventService) List(ctx context.Context, query, date string, page, pageSize int) (models.ListEventsResponse, error) {
	page, pageSize = normalizePage(page, pageSize)

	if s.indexer != nil && (query != "" || date != "") {
		ids, _, err := s.indexer.Search(ctx, query, date, page, pageSize)
		if err != nil {
			logger.WithContext(ctx).Error("Event search failed, falling back to listing",
				"error", err,
				"query", query)
		} else {
			return s.hydrate(ctx, ids)
		}
	}

	events, err := s.eventRepo.List(ctx, page, pageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	result := make(models.ListEventsResponse, len(events))
	for i, event := range events {
		result[i] = listItem(&event)
	}
	return result, nil
}

func (s *EventService) hydrate(ctx context.Context, ids []int64) (models.ListEventsResponse, error) {
	result := make(models.ListEventsResponse, 0, len(ids))
	for _, id := range ids {
		event, err := s.eventRepo.GetByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to get event %d: %w", id, err)
		}
		if event == nil {
			// Stale index entry, skip
			continue
		}
		result = append(result, listItem(event))
	}
	return result, nil
}

func listItem(event *models.Event) models.ListEventsResponseItem {
	return models.ListEventsResponseItem{
		ID:       event.ID,
		Title:    event.Title,
		StartsAt: event.StartsAt,
		Status:   event.Status,
	}
}

func validateEventRequest(req *models.CreateEventRequest) error {
	if !req.EndsAt.After(req.StartsAt) {
		return fmt.Errorf("%w: event must end after it starts", apperrors.ErrValidation)
	}
	if !req.StartsAt.After(time.Now()) {
		return fmt.Errorf("%w: event must start in the future", apperrors.ErrValidation)
	}

	seen := make(map[string]bool, len(req.Tiers))
	for _, tier := range req.Tiers {
		if tier.Name == "" {
			return fmt.Errorf("%w: tier name is required", apperrors.ErrValidation)
		}
		if seen[tier.Name] {
			return fmt.Errorf("%w: duplicate tier %s", apperrors.ErrValidation, tier.Name)
		}
		seen[tier.Name] = true

		if tier.Price.IsNegative() {
			return fmt.Errorf("%w: tier price cannot be negative", apperrors.ErrValidation)
		}
		if tier.Quantity != nil && *tier.Quantity <= 0 {
			return fmt.Errorf("%w: tier quantity must be positive", apperrors.ErrValidation)
		}
	}

	return nil
}
