package service

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"go-med-predict/internal/event"
	"go-med-predict/internal/model"
	"go-med-predict/pkg/apierror"
)

const defaultAuditCapacity = 1000

// AuditService keeps the most recent bus events in a fixed-size ring.
type AuditService struct {
	mu       sync.RWMutex
	entries  []event.Event
	next     int
	full     bool
	capacity int
}

func NewAuditService(capacity int) *AuditService {
	if capacity <= 0 {
		capacity = defaultAuditCapacity
	}
	return &AuditService{entries: make([]event.Event, capacity), capacity: capacity}
}

// Run records every event published on bus until ctx is done.
func (s *AuditService) Run(ctx context.Context, bus event.Bus) {
	events, unsubscribe := bus.Subscribe("audit")
	defer unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			s.Record(e)
		}
	}
}

func (s *AuditService) Record(e event.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[s.next] = e
	s.next = (s.next + 1) % s.capacity
	if s.next == 0 {
		s.full = true
	}
}

// Query returns matching events newest first.
func (s *AuditService) Query(query model.AuditQuery) ([]event.Event, model.Meta, error) {
	if query.Page < 1 {
		query.Page = 1
	}
	if query.Limit <= 0 {
		query.Limit = 50
	}
	if query.Limit > 200 {
		query.Limit = 200
	}

	from, err := parseOptionalAuditTime(query.From)
	if err != nil {
		return nil, model.Meta{}, apierror.New(apierror.CodeBadRequest, "invalid 'from' datetime format", query.From, http.StatusBadRequest)
	}

	to, err := parseOptionalAuditTime(query.To)
	if err != nil {
		return nil, model.Meta{}, apierror.New(apierror.CodeBadRequest, "invalid 'to' datetime format", query.To, http.StatusBadRequest)
	}

	typ := strings.ToLower(strings.TrimSpace(query.Type))
	actorID := strings.TrimSpace(query.ActorID)

	s.mu.RLock()
	defer s.mu.RUnlock()

	count := s.next
	if s.full {
		count = s.capacity
	}

	items := make([]event.Event, 0, min(count, 128))
	for i := 1; i <= count; i++ {
		entry := s.entries[(s.next-i+s.capacity)%s.capacity]

		if typ != "" && strings.ToLower(string(entry.Type)) != typ {
			continue
		}
		if actorID != "" && entry.ActorID != actorID {
			continue
		}

		if !from.IsZero() || !to.IsZero() {
			at, timeErr := parseAuditTime(entry.Timestamp)
			if timeErr != nil {
				continue
			}
			if !from.IsZero() && at.Before(from) {
				continue
			}
			if !to.IsZero() && at.After(to) {
				continue
			}
		}

		items = append(items, entry)
	}

	total := len(items)
	start := min((query.Page-1)*query.Limit, total)
	end := min(start+query.Limit, total)

	totalPages := 0
	if total > 0 {
		totalPages = (total + query.Limit - 1) / query.Limit
	}

	meta := model.Meta{Page: query.Page, Limit: query.Limit, Total: total, TotalPages: totalPages}
	return items[start:end], meta, nil
}

func parseOptionalAuditTime(raw string) (time.Time, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return time.Time{}, nil
	}

	return parseAuditTime(trimmed)
}

func parseAuditTime(raw string) (time.Time, error) {
	if value, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return value.UTC(), nil
	}

	value, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, err
	}

	return value.UTC(), nil
}
