/*
handlers.go - HTTP API handlers for the visit engine

PURPOSE:
  Exposes schedule reads, subscription records and the admin override
  editor via REST. Handles request/response and JSON, delegating every
  decision to lawncare.Service.

ENDPOINTS:
  Plans:
    GET    /api/plans                           Plan catalogue

  Subscriptions:
    GET    /api/subscriptions                   List records
    POST   /api/subscriptions                   Create or update a record
    GET    /api/subscriptions/{id}              Record with override queue
    GET    /api/subscriptions/{id}/next         Next visit
    GET    /api/subscriptions/{id}/schedule     Next six visits
    PUT    /api/subscriptions/{id}/overrides    Replace override queue
    GET    /api/subscriptions/events            Change stream (server-sent events)

  Admin:
    GET    /api/admin/due-today                 Visits due today

READS WRITE:
  The next and schedule views may advance the override queue as a side
  effect. The response reports this with "advanced" (and "unsaved" when the
  write could not be persisted).

ERROR HANDLING:
  - 400: Validation errors, invalid input, unknown plan or status on write
  - 404: Subscription not found
  - 409: Override edit against a stale revision
  - 500: Internal errors
  A subscription without a plan is not an error: reads return 200 with
  "no_plan": true and no occurrences.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/greenround/visit-engine/generic"
	"github.com/greenround/visit-engine/lawncare"
	"github.com/greenround/visit-engine/logging"
	"github.com/greenround/visit-engine/notify"
)

// eventBuffer is the per-client backlog before events are dropped.
const eventBuffer = 16

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Service *lawncare.Service
	Events  *notify.Broadcaster
	Log     zerolog.Logger
}

// NewHandler creates a new handler backed by svc. events may be nil, in which
// case the change stream endpoint answers 503.
func NewHandler(svc *lawncare.Service, events *notify.Broadcaster, log zerolog.Logger) *Handler {
	return &Handler{
		Service: svc,
		Events:  events,
		Log:     logging.Component(log, "api"),
	}
}

// Healthz reports liveness.
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// PLAN HANDLERS
// =============================================================================

// ListPlans returns the plan catalogue.
func (h *Handler) ListPlans(w http.ResponseWriter, r *http.Request) {
	dtos := make([]PlanDTO, len(lawncare.AllPlans))
	for i, p := range lawncare.AllPlans {
		dtos[i] = toPlanDTO(p)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// SUBSCRIPTION HANDLERS
// =============================================================================

// ListSubscriptions returns all subscription records.
func (h *Handler) ListSubscriptions(w http.ResponseWriter, r *http.Request) {
	subs, err := h.Service.Subscriptions(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list subscriptions", err)
		return
	}

	dtos := make([]SubscriptionDTO, len(subs))
	for i, sub := range subs {
		dtos[i] = toSubscriptionDTO(sub)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// SaveSubscription creates a record or updates the plan fields of an
// existing one. The override queue is never touched here.
func (h *Handler) SaveSubscription(w http.ResponseWriter, r *http.Request) {
	var req CreateSubscriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	req.CustomerID = strings.TrimSpace(req.CustomerID)
	if req.CustomerID == "" {
		writeError(w, http.StatusBadRequest, "customer_id is required", nil)
		return
	}

	plan, err := lawncare.ParsePlan(req.Plan)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid plan", err)
		return
	}

	status := lawncare.StatusActive
	if strings.TrimSpace(req.Status) != "" {
		if status, err = lawncare.ParseStatus(req.Status); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid status", err)
			return
		}
	}

	sub := lawncare.Subscription{
		CustomerID: req.CustomerID,
		Plan:       plan,
		PlanDay:    strings.TrimSpace(req.PlanDay),
		Status:     status,
	}
	if req.PlanStart != nil {
		sub.PlanStart = *req.PlanStart
	}

	saved, err := h.Service.SaveSubscription(r.Context(), sub)
	if err != nil {
		writeServiceError(w, "Failed to save subscription", err)
		return
	}
	writeJSON(w, http.StatusCreated, toSubscriptionDTO(saved))
}

// GetSubscription returns one record with its raw override queue.
func (h *Handler) GetSubscription(w http.ResponseWriter, r *http.Request) {
	sub, err := h.Service.Subscription(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, "Failed to get subscription", err)
		return
	}
	writeJSON(w, http.StatusOK, toSubscriptionDTO(sub))
}

// GetNext returns the single next visit.
func (h *Handler) GetNext(w http.ResponseWriter, r *http.Request) {
	schedule, err := h.Service.NextOccurrence(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, "Failed to compute next visit", err)
		return
	}
	writeJSON(w, http.StatusOK, toScheduleDTO(schedule))
}

// GetSchedule returns the next six visits.
func (h *Handler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	schedule, err := h.Service.NextSixOccurrences(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, "Failed to compute schedule", err)
		return
	}
	writeJSON(w, http.StatusOK, toScheduleDTO(schedule))
}

// SetOverrides replaces the override queue. The body must carry all six
// slots and the revision the editor read.
func (h *Handler) SetOverrides(w http.ResponseWriter, r *http.Request) {
	customerID := chi.URLParam(r, "id")

	var req SetOverridesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if len(req.Overrides) != lawncare.QueueSize {
		writeError(w, http.StatusBadRequest, "Override queue must have exactly 6 slots", nil)
		return
	}

	var queue lawncare.OverrideQueue
	for i, dto := range req.Overrides {
		queue[i] = dto.toOverride(h.Service.Location)
	}

	saved, err := h.Service.SetOverrides(r.Context(), customerID, req.Revision, queue)
	if err != nil {
		writeServiceError(w, "Failed to update overrides", err)
		return
	}
	writeJSON(w, http.StatusOK, toSubscriptionDTO(saved))
}

// StreamEvents relays override queue changes to the client as server-sent
// events until the client disconnects. Each event is named after its reason
// and carries the same JSON body published to RabbitMQ.
func (h *Handler) StreamEvents(w http.ResponseWriter, r *http.Request) {
	if h.Events == nil {
		writeError(w, http.StatusServiceUnavailable, "Change stream not configured", nil)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "Streaming not supported", nil)
		return
	}

	events, cancel := h.Events.Subscribe(eventBuffer)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	log := h.Log.With().Str("stream", "changes").Logger()
	log.Debug().Msg("change stream client connected")
	defer log.Debug().Msg("change stream client disconnected")

	for {
		select {
		case <-r.Context().Done():
			return
		case event, open := <-events:
			if !open {
				return
			}
			data, err := json.Marshal(notify.NewChangeMessage(event))
			if err != nil {
				log.Error().Err(err).Str("event_id", event.ID).Msg("failed to encode change event")
				continue
			}
			if _, err := fmt.Fprintf(w, "id: %s\nevent: %s\ndata: %s\n\n", event.ID, event.Reason, data); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

// =============================================================================
// ADMIN HANDLERS
// =============================================================================

// DueToday lists every visit scheduled for today across serviceable
// subscriptions.
func (h *Handler) DueToday(w http.ResponseWriter, r *http.Request) {
	due, err := h.Service.DuePickupsToday(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to compute due pickups", err)
		return
	}

	dtos := make([]DuePickupDTO, len(due))
	for i, d := range due {
		dtos[i] = DuePickupDTO{CustomerID: d.CustomerID, Occurrence: toOccurrenceDTO(d.Occurrence)}
	}
	writeJSON(w, http.StatusOK, DueTodayDTO{
		Date:    h.Service.Today().String(),
		Pickups: dtos,
	})
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeServiceError maps domain errors to HTTP status codes.
func writeServiceError(w http.ResponseWriter, message string, err error) {
	var conflict *generic.RevisionConflictError
	switch {
	case generic.IsNotFound(err):
		writeError(w, http.StatusNotFound, "Subscription not found", err)
	case errors.As(err, &conflict):
		writeJSON(w, http.StatusConflict, ErrorResponse{
			Error:   "Override queue was modified concurrently",
			Details: map[string]int64{"expected_revision": conflict.Expected, "current_revision": conflict.Actual},
		})
	case generic.IsConflict(err):
		writeError(w, http.StatusConflict, "Override queue was modified concurrently", err)
	case lawncare.IsNoPlan(err):
		writeError(w, http.StatusBadRequest, "Invalid plan", err)
	case errors.Is(err, lawncare.ErrUnknownStatus):
		writeError(w, http.StatusBadRequest, "Invalid status", err)
	default:
		writeError(w, http.StatusInternalServerError, message, err)
	}
}
