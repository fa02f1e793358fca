package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shoptrack/shoptrack-backend-go/internal/domain/timeentry"
	"github.com/shoptrack/shoptrack-backend-go/internal/domain/user"
	"github.com/shoptrack/shoptrack-backend-go/internal/handler/http/middleware"
	"github.com/shoptrack/shoptrack-backend-go/internal/handler/http/response"
	"github.com/shoptrack/shoptrack-backend-go/internal/pkg/jwt"
	"github.com/shoptrack/shoptrack-backend-go/internal/pkg/sse"
)

const streamKeepalive = 30 * time.Second

type TimeEntryHandler interface {
	ClockIn(w http.ResponseWriter, r *http.Request)
	ClockOut(w http.ResponseWriter, r *http.Request)
	BreakStart(w http.ResponseWriter, r *http.Request)
	BreakEnd(w http.ResponseWriter, r *http.Request)
	GetOpen(w http.ResponseWriter, r *http.Request)
	List(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	Update(w http.ResponseWriter, r *http.Request)
	Hours(w http.ResponseWriter, r *http.Request)
	Approve(w http.ResponseWriter, r *http.Request)
	Unlock(w http.ResponseWriter, r *http.Request)
	StreamToken(w http.ResponseWriter, r *http.Request)
	Stream(w http.ResponseWriter, r *http.Request)
}

type timeEntryHandlerImpl struct {
	timeEntryService timeentry.TimeEntryService
	jwtService       jwt.Service
	hub              *sse.Hub
}

func NewTimeEntryHandler(timeEntryService timeentry.TimeEntryService, jwtService jwt.Service, hub *sse.Hub) TimeEntryHandler {
	return &timeEntryHandlerImpl{
		timeEntryService: timeEntryService,
		jwtService:       jwtService,
		hub:              hub,
	}
}

// identity returns the caller resolved by middleware.AuthRequired.
func identity(w http.ResponseWriter, r *http.Request) (user.Identity, bool) {
	actor, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Missing identity")
		return user.Identity{}, false
	}
	return actor, true
}

// decodeOptionalJSON accepts an empty body as the zero value.
func decodeOptionalJSON(r *http.Request, dst any) error {
	err := json.NewDecoder(r.Body).Decode(dst)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func listFilterFromQuery(r *http.Request) timeentry.ListFilter {
	q := r.URL.Query()
	return timeentry.ListFilter{
		TechnicianID: q.Get("technician_id"),
		From:         q.Get("from"),
		To:           q.Get("to"),
	}
}

// ClockIn implements TimeEntryHandler.
func (h *timeEntryHandlerImpl) ClockIn(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity(w, r)
	if !ok {
		return
	}

	var req timeentry.ClockInRequest
	if err := decodeOptionalJSON(r, &req); err != nil {
		slog.Error("Failed to decode clock-in request", "error", err, "request_id", middleware.GetRequestID(r.Context()))
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	result, err := h.timeEntryService.ClockIn(r.Context(), actor, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Clock in successful", result)
}

// ClockOut implements TimeEntryHandler.
func (h *timeEntryHandlerImpl) ClockOut(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity(w, r)
	if !ok {
		return
	}

	var req timeentry.ClockOutRequest
	if err := decodeOptionalJSON(r, &req); err != nil {
		slog.Error("Failed to decode clock-out request", "error", err, "request_id", middleware.GetRequestID(r.Context()))
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	result, err := h.timeEntryService.ClockOut(r.Context(), actor, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Clock out successful", result)
}

// BreakStart implements TimeEntryHandler.
func (h *timeEntryHandlerImpl) BreakStart(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity(w, r)
	if !ok {
		return
	}

	result, err := h.timeEntryService.BreakStart(r.Context(), actor)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Break started", result)
}

// BreakEnd implements TimeEntryHandler.
func (h *timeEntryHandlerImpl) BreakEnd(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity(w, r)
	if !ok {
		return
	}

	result, err := h.timeEntryService.BreakEnd(r.Context(), actor)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Break ended", result)
}

// GetOpen implements TimeEntryHandler. A technician without an open shift
// gets a null data field rather than 404.
func (h *timeEntryHandlerImpl) GetOpen(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity(w, r)
	if !ok {
		return
	}

	result, err := h.timeEntryService.GetOpenSession(r.Context(), actor, r.URL.Query().Get("technician_id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// List implements TimeEntryHandler.
func (h *timeEntryHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity(w, r)
	if !ok {
		return
	}

	filter := listFilterFromQuery(r)
	result, err := h.timeEntryService.ListSessions(r.Context(), actor, filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMeta(w, result, &response.Meta{
		Count: len(result),
		From:  filter.From,
		To:    filter.To,
	})
}

// Get implements TimeEntryHandler.
func (h *timeEntryHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity(w, r)
	if !ok {
		return
	}

	result, err := h.timeEntryService.GetEntry(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// Update implements TimeEntryHandler.
func (h *timeEntryHandlerImpl) Update(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity(w, r)
	if !ok {
		return
	}

	var req timeentry.UpdateTimeEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	req.ID = chi.URLParam(r, "id")

	result, err := h.timeEntryService.UpdateEntry(r.Context(), actor, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Time entry updated", result)
}

// Hours implements TimeEntryHandler.
func (h *timeEntryHandlerImpl) Hours(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity(w, r)
	if !ok {
		return
	}

	result, err := h.timeEntryService.ClassifyHours(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// Approve implements TimeEntryHandler.
func (h *timeEntryHandlerImpl) Approve(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity(w, r)
	if !ok {
		return
	}

	req := timeentry.ApproveTimeEntryRequest{ID: chi.URLParam(r, "id")}
	result, err := h.timeEntryService.Approve(r.Context(), actor, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Time entry approved", result)
}

// Unlock implements TimeEntryHandler.
func (h *timeEntryHandlerImpl) Unlock(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity(w, r)
	if !ok {
		return
	}

	var req timeentry.UnlockTimeEntryRequest
	if err := decodeOptionalJSON(r, &req); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	req.ID = chi.URLParam(r, "id")

	result, err := h.timeEntryService.Unlock(r.Context(), actor, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Time entry unlocked", result)
}

// StreamToken issues the short-lived token the live stream is opened with.
func (h *timeEntryHandlerImpl) StreamToken(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity(w, r)
	if !ok {
		return
	}

	token, expiresIn, err := h.jwtService.GenerateStreamToken(actor)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, map[string]any{
		"token":      token,
		"expires_in": expiresIn,
	})
}

// Stream pushes entry snapshots over SSE. Technicians receive their own
// entries; managers receive the whole shop.
func (h *timeEntryHandlerImpl) Stream(w http.ResponseWriter, r *http.Request) {
	// Get token from query parameter (SSE doesn't support custom headers)
	tokenStr := r.URL.Query().Get("token")
	if tokenStr == "" {
		response.Unauthorized(w, "Missing token")
		return
	}

	actor, err := h.jwtService.ValidateStreamToken(tokenStr)
	if err != nil {
		response.Unauthorized(w, "Invalid token")
		return
	}

	topic := timeentry.TechnicianTopic(actor.TechnicianID)
	if user.HasPermission(actor.Role, user.PermissionTimeEntryViewAll) {
		topic = timeentry.ShopTopic(actor.ShopID)
	} else if actor.TechnicianID == "" {
		response.HandleError(w, user.ErrTechnicianIDRequired)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		response.InternalServerError(w, "Streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	events, cleanup := h.hub.Subscribe(topic)
	defer cleanup()

	fmt.Fprintf(w, "event: connected\ndata: {\"topic\":%q}\n\n", topic)
	flusher.Flush()

	keepalive := time.NewTicker(streamKeepalive)
	defer keepalive.Stop()

	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			if err := sse.WriteEvent(w, event); err != nil {
				slog.Warn("Failed to write stream event", "topic", topic, "error", err)
				return
			}
			flusher.Flush()

		case <-keepalive.C:
			fmt.Fprintf(w, "event: ping\ndata: {\"timestamp\":%d}\n\n", time.Now().Unix())
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}
