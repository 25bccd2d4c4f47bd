// Package api serves the controller's admin HTTP surface: locker and
// session inspection, signal injection and Prometheus metrics.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/julienschmidt/httprouter"

	"smartstorage/internal/presenter"
	"smartstorage/internal/router"
	"smartstorage/internal/session"
	apperrors "smartstorage/pkg/errors"
	httputil "smartstorage/pkg/http"
	"smartstorage/pkg/logger"
	"smartstorage/pkg/metrics"
	"smartstorage/pkg/model"
)

type LockerSource interface {
	Snapshot() []model.Locker
	Get(id int) (model.Locker, bool)
}

type SessionSource interface {
	Snapshot() session.Snapshot
}

type StatusSource interface {
	Status() presenter.Status
}

type SignalSink interface {
	Submit(sig router.Signal) error
}

type SessionHistory interface {
	Recent(ctx context.Context, limit int) ([]model.SessionRecord, error)
}

type Deps struct {
	Lockers LockerSource
	Session SessionSource
	Board   StatusSource
	Signals SignalSink
	// History is nil when persistence is disabled.
	History SessionHistory
	Log     *logger.Logger
}

type ControllerHandler struct {
	deps Deps
	log  *logger.Logger
}

func NewControllerHandler(deps Deps) *ControllerHandler {
	log := deps.Log
	if log == nil {
		log = logger.Discard()
	}
	return &ControllerHandler{deps: deps, log: log.Component("api")}
}

type SessionResponse struct {
	Session session.Snapshot `json:"session"`
	Display presenter.Status `json:"display"`
}

type SignalRequest struct {
	Signal string `json:"signal"`
}

type SignalResponse struct {
	Signal router.Signal `json:"signal"`
}

func (h *ControllerHandler) ListLockers(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	lockers := h.deps.Lockers.Snapshot()
	h.write("ListLockers", httputil.WriteList(w, lockers, len(lockers)))
}

func (h *ControllerHandler) GetLocker(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	raw := ps.ByName("id")
	id, err := strconv.Atoi(raw)
	if err != nil {
		h.writeError(w, "GetLocker", apperrors.InvalidInput("invalid locker id: "+raw))
		return
	}
	locker, ok := h.deps.Lockers.Get(id)
	if !ok {
		h.writeError(w, "GetLocker", apperrors.NotFoundWithID("Locker", raw))
		return
	}
	h.write("GetLocker", httputil.WriteSuccess(w, locker))
}

func (h *ControllerHandler) GetSession(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	resp := SessionResponse{Session: h.deps.Session.Snapshot()}
	if h.deps.Board != nil {
		resp.Display = h.deps.Board.Status()
	}
	h.write("GetSession", httputil.WriteSuccess(w, resp))
}

func (h *ControllerHandler) RecentSessions(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if h.deps.History == nil {
		h.writeError(w, "RecentSessions", apperrors.Unavailable("session history"))
		return
	}
	limit, err := httputil.ExtractLimit(r)
	if err != nil {
		h.writeError(w, "RecentSessions", err)
		return
	}
	records, err := h.deps.History.Recent(r.Context(), limit)
	if err != nil {
		h.log.Error("failed to load session history", "error", err)
		h.writeError(w, "RecentSessions", apperrors.Internal("failed to load session history", err))
		return
	}
	h.write("RecentSessions", httputil.WriteList(w, records, len(records)))
}

// SubmitSignal injects a button press as if it came from the hardware.
func (h *ControllerHandler) SubmitSignal(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req SignalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, "SubmitSignal", apperrors.InvalidInput("invalid request body"))
		return
	}
	sig, err := router.ParseSignal(req.Signal)
	if err != nil {
		h.writeError(w, "SubmitSignal", apperrors.InvalidInput(err.Error()))
		return
	}

	switch err := h.deps.Signals.Submit(sig); {
	case errors.Is(err, router.ErrDebounced):
		h.writeError(w, "SubmitSignal", apperrors.Conflict("signal debounced"))
	case errors.Is(err, router.ErrQueueFull):
		h.writeError(w, "SubmitSignal", apperrors.Unavailable("signal queue"))
	case err != nil:
		h.writeError(w, "SubmitSignal", err)
	default:
		h.write("SubmitSignal", httputil.WriteAccepted(w, SignalResponse{Signal: sig}))
	}
}

func (h *ControllerHandler) write(handler string, err error) {
	if err != nil {
		h.log.Error("failed to write JSON response", "handler", handler, "operation", "WriteJSON", "error", err)
	}
}

func (h *ControllerHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *ControllerHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/lockers", h.ListLockers)
	router.GET("/lockers/:id", h.GetLocker)
	router.GET("/session", h.GetSession)
	router.GET("/sessions", h.RecentSessions)
	router.POST("/signals", h.SubmitSignal)
	router.Handler(http.MethodGet, "/metrics", metrics.Handler())
}
