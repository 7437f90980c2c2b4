package resumes

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dmitrymomot/resumekit/pkg/auth"
	"github.com/dmitrymomot/resumekit/pkg/binder"
	"github.com/dmitrymomot/resumekit/pkg/logger"
)

// Module bundles the resume HTTP handlers.
type Module struct {
	svc *Service
	log *slog.Logger
}

// NewModule creates the resumes module. Panics if svc is nil.
func NewModule(svc *Service, log *slog.Logger) *Module {
	if svc == nil {
		panic("resumes: Service is required")
	}
	if log == nil {
		log = slog.Default()
	}
	return &Module{svc: svc, log: log}
}

// Handle returns the module router, ready to be mounted.
func (m *Module) Handle() http.Handler {
	r := chi.NewRouter()
	r.Use(auth.RequireUser)

	r.Post("/", m.handleCreate)
	r.Get("/", m.handleList)
	r.Delete("/{id}", m.handleDelete)
	r.Get("/quota", m.handleQuota)

	return r
}

type createRequest struct {
	Title string `json:"title"`
}

func (m *Module) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := auth.UserIDFromContext(ctx)

	var req createRequest
	if err := binder.JSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resume, err := m.svc.Create(ctx, userID, req.Title)
	if err != nil {
		switch {
		case errors.Is(err, ErrMissingTitle):
			writeError(w, http.StatusBadRequest, "title is required")
		case errors.Is(err, ErrResumeLimitReached):
			writeError(w, http.StatusForbidden, "resume limit reached, upgrade to create more")
		default:
			m.log.ErrorContext(ctx, "failed to create resume",
				logger.UserID(userID), logger.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to create resume")
		}
		return
	}

	writeJSON(w, http.StatusCreated, resume)
}

func (m *Module) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := auth.UserIDFromContext(ctx)

	list, err := m.svc.List(ctx, userID)
	if err != nil {
		m.log.ErrorContext(ctx, "failed to list resumes",
			logger.UserID(userID), logger.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list resumes")
		return
	}
	if list == nil {
		list = []Resume{}
	}

	writeJSON(w, http.StatusOK, list)
}

func (m *Module) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := auth.UserIDFromContext(ctx)

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid resume id")
		return
	}

	if err := m.svc.Delete(ctx, userID, id); err != nil {
		if errors.Is(err, ErrResumeNotFound) {
			writeError(w, http.StatusNotFound, "resume not found")
			return
		}
		m.log.ErrorContext(ctx, "failed to delete resume",
			logger.UserID(userID), logger.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to delete resume")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (m *Module) handleQuota(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := auth.UserIDFromContext(ctx)

	quota, err := m.svc.Quota(ctx, userID)
	if err != nil {
		m.log.ErrorContext(ctx, "failed to read quota",
			logger.UserID(userID), logger.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to read quota")
		return
	}

	writeJSON(w, http.StatusOK, quota)
}
