package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/Harshitk-cp/topicgraph/internal/domain"
	"github.com/Harshitk-cp/topicgraph/internal/service"
	"github.com/Harshitk-cp/topicgraph/internal/store"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type TopicHandler struct {
	svc    *service.ImportService
	logger *zap.Logger
}

func NewTopicHandler(svc *service.ImportService, logger *zap.Logger) *TopicHandler {
	return &TopicHandler{svc: svc, logger: logger}
}

// Get returns one topic. Topic ids contain slashes, so the id is the rest
// of the path; short ids are resolved against the configured bases.
func (h *TopicHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := strings.Trim(chi.URLParam(r, "*"), "/")
	if id == "" {
		writeError(w, http.StatusBadRequest, "topic id is required")
		return
	}

	t, err := h.svc.Topic(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "topic not found")
		case domain.IsValidationError(err):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			h.logger.Error("topic lookup failed", zap.String("topic_id", id), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to get topic")
		}
		return
	}
	writeJSON(w, http.StatusOK, t)
}
