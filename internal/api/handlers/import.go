package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/Harshitk-cp/topicgraph/internal/api/middleware"
	"github.com/Harshitk-cp/topicgraph/internal/domain"
	"github.com/Harshitk-cp/topicgraph/internal/ingest"
	"github.com/Harshitk-cp/topicgraph/internal/service"
	"go.uber.org/zap"
)

// maxBodyBytes bounds import request bodies.
const maxBodyBytes = 32 << 20

type ImportHandler struct {
	svc      *service.ImportService
	maxBatch int
	logger   *zap.Logger
}

func NewImportHandler(svc *service.ImportService, maxBatch int, logger *zap.Logger) *ImportHandler {
	return &ImportHandler{svc: svc, maxBatch: maxBatch, logger: logger}
}

type importRequest struct {
	Records       []map[string]any `json:"records"`
	DefaultScopes []string         `json:"default_scopes"`
	DryRun        bool             `json:"dry_run"`
}

// Import runs one import batch. JSON bodies carry raw records; text/csv
// bodies are spreadsheets and text/markdown bodies a single document. For
// the non-JSON forms, dry_run, scope and filename come from the query.
func (h *ImportHandler) Import(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	var (
		records []domain.ImportRecord
		opts    service.BatchOptions
		err     error
	)
	switch mediaType {
	case "text/csv":
		opts = queryOptions(r)
		records, err = ingest.ParseSheet(r.Body)
	case "text/markdown":
		opts = queryOptions(r)
		records, err = markdownRecord(r)
	default:
		records, opts, err = jsonRecords(r)
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if len(records) == 0 {
		writeError(w, http.StatusBadRequest, "no records to import")
		return
	}
	if h.maxBatch > 0 && len(records) > h.maxBatch {
		writeError(w, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("batch of %d records exceeds the limit of %d", len(records), h.maxBatch))
		return
	}

	report, err := h.svc.ImportBatch(r.Context(), records, opts)
	if err != nil {
		h.logger.Error("import batch failed",
			zap.String("request_id", middleware.RequestIDFromContext(r.Context())),
			zap.Error(err))
		writeError(w, http.StatusInternalServerError, "import failed")
		return
	}

	h.logger.Info("import batch done",
		zap.String("request_id", middleware.RequestIDFromContext(r.Context())),
		zap.String("batch_id", report.BatchID.String()),
		zap.Int("records", len(records)))
	writeJSON(w, http.StatusOK, report)
}

// Bootstrap creates the reserved vocabulary.
func (h *ImportHandler) Bootstrap(w http.ResponseWriter, r *http.Request) {
	report, err := h.svc.Bootstrap(r.Context())
	if err != nil {
		h.logger.Error("bootstrap failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "bootstrap failed")
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func jsonRecords(r *http.Request) ([]domain.ImportRecord, service.BatchOptions, error) {
	var req importRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, service.BatchOptions{}, errors.New("invalid request body")
	}
	opts := service.BatchOptions{DefaultScopes: req.DefaultScopes, DryRun: req.DryRun}

	records := make([]domain.ImportRecord, 0, len(req.Records))
	for i, raw := range req.Records {
		rec, err := ingest.DecodeRecord(raw)
		if err != nil {
			return nil, opts, fmt.Errorf("record %d: %w", i, err)
		}
		records = append(records, rec)
	}
	return records, opts, nil
}

func markdownRecord(r *http.Request) ([]domain.ImportRecord, error) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	filename := r.URL.Query().Get("filename")
	if filename == "" {
		filename = "document.md"
	}
	rec, err := ingest.ParseFrontmatter(filename, body)
	if err != nil {
		return nil, err
	}
	return []domain.ImportRecord{rec}, nil
}

func queryOptions(r *http.Request) service.BatchOptions {
	q := r.URL.Query()
	dryRun, _ := strconv.ParseBool(q.Get("dry_run"))
	var scopes []string
	for _, s := range q["scope"] {
		for _, part := range strings.Split(s, ",") {
			if part = strings.TrimSpace(part); part != "" {
				scopes = append(scopes, part)
			}
		}
	}
	return service.BatchOptions{DefaultScopes: scopes, DryRun: dryRun}
}
