package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/KiloByteLombardo/ftd-tf-veco-cxp-back-capex-consolidated-payment/internal/api/middleware"
	"github.com/KiloByteLombardo/ftd-tf-veco-cxp-back-capex-consolidated-payment/internal/bigquery"
	"github.com/KiloByteLombardo/ftd-tf-veco-cxp-back-capex-consolidated-payment/internal/columns"
	"github.com/KiloByteLombardo/ftd-tf-veco-cxp-back-capex-consolidated-payment/internal/jobs"
	"github.com/KiloByteLombardo/ftd-tf-veco-cxp-back-capex-consolidated-payment/internal/pipeline"
)

// Multipart form fields of the upload endpoints.
const (
	FieldReport   = "file"
	FieldAbsolute = "reporte_absoluto"
	FieldCountry  = "pais"
)

// ServiceName is reported by the health endpoint.
const ServiceName = "capex-consolidated-payment"

// Health handles GET /health
func Health(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": ServiceName,
		"time":    time.Now().Format(time.RFC3339),
	})
}

// readUploads parses the multipart form into a pipeline input. The absolute
// report is optional.
func readUploads(r *http.Request, maxBytes int64) (pipeline.Input, error) {
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		return pipeline.Input{}, fmt.Errorf("invalid multipart form: %w", err)
	}

	report, name, err := formFile(r, FieldReport)
	if err != nil {
		return pipeline.Input{}, err
	}
	if report == nil {
		return pipeline.Input{}, fmt.Errorf("no file provided: %w", pipeline.ErrInvalidInput)
	}
	if err := pipeline.ValidateFilename(name); err != nil {
		return pipeline.Input{}, err
	}

	absolute, _, err := formFile(r, FieldAbsolute)
	if err != nil {
		return pipeline.Input{}, err
	}

	return pipeline.Input{
		Report:     report,
		ReportName: name,
		Absolute:   absolute,
		Country:    r.FormValue(FieldCountry),
	}, nil
}

// formFile returns the bytes and name of an uploaded file, or nil when the
// field is absent or empty.
func formFile(r *http.Request, field string) ([]byte, string, error) {
	f, hdr, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("reading %s: %w", field, err)
	}
	defer f.Close()
	return readPart(f, hdr)
}

func readPart(f multipart.File, hdr *multipart.FileHeader) ([]byte, string, error) {
	if hdr.Filename == "" {
		return nil, "", nil
	}
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, "", fmt.Errorf("reading %s: %w", hdr.Filename, err)
	}
	if len(data) == 0 {
		return nil, hdr.Filename, nil
	}
	return data, hdr.Filename, nil
}

// writeInputError answers a request whose input was rejected.
func writeInputError(w http.ResponseWriter, in pipeline.Input, err error) {
	switch {
	case errors.Is(err, pipeline.ErrUnsupportedCountry):
		middleware.WriteErrorMessage(w, http.StatusBadRequest,
			fmt.Sprintf("País %q no soportado actualmente", in.Country),
			"Solo Venezuela está disponible por ahora")
	case errors.Is(err, pipeline.ErrInvalidInput):
		middleware.WriteErrorMessage(w, http.StatusBadRequest, "Archivo inválido", err.Error())
	case errors.Is(err, columns.ErrMissingColumns):
		middleware.WriteErrorMessage(w, http.StatusBadRequest, "Columnas críticas faltantes", err.Error())
	default:
		middleware.WriteErrorMessage(w, http.StatusBadRequest, "Solicitud inválida", err.Error())
	}
}

// ConsolidationHandler runs consolidations synchronously.
type ConsolidationHandler struct {
	deps     pipeline.Deps
	maxBytes int64
	log      zerolog.Logger
}

// NewConsolidationHandler creates a new consolidation handler.
func NewConsolidationHandler(deps pipeline.Deps, maxUploadMB int64, log zerolog.Logger) *ConsolidationHandler {
	return &ConsolidationHandler{deps: deps, maxBytes: maxUploadMB << 20, log: log}
}

// UploadBosqueto handles POST /api/v1/upload-bosqueto
func (h *ConsolidationHandler) UploadBosqueto(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)

	in, err := readUploads(r, h.maxBytes)
	if err != nil {
		writeInputError(w, in, err)
		return
	}
	if err := in.Validate(); err != nil {
		writeInputError(w, in, err)
		return
	}

	state, err := pipeline.Consolidate(r.Context(), h.deps, in)
	if err != nil {
		if errors.Is(err, columns.ErrMissingColumns) {
			writeInputError(w, in, err)
			return
		}
		h.log.Error().Err(err).Str("file", in.ReportName).Msg("Consolidation failed")
		middleware.WriteErrorMessage(w, http.StatusInternalServerError,
			"Error procesando solicitud", err.Error())
		return
	}

	middleware.WriteJSON(w, http.StatusOK, state.Result())
}

// JobsHandler handles job-related endpoints.
type JobsHandler struct {
	publisher jobs.Publisher
	store     jobs.JobStore
	maxBytes  int64
	log       zerolog.Logger
}

// NewJobsHandler creates a new jobs handler.
func NewJobsHandler(publisher jobs.Publisher, store jobs.JobStore, maxUploadMB int64, log zerolog.Logger) *JobsHandler {
	return &JobsHandler{publisher: publisher, store: store, maxBytes: maxUploadMB << 20, log: log}
}

// Enqueue handles POST /api/v1/jobs
func (h *JobsHandler) Enqueue(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)

	in, err := readUploads(r, h.maxBytes)
	if err != nil {
		writeInputError(w, in, err)
		return
	}
	if err := in.Validate(); err != nil {
		writeInputError(w, in, err)
		return
	}
	country, _ := pipeline.NormalizeCountry(in.Country)

	job := &jobs.ConsolidationJob{
		Country:  country,
		FileName: in.ReportName,
		Report:   in.Report,
		Absolute: in.Absolute,
	}
	if err := h.publisher.PublishConsolidation(r.Context(), job); err != nil {
		h.log.Error().Err(err).Msg("Failed to enqueue consolidation job")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to enqueue consolidation job")
		return
	}

	h.log.Info().Str("job_id", job.JobID).Str("file", job.FileName).Msg("Consolidation job enqueued")

	middleware.WriteJSON(w, http.StatusAccepted, map[string]string{
		"job_id": job.JobID,
		"status": string(job.Status),
	})
}

// GetJob handles GET /api/v1/jobs/{id}
func (h *JobsHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "id")

	job, err := h.store.GetJob(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, jobs.ErrJobNotFound) {
			middleware.WriteError(w, http.StatusNotFound, "Job not found")
			return
		}
		h.log.Error().Err(err).Str("job_id", jobID).Msg("Failed to get job")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to get job")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, job)
}

// ListJobs handles GET /api/v1/jobs
func (h *JobsHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := jobs.JobFilter{
		Country: query.Get("pais"),
		Status:  jobs.JobStatus(query.Get("status")),
	}
	if limit, err := strconv.Atoi(query.Get("limit")); err == nil {
		filter.Limit = limit
	}
	if offset, err := strconv.Atoi(query.Get("offset")); err == nil {
		filter.Offset = offset
	}

	jobsList, err := h.store.ListJobs(r.Context(), filter)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list jobs")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list jobs")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"jobs":  jobsList,
		"count": len(jobsList),
	})
}

// TableInfoHandler reports the payment table metadata.
type TableInfoHandler struct {
	inspector bigquery.TableInspector
	log       zerolog.Logger
}

// NewTableInfoHandler creates a new table info handler. inspector may be
// nil when the service runs without a warehouse.
func NewTableInfoHandler(inspector bigquery.TableInspector, log zerolog.Logger) *TableInfoHandler {
	return &TableInfoHandler{inspector: inspector, log: log}
}

// TableInfo handles GET /api/v1/table-info
func (h *TableInfoHandler) TableInfo(w http.ResponseWriter, r *http.Request) {
	if h.inspector == nil {
		middleware.WriteError(w, http.StatusServiceUnavailable, "Warehouse not configured")
		return
	}

	info, err := h.inspector.TableInfo(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to read table metadata")
		middleware.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success":     true,
		"table":       info.Table,
		"num_rows":    info.NumRows,
		"num_columns": len(info.Fields),
		"size_bytes":  info.NumBytes,
		"size_mb":     float64(info.NumBytes) / (1024 * 1024),
		"modified":    info.LastModified,
		"schema":      info.Fields,
	})
}
