package importer

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/medisupply/inventory/internal/domain"
	"github.com/medisupply/inventory/internal/events"
	"github.com/medisupply/inventory/internal/repository"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// Handler exposes the import pipeline over HTTP: multipart submission, the
// pub/sub push endpoint and job polling.
type Handler struct {
	submissions *SubmissionService
	consumer    *Consumer
	jobs        repository.ImportJobRepository
}

// NewHTTPHandler wraps the services with their HTTP endpoints.
func NewHTTPHandler(submissions *SubmissionService, consumer *Consumer, jobs repository.ImportJobRepository) *Handler {
	return &Handler{submissions: submissions, consumer: consumer, jobs: jobs}
}

// Mount registers the import routes on the router.
func (h *Handler) Mount(r chi.Router) {
	r.Post("/inventory/products/import", h.SubmitImport)
	r.Get("/inventory/products/import/{id}", h.GetJob)
	r.Post("/inventory-processor/process", h.ProcessEvent)
}

type apiResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// SubmitImport accepts a multipart form with a product file and the
// submitter id, and answers with the created job reference.
func (h *Handler) SubmitImport(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest,
			"the file field is required",
			"use Content-Type: multipart/form-data to send files")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "the file field is required", "")
		return
	}
	defer file.Close()

	userID := r.FormValue("userId")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "the userId field is required", "")
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("failed to read file: %v", err), "")
		return
	}

	receipt, err := h.submissions.Submit(r.Context(), Submission{
		FileName:    header.Filename,
		Data:        data,
		SubmitterID: userID,
	})
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, apiResponse{
		Success: true,
		Message: receipt.Message,
		Data:    map[string]string{"history_id": receipt.JobID.String()},
	})
}

// pushEnvelope is the push-delivery wrapper: the decoded base64 data carries
// the import event payload.
type pushEnvelope struct {
	Message struct {
		Data      string `json:"data"`
		MessageID string `json:"messageId"`
	} `json:"message"`
	Subscription string `json:"subscription"`
}

// ProcessEvent handles a push-delivered import event and runs the consumer
// synchronously. Malformed envelopes are rejected before any store is touched.
func (h *Handler) ProcessEvent(w http.ResponseWriter, r *http.Request) {
	var envelope pushEnvelope
	if err := json.NewDecoder(r.Body).Decode(&envelope); err != nil {
		writeError(w, http.StatusBadRequest, "request without valid JSON content", "")
		return
	}
	if envelope.Message.Data == "" {
		writeError(w, http.StatusBadRequest, "message without data", "")
		return
	}

	decoded, err := base64.StdEncoding.DecodeString(envelope.Message.Data)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("failed to decode message: %v", err), "")
		return
	}

	var event events.ImportEvent
	if err := json.Unmarshal(decoded, &event); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("failed to decode message: %v", err), "")
		return
	}
	if event.JobID == "" {
		writeError(w, http.StatusBadRequest, "event without job id", "")
		return
	}

	jobID, err := uuid.Parse(event.JobID)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid job id: %v", err), "")
		return
	}

	result, err := h.consumer.ProcessJob(r.Context(), jobID)
	if err != nil {
		if domain.IsNotFound(err) {
			log.Printf("[IMPORT] push delivery for unknown job %s", jobID)
			writeError(w, http.StatusNotFound, err.Error(), "")
			return
		}
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to process file: %v", err), "")
		return
	}

	writeJSON(w, http.StatusOK, apiResponse{
		Success: true,
		Message: "File processed successfully",
		Data:    result,
	})
}

// GetJob returns the current state of an import job, which is the only way a
// caller can observe the asynchronous outcome.
func (h *Handler) GetJob(w http.ResponseWriter, r *http.Request) {
	jobID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid job id: %v", err), "")
		return
	}

	job, err := h.jobs.GetByID(r.Context(), jobID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, apiResponse{Success: true, Message: "OK", Data: job})
}

func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		writeError(w, http.StatusBadRequest, ve.Message, ve.Details)
		return
	}
	if domain.IsNotFound(err) {
		writeError(w, http.StatusNotFound, err.Error(), "")
		return
	}
	writeError(w, http.StatusInternalServerError, err.Error(), "")
}

func writeError(w http.ResponseWriter, status int, message, details string) {
	writeJSON(w, status, apiResponse{Success: false, Message: message, Details: details})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(payload)
}
