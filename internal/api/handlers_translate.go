package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sublarr/sublarr/internal/apperrors"
	"github.com/sublarr/sublarr/internal/providerregistry"
	"github.com/sublarr/sublarr/internal/store"
	"github.com/sublarr/sublarr/internal/translator"
)

// translateRequestBody is the wire shape for POST /translate[/sync] (spec
// §6). Query fields are flattened onto the body since a caller triggering a
// one-off translation rarely has a full VideoQuery to hand.
type translateRequestBody struct {
	FilePath       string   `json:"file_path"`
	TargetLanguage string   `json:"target_language"`
	SourceLanguage string   `json:"source_language"`
	Forced         bool     `json:"forced"`
	BackendChain   []string `json:"backend_chain"`
	Force          bool     `json:"force"`
}

func (b translateRequestBody) toRequest() translator.Request {
	return translator.Request{
		VideoPath:      b.FilePath,
		Query:          providerregistry.VideoQuery{TargetLanguage: b.TargetLanguage},
		TargetLanguage: b.TargetLanguage,
		SourceLanguage: b.SourceLanguage,
		Forced:         b.Forced,
		BackendChain:   b.BackendChain,
		Force:          b.Force,
	}
}

func (b translateRequestBody) validate() error {
	if b.FilePath == "" || b.TargetLanguage == "" {
		return apperrors.Wrap(apperrors.ErrValidation, "file_path and target_language are required")
	}
	return nil
}

type jobCreatedResponse struct {
	JobID string `json:"job_id"`
}

// translateAsync enqueues a translation job and returns immediately with
// its id (spec §6 "async, returns job id"); progress is polled via
// GET /status/<job_id> or pushed via the job_update websocket event.
func (h *handlers) translateAsync(w http.ResponseWriter, r *http.Request) {
	var body translateRequestBody
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, err)
		return
	}
	if err := body.validate(); err != nil {
		writeError(w, err)
		return
	}
	if h.Jobs == nil {
		writeError(w, apperrors.Wrap(apperrors.ErrValidation, "job queue not configured"))
		return
	}

	req := body.toRequest()
	jobID, err := h.Jobs.Enqueue(r.Context(), body.FilePath, h.configHashOrEmpty(), func(ctx context.Context, jobID string) error {
		result := h.Translate.Translate(ctx, req)
		if h.Broadcaster != nil {
			h.Broadcaster.Publish("job_update", map[string]interface{}{"job_id": jobID, "result": result})
		}
		if !result.Success {
			return apperrors.Wrap(apperrors.ErrTranslationTransient, "%s", result.Error)
		}
		stats, _ := json.Marshal(result)
		return h.Store.Jobs.MarkCompleted(jobID, result.OutputPath, string(stats))
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, jobCreatedResponse{JobID: jobID})
}

// translateSync runs the waterfall inline and returns the Result directly
// (spec §6 "POST /translate/sync").
func (h *handlers) translateSync(w http.ResponseWriter, r *http.Request) {
	var body translateRequestBody
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, err)
		return
	}
	if err := body.validate(); err != nil {
		writeError(w, err)
		return
	}
	result := h.Translate.Translate(r.Context(), body.toRequest())
	writeJSON(w, http.StatusOK, result)
}

func (h *handlers) jobStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job, err := h.Store.Jobs.Get(jobID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (h *handlers) listJobs(w http.ResponseWriter, r *http.Request) {
	status := store.JobStatus(r.URL.Query().Get("status"))
	jobs, err := h.Store.Jobs.List(status, queryInt(r, "limit", 100), queryInt(r, "offset", 0))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, jobs)
}

// retryJob enqueues a fresh forced translation of the file path recorded on
// a failed job. The job row stores no target language, so the new request
// carries only the file path. It does not require the caller to resend the
// original request body.
func (h *handlers) retryJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job, err := h.Store.Jobs.Get(jobID)
	if err != nil {
		writeError(w, err)
		return
	}
	newID, err := h.Jobs.Enqueue(r.Context(), job.FilePath, job.ConfigHash, func(ctx context.Context, newID string) error {
		result := h.Translate.Translate(ctx, translator.Request{VideoPath: job.FilePath, Force: true})
		if !result.Success {
			return apperrors.Wrap(apperrors.ErrTranslationTransient, "%s", result.Error)
		}
		stats, _ := json.Marshal(result)
		return h.Store.Jobs.MarkCompleted(newID, result.OutputPath, string(stats))
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, jobCreatedResponse{JobID: newID})
}

type batchRequestBody struct {
	Items []translateRequestBody `json:"items"`
}

// batchTranslate enqueues every item independently; one item's validation
// failure never blocks the rest (spec §7 "batch processors must never let
// one item's exception abort the batch").
func (h *handlers) batchTranslate(w http.ResponseWriter, r *http.Request) {
	var body batchRequestBody
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, err)
		return
	}

	jobIDs := make([]string, 0, len(body.Items))
	for i, item := range body.Items {
		if err := item.validate(); err != nil {
			continue
		}
		req := item.toRequest()
		jobID, err := h.Jobs.Enqueue(r.Context(), item.FilePath, h.configHashOrEmpty(), func(ctx context.Context, jobID string) error {
			result := h.Translate.Translate(ctx, req)
			if h.Broadcaster != nil {
				h.Broadcaster.Publish("batch_progress", map[string]interface{}{"job_id": jobID, "index": i, "total": len(body.Items)})
			}
			if !result.Success {
				return apperrors.Wrap(apperrors.ErrTranslationTransient, "%s", result.Error)
			}
			stats, _ := json.Marshal(result)
			return h.Store.Jobs.MarkCompleted(jobID, result.OutputPath, string(stats))
		})
		if err == nil {
			jobIDs = append(jobIDs, jobID)
		}
	}
	if h.Broadcaster != nil {
		h.Broadcaster.Publish("batch_completed", map[string]interface{}{"job_ids": jobIDs})
	}
	writeJSON(w, http.StatusAccepted, map[string]interface{}{"job_ids": jobIDs})
}

func (h *handlers) batchStatus(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.Store.Jobs.List("", queryInt(r, "limit", 100), 0)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, jobs)
}

// retranslate forces a fresh attempt regardless of the existing-target
// short-circuit (translator.Request.Force), used when the operator wants to
// redo a job whose config has since changed (spec §4.9 IsOutdated).
func (h *handlers) retranslate(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job, err := h.Store.Jobs.Get(jobID)
	if err != nil {
		writeError(w, err)
		return
	}
	result := h.Translate.Translate(r.Context(), translator.Request{VideoPath: job.FilePath, Force: true})
	if h.Broadcaster != nil {
		h.Broadcaster.Publish("retranslation_completed", map[string]interface{}{"job_id": jobID, "result": result})
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *handlers) retranslateBatch(w http.ResponseWriter, r *http.Request) {
	var body batchRequestBody
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, err)
		return
	}
	results := make([]translator.Result, 0, len(body.Items))
	for i, item := range body.Items {
		req := item.toRequest()
		req.Force = true
		result := h.Translate.Translate(r.Context(), req)
		results = append(results, result)
		if h.Broadcaster != nil {
			h.Broadcaster.Publish("retranslation_progress", map[string]interface{}{"index": i, "total": len(body.Items), "result": result})
		}
	}
	writeJSON(w, http.StatusOK, results)
}

func (h *handlers) retranslateStatus(w http.ResponseWriter, r *http.Request) {
	h.batchStatus(w, r)
}

func (h *handlers) configHashOrEmpty() string {
	if h.ConfigHash == nil {
		return ""
	}
	return h.ConfigHash()
}
