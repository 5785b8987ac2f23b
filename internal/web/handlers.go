package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/stylelens/ingest/internal/core"
)

// handleHealth reports liveness plus basic run accounting.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]interface{}{
		"status":      "ok",
		"active_runs": s.service.ActiveRuns(),
	})
}

// handleStartRun accepts a CSV file and starts an ingestion run. The run ID
// is returned immediately; progress streams via the events endpoint.
//
// Form fields:
//
//	file        the CSV source (required)
//	batch_size  products per bulk request (optional)
//	trend_id    trend association for rows without one (optional)
func (s *Server) handleStartRun(w http.ResponseWriter, r *http.Request) {
	maxSize := s.cfg.Ingest.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)

	if err := r.ParseMultipartForm(maxSize); err != nil {
		s.respondError(w, r, fmt.Errorf("request body too large or invalid form: %w", err), http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "no file provided")
		return
	}
	defer file.Close()

	opts := core.RunOptions{FileName: header.Filename}

	if v := r.FormValue("batch_size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "batch_size must be a positive integer")
			return
		}
		opts.BatchSize = n
	}
	if v := r.FormValue("trend_id"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "trend_id must be an integer")
			return
		}
		opts.DefaultTrendID = &n
	}

	runID, err := s.service.StartRun(r.Context(), opts, file)
	if err != nil {
		status := http.StatusBadRequest
		if err == core.ErrTooManyRuns {
			status = http.StatusServiceUnavailable
		}
		s.respondError(w, r, err, status)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]string{"run_id": runID})
}

// handleRunProgress returns the current progress snapshot without blocking.
func (s *Server) handleRunProgress(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")

	progress, err := s.service.GetRunProgress(runID)
	if err != nil {
		s.respondError(w, r, err, http.StatusNotFound)
		return
	}

	writeJSON(w, progress)
}

// handleRunEvents streams run progress via Server-Sent Events. The stream
// ends with a complete event once the run reaches a terminal phase.
func (s *Server) handleRunEvents(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")

	progressCh, err := s.service.SubscribeProgress(runID)
	if err != nil {
		s.respondError(w, r, err, http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	for {
		select {
		case progress, ok := <-progressCh:
			if !ok {
				// Channel closed, run is terminal
				fmt.Fprintf(w, "event: complete\ndata: {}\n\n")
				flusher.Flush()
				return
			}

			data, _ := json.Marshal(progress)
			fmt.Fprintf(w, "event: progress\ndata: %s\n\n", data)
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}

// handleRunResult returns the terminal summary, blocking until the run
// completes.
func (s *Server) handleRunResult(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")

	result, err := s.service.GetRunResult(runID)
	if err != nil {
		s.respondError(w, r, err, http.StatusNotFound)
		return
	}

	writeJSON(w, result)
}

// handleHistory returns recent persisted runs, newest first.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeError(w, http.StatusServiceUnavailable, "run history is not available")
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, _ = strconv.Atoi(v)
	}

	recs, err := s.history.Recent(r.Context(), limit)
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]interface{}{"runs": recs})
}

// handleHistoryDetail returns one persisted run with its full summary.
func (s *Server) handleHistoryDetail(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeError(w, http.StatusServiceUnavailable, "run history is not available")
		return
	}

	runID := chi.URLParam(r, "runID")

	rec, summary, err := s.history.Get(r.Context(), runID)
	if err != nil {
		writeError(w, http.StatusNotFound, "run not found in history")
		return
	}

	writeJSON(w, map[string]interface{}{
		"run":     rec,
		"summary": summary,
	})
}
