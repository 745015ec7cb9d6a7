package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/dgallion1/docsum/internal/pipeline"
	"github.com/dgallion1/docsum/internal/report"
	"github.com/dgallion1/docsum/internal/session"
	"github.com/go-chi/chi/v5"
)

// maxFilesPerBatch bounds the request body to this many full-size uploads.
const maxFilesPerBatch = 10

type uploadResponse struct {
	pipeline.OutcomeReport
	Sections []*report.Section `json:"report_sections,omitempty"`
}

// handleUpload processes a batch synchronously and returns the report.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.saveUploads(w, r)
	if !ok {
		return
	}
	batch := pipeline.Batch{ID: sess.ID, Documents: sess.Documents(), Cleanup: sess.Cleanup}

	out, err := s.service.Run(r.Context(), batch, nil)
	if err != nil {
		s.log.Error("upload failed", "batch_id", sess.ID, "error", err)
		jsonError(w, err.Error(), statusFor(err))
		return
	}

	resp := uploadResponse{OutcomeReport: out.Response()}
	if out.Report != "" {
		resp.Sections = report.Outline(out.Report)
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// handleBatchSubmit queues a batch for background processing.
func (s *Server) handleBatchSubmit(w http.ResponseWriter, r *http.Request) {
	if s.orchestrator == nil {
		jsonError(w, "batch processing unavailable", http.StatusServiceUnavailable)
		return
	}
	sess, ok := s.saveUploads(w, r)
	if !ok {
		return
	}

	job := pipeline.NewJob(pipeline.Batch{ID: sess.ID, Documents: sess.Documents(), Cleanup: sess.Cleanup})
	if err := s.orchestrator.Submit(job); err != nil {
		sess.Cleanup()
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]any{
		"batch_id": job.ID,
		"status":   pipeline.StatusQueued,
		"poll_url": fmt.Sprintf("/api/batches/%s", job.ID),
	})
}

func (s *Server) handleBatchStatus(w http.ResponseWriter, r *http.Request) {
	if s.orchestrator == nil {
		jsonError(w, "batch processing unavailable", http.StatusServiceUnavailable)
		return
	}
	job := s.orchestrator.GetJob(chi.URLParam(r, "batchID"))
	if job == nil {
		jsonError(w, "batch not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(job.Snapshot())
}

// saveUploads stores the "files" parts of a multipart request in a new
// session. On failure it writes the error response, removes anything saved
// and returns false.
func (s *Server) saveUploads(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes*maxFilesPerBatch+10*1024*1024)

	if err := r.ParseMultipartForm(64 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return nil, false
	}
	defer r.MultipartForm.RemoveAll()

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		jsonError(w, "no files provided", http.StatusBadRequest)
		return nil, false
	}
	for _, fh := range files {
		if fh.Filename == "" {
			jsonError(w, "file without a name", http.StatusBadRequest)
			return nil, false
		}
		if ext := filepath.Ext(fh.Filename); !strings.EqualFold(ext, ".pdf") {
			jsonError(w, fmt.Sprintf("unsupported file type: %q", ext), http.StatusBadRequest)
			return nil, false
		}
	}

	sess, err := session.New(s.cfg.UploadDir, s.log)
	if err != nil {
		s.log.Error("cannot start session", "error", err)
		jsonError(w, "cannot store uploads", http.StatusInternalServerError)
		return nil, false
	}
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			sess.Cleanup()
			jsonError(w, "failed to open file", http.StatusBadRequest)
			return nil, false
		}
		_, err = sess.Save(fh.Filename, f, s.cfg.MaxUploadBytes)
		f.Close()
		if err != nil {
			sess.Cleanup()
			switch {
			case errors.Is(err, session.ErrTooLarge):
				jsonError(w, err.Error(), http.StatusRequestEntityTooLarge)
			case errors.Is(err, session.ErrNotPDF):
				jsonError(w, err.Error(), http.StatusBadRequest)
			default:
				s.log.Error("cannot save upload", "error", err)
				jsonError(w, "cannot store uploads", http.StatusInternalServerError)
			}
			return nil, false
		}
	}
	return sess, true
}

// statusFor maps a batch error to an HTTP status.
func statusFor(err error) int {
	switch {
	case pipeline.IsInputError(err), errors.Is(err, pipeline.ErrNoExtractableText):
		return http.StatusBadRequest
	case errors.Is(err, pipeline.ErrReportFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
