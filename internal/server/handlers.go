package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"image/png"
	"net/http"
	"time"

	"github.com/MeKo-Tech/qrfeed/internal/reader"
	"github.com/gorilla/mux"
)

// healthHandler returns server health status.
func (s *Server) healthHandler(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "healthy",
		Version: s.version,
		Time:    time.Now().UTC().Format(time.RFC3339),
	})
}

// readerStatusHandler returns the reader snapshot.
func (s *Server) readerStatusHandler(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.reader.Status())
}

// resultHandler returns the last decoded value.
func (s *Server) resultHandler(w http.ResponseWriter, _ *http.Request) {
	last := s.reader.LastResult()
	s.writeJSON(w, http.StatusOK, ResultResponse{Result: last, Found: last != ""})
}

// controlHandler enables or disables the reader.
func (s *Server) controlHandler(w http.ResponseWriter, r *http.Request) {
	action := mux.Vars(r)["action"]

	var err error
	switch action {
	case "enable":
		err = s.reader.Enable()
	case "disable":
		err = s.reader.Disable()
	default:
		s.writeErrorResponse(w, "unknown action: "+action, http.StatusNotFound)
		return
	}

	if err != nil {
		readerControlTotal.WithLabelValues(action, "error").Inc()
		status := http.StatusInternalServerError
		if errors.Is(err, reader.ErrClosed) {
			status = http.StatusServiceUnavailable
		}
		s.writeErrorResponse(w, err.Error(), status)
		return
	}

	readerControlTotal.WithLabelValues(action, "success").Inc()
	s.logger.Info("Reader control request", "action", action, "remote_addr", r.RemoteAddr)
	s.writeJSON(w, http.StatusOK, ControlResponse{Success: true, State: s.reader.Status().State})
}

// frameHandler serves the bound feed's newest frame as PNG.
func (s *Server) frameHandler(w http.ResponseWriter, _ *http.Request) {
	src := s.feedSource()
	if src == nil {
		frameSnapshotsTotal.WithLabelValues("unavailable").Inc()
		s.writeErrorResponse(w, "no feed bound", http.StatusServiceUnavailable)
		return
	}
	f, ok := src.LatestFrame()
	if !ok || !f.Valid() {
		frameSnapshotsTotal.WithLabelValues("unavailable").Inc()
		s.writeErrorResponse(w, "no frame available", http.StatusServiceUnavailable)
		return
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, f.Image()); err != nil {
		frameSnapshotsTotal.WithLabelValues("error").Inc()
		s.writeErrorResponse(w, "failed to encode frame", http.StatusInternalServerError)
		return
	}

	frameSnapshotsTotal.WithLabelValues("served").Inc()
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	if _, err := w.Write(buf.Bytes()); err != nil {
		s.logger.Error("Failed to write frame response", "error", err)
	}
}

// writeJSON writes v as a JSON response.
func (s *Server) writeJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Log error, but can't send another response
		s.logger.Error("Failed to encode response", "error", err)
	}
}

// writeErrorResponse writes a JSON error response.
func (s *Server) writeErrorResponse(w http.ResponseWriter, message string, statusCode int) {
	s.writeJSON(w, statusCode, ControlResponse{Success: false, Error: message})
}
