package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/agbru/nttgpu/internal/service"
	"github.com/agbru/nttgpu/pkg/models"
)

// handleHealth responds to health check requests.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	response := map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().Unix(),
	}

	s.writeJSONResponse(w, http.StatusOK, response)
}

// handleDevices returns the configured field and the available devices.
func (s *Server) handleDevices(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	s.writeJSONResponse(w, http.StatusOK, s.service.Devices())
}

// handleTransform decodes a TransformRequest body, runs the transform and
// writes a TransformResponse. Failed transforms carry the error in the
// response body with the status chosen by service.StatusCode.
func (s *Server) handleTransform(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	req, err := s.decodeTransformRequest(w, r)
	if err != nil {
		var parseErr TransformParseError
		if errors.As(err, &parseErr) {
			s.writeErrorResponse(w, parseErr.StatusCode, parseErr.Message)
		} else {
			s.writeErrorResponse(w, http.StatusBadRequest, err.Error())
		}
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.timeouts.RequestTimeout)
	defer cancel()

	resp, err := s.service.Transform(ctx, req)
	if err != nil {
		s.logger.Printf("transform of %d values on device %d failed: %v", len(req.Values), req.Device, err)
		if errors.Is(err, service.ErrMaxSizeExceeded) {
			s.writeErrorResponse(w, http.StatusBadRequest,
				fmt.Sprintf("%v. This limit prevents resource exhaustion.", err))
			return
		}
	}
	s.writeJSONResponse(w, service.StatusCode(err), resp)
}

// decodeTransformRequest reads the JSON body, bounded by MaxBodyBytes.
func (s *Server) decodeTransformRequest(w http.ResponseWriter, r *http.Request) (models.TransformRequest, error) {
	var req models.TransformRequest
	if r.Body == nil || r.Body == http.NoBody {
		return req, TransformParseError{Message: "Missing request body", StatusCode: http.StatusBadRequest}
	}
	body := http.MaxBytesReader(w, r.Body, s.securityConfig.MaxBodyBytes)
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return req, TransformParseError{
				Message:    fmt.Sprintf("Request body exceeds %d bytes", tooLarge.Limit),
				StatusCode: http.StatusRequestEntityTooLarge,
			}
		}
		return req, TransformParseError{
			Message:    "Invalid request body: " + err.Error(),
			StatusCode: http.StatusBadRequest,
		}
	}
	if len(req.Values) == 0 {
		return req, TransformParseError{Message: "Missing 'values'", StatusCode: http.StatusBadRequest}
	}
	return req, nil
}

// writeJSONResponse writes data as JSON with the given status code.
func (s *Server) writeJSONResponse(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Printf("Error encoding JSON response: %v", err)
	}
}

// writeErrorResponse writes a standardized error response.
func (s *Server) writeErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	errResp := models.ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
	}
	s.writeJSONResponse(w, statusCode, errResp)
}

// TransformParseError represents a request parsing error with HTTP status.
type TransformParseError struct {
	Message    string
	StatusCode int
}

// Error implements the error interface.
func (e TransformParseError) Error() string {
	return e.Message
}
