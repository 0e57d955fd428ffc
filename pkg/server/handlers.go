package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"pagewell-hq/courier/pkg/engine"
	"pagewell-hq/courier/pkg/fetch"
)

// fetchRequest is the POST /v1/fetch body.
type fetchRequest struct {
	// Target is the URL or logical resource key to fetch. Required.
	Target string `json:"target"`

	// Class is the content class; defaults to generic-page.
	Class string `json:"class"`

	// Capabilities lists required provider capability flags.
	Capabilities []string `json:"capabilities,omitempty"`

	// Timeout overrides the engine's default overall deadline,
	// e.g. "30s".
	Timeout string `json:"timeout,omitempty"`

	// BypassCache skips the cache read.
	BypassCache bool `json:"bypass_cache,omitempty"`

	// GeoCountry is an ISO country code hint for geo-targeting
	// providers.
	GeoCountry string `json:"geo_country,omitempty"`
}

// fetchResponse is the POST /v1/fetch reply. Attempts are always
// included so callers can see the fallback history even on success.
type fetchResponse struct {
	RequestID  string            `json:"request_id"`
	Outcome    fetch.Outcome     `json:"outcome"`
	Provider   string            `json:"provider,omitempty"`
	FromCache  bool              `json:"from_cache"`
	DurationMS int64             `json:"duration_ms"`
	CostUnits  float64           `json:"cost_units"`
	Attempts   []attemptResponse `json:"attempts"`
	Payload    *payloadResponse  `json:"payload,omitempty"`
	Error      string            `json:"error,omitempty"`
}

type attemptResponse struct {
	Provider   string               `json:"provider"`
	Outcome    fetch.AttemptOutcome `json:"outcome"`
	DurationMS int64                `json:"duration_ms"`
	Error      string               `json:"error,omitempty"`
}

// payloadResponse carries the fetched content. Body is base64, the
// standard encoding of JSON byte slices.
type payloadResponse struct {
	Body        []byte `json:"body"`
	ContentType string `json:"content_type,omitempty"`
	StatusCode  int    `json:"status_code,omitempty"`
}

// handleFetch runs one fetch request through the engine.
func (s *Server) handleFetch(w http.ResponseWriter, r *http.Request) {
	var body fetchRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	if body.Target == "" {
		writeError(w, http.StatusBadRequest, "target is required")
		return
	}

	class := fetch.ContentClass(body.Class)
	if class == "" {
		class = fetch.ClassGenericPage
	}

	req := fetch.NewRequest(body.Target, class)
	req.BypassCache = body.BypassCache
	req.GeoCountry = body.GeoCountry
	for _, c := range body.Capabilities {
		req.Capabilities = append(req.Capabilities, fetch.Capability(c))
	}
	if body.Timeout != "" {
		d, err := time.ParseDuration(body.Timeout)
		if err != nil || d <= 0 {
			writeError(w, http.StatusBadRequest, "invalid timeout: "+body.Timeout)
			return
		}
		req.Timeout = d
	}

	result, err := s.engine.Execute(r.Context(), req)

	resp := fetchResponse{
		RequestID:  result.RequestID,
		Outcome:    result.Outcome,
		Provider:   result.Provider,
		FromCache:  result.FromCache,
		DurationMS: result.Duration().Milliseconds(),
		CostUnits:  result.CostUnits,
		Attempts:   make([]attemptResponse, 0, len(result.Attempts)),
	}
	for _, a := range result.Attempts {
		resp.Attempts = append(resp.Attempts, attemptResponse{
			Provider:   a.Provider,
			Outcome:    a.Outcome,
			DurationMS: a.Duration().Milliseconds(),
			Error:      a.Err,
		})
	}
	if result.Payload != nil {
		resp.Payload = &payloadResponse{
			Body:        result.Payload.Body,
			ContentType: result.Payload.ContentType,
			StatusCode:  result.Payload.StatusCode,
		}
	}
	if err != nil {
		resp.Error = err.Error()
	}

	writeJSON(w, statusForOutcome(err), resp)
}

// statusForOutcome maps engine errors onto HTTP status codes.
func statusForOutcome(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, engine.ErrCapabilityMismatch):
		return http.StatusUnprocessableEntity
	case errors.Is(err, engine.ErrTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, engine.ErrCancelled):
		// 499 is the de-facto client-closed-request status.
		return 499
	default:
		return http.StatusBadGateway
	}
}

// handleHealth is the liveness endpoint.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// providerHealthResponse is one entry of GET /healthz/providers.
type providerHealthResponse struct {
	Healthy             bool   `json:"healthy"`
	ConsecutiveFailures int    `json:"consecutive_failures"`
	TotalRequests       int64  `json:"total_requests"`
	FailedRequests      int64  `json:"failed_requests"`
	LastError           string `json:"last_error,omitempty"`
}

// handleProviderHealth reports the circuit state of every adapter.
// Returns 503 when no adapter is healthy, so load balancers can drain
// an instance with no working egress.
func (s *Server) handleProviderHealth(w http.ResponseWriter, r *http.Request) {
	report := make(map[string]providerHealthResponse, len(s.adapters))
	anyHealthy := len(s.adapters) == 0

	for name, adapter := range s.adapters {
		h := adapter.Health()
		entry := providerHealthResponse{
			Healthy:             h.Healthy,
			ConsecutiveFailures: h.ConsecutiveFailures,
			TotalRequests:       h.TotalRequests,
			FailedRequests:      h.FailedRequests,
		}
		if h.LastError != nil {
			entry.LastError = h.LastError.Error()
		}
		report[name] = entry
		if h.Healthy {
			anyHealthy = true
		}
	}

	status := http.StatusOK
	if !anyHealthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, report)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
