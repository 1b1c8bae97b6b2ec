package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"chat-insights/internal/logging"
	"chat-insights/internal/segment"
	"chat-insights/internal/vectorindex"
	"chat-insights/pkg/types"
)

const maxRequestMessages = 10000

type analyzeRequest struct {
	Messages []types.Message `json:"messages"`
	// Date filters messages to one UTC day (YYYY-MM-DD); "all" or empty
	// means no filter.
	Date string `json:"date,omitempty"`
}

type analyzeResponse struct {
	Results []types.AnalysisResult `json:"results"`
	Units   int                    `json:"units"`
	// SummaryIndex reports how many unit summaries were added to the
	// vector index; nil when summary indexing was interrupted.
	SummaryIndex *vectorindex.Report `json:"summary_index,omitempty"`
}

type indexRequest struct {
	Messages []types.Message `json:"messages"`
}

type searchResponse struct {
	Query   string               `json:"query"`
	Results []types.SearchResult `json:"results"`
}

type statsResponse struct {
	Index     types.IndexStats         `json:"index"`
	Providers map[string]providerStats `json:"providers"`
}

type providerStats struct {
	State      string `json:"state"`
	Requests   int64  `json:"requests"`
	Failures   int64  `json:"failures"`
	Rejections int64  `json:"rejections"`
}

type errorResponse struct {
	Error   string `json:"error"`
	TraceID string `json:"trace_id,omitempty"`
}

func (r *Router) handleAnalyze(w http.ResponseWriter, req *http.Request) {
	var body analyzeRequest
	if !r.decode(w, req, &body) {
		return
	}
	if len(body.Messages) == 0 {
		r.writeError(w, req, http.StatusBadRequest, "messages is required")
		return
	}
	if len(body.Messages) > maxRequestMessages {
		r.writeError(w, req, http.StatusBadRequest, "too many messages in one request")
		return
	}
	if !r.validateMessages(w, req, body.Messages) {
		return
	}
	if body.Date == "" {
		body.Date = segment.AllDates
	}

	results := r.orchestrator.AnalyzeConversations(req.Context(), body.Messages, body.Date)

	resp := analyzeResponse{Results: results, Units: len(results)}
	report, err := r.index.InsertSummaries(req.Context(), results)
	if err != nil {
		r.logger.WarnContext(req.Context(), "summary indexing interrupted", "error", err.Error())
	} else {
		resp.SummaryIndex = report
	}
	r.writeJSON(w, http.StatusOK, resp)
}

func (r *Router) handleIndex(w http.ResponseWriter, req *http.Request) {
	var body indexRequest
	if !r.decode(w, req, &body) {
		return
	}
	if len(body.Messages) == 0 {
		r.writeError(w, req, http.StatusBadRequest, "messages is required")
		return
	}
	if len(body.Messages) > maxRequestMessages {
		r.writeError(w, req, http.StatusBadRequest, "too many messages in one request")
		return
	}
	if !r.validateMessages(w, req, body.Messages) {
		return
	}

	report, err := r.index.Insert(req.Context(), body.Messages)
	if err != nil {
		r.writeError(w, req, http.StatusServiceUnavailable, "indexing interrupted: "+err.Error())
		return
	}
	r.writeJSON(w, http.StatusOK, report)
}

func (r *Router) handleSearch(w http.ResponseWriter, req *http.Request) {
	query := req.URL.Query().Get("q")

	limit := 10
	if raw := req.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 100 {
			r.writeError(w, req, http.StatusBadRequest, "limit must be between 1 and 100")
			return
		}
		limit = parsed
	}

	results, err := r.index.Search(req.Context(), query, limit)
	if err != nil {
		r.writeError(w, req, http.StatusServiceUnavailable, "search interrupted: "+err.Error())
		return
	}
	r.writeJSON(w, http.StatusOK, searchResponse{Query: query, Results: results})
}

func (r *Router) handleStats(w http.ResponseWriter, req *http.Request) {
	providers := make(map[string]providerStats)
	for name, s := range r.orchestrator.ProviderStats() {
		providers[name] = providerStats{
			State:      s.State.String(),
			Requests:   s.TotalRequests,
			Failures:   s.TotalFailures,
			Rejections: s.TotalRejections,
		}
	}
	r.writeJSON(w, http.StatusOK, statsResponse{
		Index:     r.index.Stats(),
		Providers: providers,
	})
}

func (r *Router) handleHealth(w http.ResponseWriter, req *http.Request) {
	r.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"version":   r.version,
		"providers": r.orchestrator.ProviderHealth(),
	})
}

// validateMessages rejects a batch at the boundary when any message is
// malformed, naming the offending message in the error.
func (r *Router) validateMessages(w http.ResponseWriter, req *http.Request, messages []types.Message) bool {
	for i := range messages {
		if err := messages[i].Validate(); err != nil {
			r.writeError(w, req, http.StatusBadRequest, "invalid message: "+err.Error())
			return false
		}
	}
	return true
}

func (r *Router) decode(w http.ResponseWriter, req *http.Request, v interface{}) bool {
	defer func() { _ = req.Body.Close() }()
	if err := json.NewDecoder(req.Body).Decode(v); err != nil {
		r.writeError(w, req, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return false
	}
	return true
}

func (r *Router) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		r.logger.Error("failed to encode response", "error", err.Error())
	}
}

func (r *Router) writeError(w http.ResponseWriter, req *http.Request, status int, msg string) {
	r.logger.WarnContext(req.Context(), "request failed",
		"status", status, "path", req.URL.Path, "error", msg)
	r.writeJSON(w, status, errorResponse{
		Error:   msg,
		TraceID: logging.TraceID(req.Context()),
	})
}
