package chi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/oapi-codegen/runtime"
	"github.com/oapi-codegen/runtime/types"
	"go.uber.org/zap"

	"github.com/sagar8080/semantic-search-system/internal/domain"
	"github.com/sagar8080/semantic-search-system/internal/domain/document"
	"github.com/sagar8080/semantic-search-system/internal/domain/search/mode"
	"github.com/sagar8080/semantic-search-system/internal/domain/search/request"
	"github.com/sagar8080/semantic-search-system/internal/domain/search/result"
	"github.com/sagar8080/semantic-search-system/internal/logger"
	answeruc "github.com/sagar8080/semantic-search-system/internal/usecase/answer"
	healthuc "github.com/sagar8080/semantic-search-system/internal/usecase/health"
)

const maxBodyBytes = 1 << 20

// Searcher runs the retrieval variants.
type Searcher interface {
	Search(ctx context.Context, req *request.Request) []result.Candidate
	KB(ctx context.Context, req *request.Request) []result.Candidate
	Documents(ctx context.Context, req *request.Request) []result.Candidate
}

// Answerer synthesizes answers over the knowledge base.
type Answerer interface {
	Answer(ctx context.Context, question string) (answeruc.Answer, error)
}

// HealthChecker reports component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server holds the HTTP handlers.
type Server struct {
	search        Searcher
	answer        Answerer
	health        HealthChecker
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server. answer may be nil, which disables POST /v1/answer.
func NewServer(search Searcher, answer Answerer, health HealthChecker, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		search: search,
		answer: answer,
		health: health,
		logger: logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidRequest, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, codeNotFound),
		sentinelHandler(domain.ErrRateLimited, http.StatusTooManyRequests, codeRateLimited),
		sentinelHandler(domain.ErrCompletionProviderError, http.StatusBadGateway, codeProviderError),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, codeProviderError),
	}
	return s
}

// SearchGet handles GET /v1/search.
func (s *Server) SearchGet(w http.ResponseWriter, r *http.Request) {
	req, err := searchRequestFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}
	s.runSearch(w, r, req, s.search.Search, true)
}

// SearchPost handles POST /v1/search.
func (s *Server) SearchPost(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeSearch(w, r)
	if !ok {
		return
	}
	s.runSearch(w, r, req, s.search.Search, true)
}

// SearchKB handles POST /v1/search/kb.
func (s *Server) SearchKB(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeSearch(w, r)
	if !ok {
		return
	}
	s.runSearch(w, r, req, s.search.KB, false)
}

// SearchDocuments handles POST /v1/search/documents.
func (s *Server) SearchDocuments(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeSearch(w, r)
	if !ok {
		return
	}
	s.runSearch(w, r, req, s.search.Documents, false)
}

func (s *Server) runSearch(
	w http.ResponseWriter, r *http.Request, body searchRequest,
	run func(context.Context, *request.Request) []result.Candidate, withMode bool,
) {
	req, err := searchRequestFromDTO(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, err.Error())
		return
	}

	results := run(r.Context(), &req)

	m := ""
	if withMode {
		m = string(req.Mode())
	}
	writeJSON(w, http.StatusOK, candidatesToResponse(results, m, false))
}

// Answer handles POST /v1/answer.
func (s *Server) Answer(w http.ResponseWriter, r *http.Request) {
	if s.answer == nil {
		writeError(w, http.StatusNotFound, codeNotFound, "answer endpoint is disabled")
		return
	}

	var body answerRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	ans, err := s.answer.Answer(r.Context(), body.Question)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ans)
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}
	if len(report.Errors) > 0 {
		log := logger.FromContextOr(r.Context(), s.logger)
		for _, name := range report.Names() {
			if err := report.Errors[name]; err != nil {
				log.Warn("Health check failed", zap.String("component", name), zap.Error(err))
			}
		}
	}

	// A degraded provider still serves search, so only a store outage fails readiness.
	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, healthResponse{Status: string(report.Status), Checks: checks})
}

func decodeSearch(w http.ResponseWriter, r *http.Request) (searchRequest, bool) {
	var body searchRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return searchRequest{}, false
	}
	return body, true
}

// searchRequestFromQuery binds the GET /v1/search query string.
func searchRequestFromQuery(r *http.Request) (searchRequest, error) {
	q := r.URL.Query()
	var (
		text, modeName   *string
		k, fuzziness     *int
		from, to         *types.Date
		expand, doRerank *bool
	)
	binds := []struct {
		name string
		dest any
	}{
		{"q", &text}, {"mode", &modeName}, {"k", &k}, {"fuzziness", &fuzziness},
		{"from", &from}, {"to", &to}, {"expand", &expand}, {"rerank", &doRerank},
	}
	for _, b := range binds {
		if err := runtime.BindQueryParameter("form", true, false, b.name, q, b.dest); err != nil {
			return searchRequest{}, fmt.Errorf("invalid parameter %q: %w", b.name, err)
		}
	}

	out := searchRequest{Fuzziness: fuzziness}
	if text != nil {
		out.Query = *text
	}
	if modeName != nil {
		out.Mode = *modeName
	}
	if k != nil {
		out.K = *k
	}
	if from != nil {
		out.From = from.Format(types.DateFormat)
	}
	if to != nil {
		out.To = to.Format(types.DateFormat)
	}
	out.Expand = expand != nil && *expand
	out.Rerank = doRerank != nil && *doRerank
	return out, nil
}

func searchRequestFromDTO(body searchRequest) (request.Request, error) {
	p := request.Params{
		Query:     body.Query,
		K:         body.K,
		Fuzziness: body.Fuzziness,
		Expand:    body.Expand,
		Rerank:    body.Rerank,
	}
	if body.Mode != "" {
		m, err := mode.Parse(body.Mode)
		if err != nil {
			return request.Request{}, err
		}
		p.Mode = m
	}
	var err error
	if p.From, err = parseDate(body.From); err != nil {
		return request.Request{}, err
	}
	if p.To, err = parseDate(body.To); err != nil {
		return request.Request{}, err
	}
	return request.New(p)
}

func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := document.ParseDate(s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns the message of the first known sentinel wrapped in err,
// so provider internals never reach the client.
func safeDomainMessage(err error) string {
	if errors.Is(err, domain.ErrInvalidRequest) {
		return err.Error()
	}
	for _, sentinel := range []error{
		domain.ErrNotFound,
		domain.ErrRateLimited,
		domain.ErrCompletionProviderError,
		domain.ErrEmbeddingProviderError,
	} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return "internal error"
}

func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	l := logger.FromContextOr(r.Context(), s.logger)
	l.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	l.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
