package httpx

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"log/slog"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dealersite/api/internal/repository"
	"github.com/dealersite/api/internal/service/auth"
	"github.com/dealersite/api/internal/service/lead"
	"github.com/dealersite/api/internal/service/onboarding"
	"github.com/dealersite/api/internal/service/verify"
	"github.com/dealersite/api/internal/ws"
)

// Router wires HTTP endpoints to services.
type Router struct {
	mux        *http.ServeMux
	logger     *slog.Logger
	auth       auth.Service
	onboarding *onboarding.Service
	leads      lead.Service
	hub        *ws.Hub
	upgrader   websocket.Upgrader
	limiter    RateLimiter
	dbHealth   func(context.Context) error

	metricsOnce        sync.Once
	metricsInitialized bool
	requestTotal       *prometheus.CounterVec
	requestLatency     *prometheus.HistogramVec
	rateLimitHits      *prometheus.CounterVec
}

const (
	rateWindowDefault  = time.Minute
	rateWindowRealtime = 30 * time.Second
	rateLimitSignup    = 5
	rateLimitLogin     = 12
	rateLimitWrite     = 60
	rateLimitRead      = 120
	rateLimitStream    = 30
	rateLimitLeadIP    = 20
	healthCheckTimeout = 2 * time.Second
	sseHeartbeat       = 15 * time.Second
)

// NewRouter assembles routes with dependencies.
func NewRouter(logger *slog.Logger, authSvc auth.Service, onboardingSvc *onboarding.Service, leadSvc lead.Service, hub *ws.Hub, limiter RateLimiter, dbHealth func(context.Context) error) *Router {
	r := &Router{
		mux:        http.NewServeMux(),
		logger:     logger,
		auth:       authSvc,
		onboarding: onboardingSvc,
		leads:      leadSvc,
		hub:        hub,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		limiter:  limiter,
		dbHealth: dbHealth,
	}
	if r.limiter == nil {
		r.limiter = NewMemoryRateLimiter()
	}
	r.initMetrics()
	r.register()
	return r
}

// ServeHTTP delegates to underlying mux.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// Close releases background resources.
func (r *Router) Close() {
	if r.limiter != nil {
		r.limiter.Close()
	}
}

func (r *Router) register() {
	r.mux.HandleFunc("/healthz", r.audit("/healthz", r.handleHealthz))
	r.mux.Handle("/metrics", promhttp.Handler())
	r.mux.HandleFunc("/auth/signup", r.audit("/auth/signup", r.withRateLimit("/auth/signup", rateLimitSignup, rateWindowDefault, rateLimitKeyIP, r.handleSignup)))
	r.mux.HandleFunc("/auth/login", r.audit("/auth/login", r.withRateLimit("/auth/login", rateLimitLogin, rateWindowDefault, rateLimitKeyIP, r.handleLogin)))
	r.mux.HandleFunc("/domain/start-onboarding", r.audit("/domain/start-onboarding", r.handlerAuthRate("/domain/start-onboarding", rateLimitWrite, rateWindowDefault, r.handleStartOnboarding)))
	r.mux.HandleFunc("/domain/verify-ownership", r.audit("/domain/verify-ownership", r.handlerAuthRate("/domain/verify-ownership", rateLimitWrite, rateWindowDefault, r.handleVerifyOwnership)))
	r.mux.HandleFunc("/domain/verification-status/", r.audit("/domain/verification-status", r.handlerAuthRate("/domain/verification-status", rateLimitRead, rateWindowDefault, r.handleVerificationStatus)))
	r.mux.HandleFunc("/domain/dns-scan/", r.audit("/domain/dns-scan", r.handlerAuthRate("/domain/dns-scan", rateLimitWrite, rateWindowDefault, r.handleDNSScan)))
	r.mux.HandleFunc("/domain/configure", r.audit("/domain/configure", r.handlerAuthRate("/domain/configure", rateLimitWrite, rateWindowDefault, r.handleConfigure)))
	r.mux.HandleFunc("/domain/propagation-status/", r.audit("/domain/propagation-status", r.handlerAuthRate("/domain/propagation-status", rateLimitRead, rateWindowDefault, r.handlePropagationStatus)))
	r.mux.HandleFunc("/domain/download-verification-file", r.audit("/domain/download-verification-file", r.withRateLimit("/domain/download-verification-file", rateLimitRead, rateWindowDefault, rateLimitKeyIP, r.handleDownloadVerificationFile)))
	r.mux.HandleFunc("/domain/onboarding/", r.audit("/domain/onboarding", r.handlerAuthRate("/domain/onboarding", rateLimitRead, rateWindowDefault, r.handleGetOnboarding)))
	r.mux.HandleFunc("/domain/onboardings", r.audit("/domain/onboardings", r.handlerAuthRate("/domain/onboardings", rateLimitRead, rateWindowDefault, r.handleListOnboardings)))
	r.mux.HandleFunc("/leads", r.audit("/leads", r.handlerAuthRate("/leads", rateLimitRead, rateWindowDefault, r.handleListLeads)))
	r.mux.HandleFunc("/leads/", r.audit("/leads/intake", r.withRateLimit("/leads/intake", rateLimitLeadIP, rateWindowDefault, rateLimitKeyIP, r.handleLeadIntake)))
	r.mux.HandleFunc("/ws/onboarding", r.audit("/ws/onboarding", r.handlerAuthRate("/ws/onboarding", rateLimitStream, rateWindowRealtime, r.handleOnboardingWS)))
	r.mux.HandleFunc("/events/onboarding", r.audit("/events/onboarding", r.handlerAuthRate("/events/onboarding", rateLimitStream, rateWindowRealtime, r.handleOnboardingSSE)))
}

func (r *Router) handleSignup(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		r.methodNotAllowed(w)
		return
	}
	var payload struct {
		Email          string `json:"email"`
		Password       string `json:"password"`
		DealershipName string `json:"dealership_name"`
	}
	if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	dealer, tokens, err := r.auth.Signup(req.Context(), payload.Email, payload.Password, payload.DealershipName)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"dealer": map[string]any{
			"id":              dealer.ID,
			"email":           dealer.Email,
			"dealership_name": dealer.DealershipName,
		},
		"tokens": tokens,
	})
}

func (r *Router) handleLogin(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		r.methodNotAllowed(w)
		return
	}
	var payload struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	dealer, tokens, err := r.auth.Login(req.Context(), payload.Email, payload.Password)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"dealer": map[string]any{
			"id":              dealer.ID,
			"email":           dealer.Email,
			"dealership_name": dealer.DealershipName,
		},
		"tokens": tokens,
	})
}

func (r *Router) handleStartOnboarding(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		r.methodNotAllowed(w)
		return
	}
	info, ok := r.mustAuthInfo(w, req)
	if !ok {
		return
	}
	var payload struct {
		DomainName  string `json:"domain_name"`
		Registrar   string `json:"registrar"`
		AccessLevel string `json:"access_level"`
	}
	if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	result, err := r.onboarding.Start(req.Context(), info.DealerID, payload.DomainName, payload.Registrar, payload.AccessLevel)
	if err != nil {
		r.onboardingError(w, req, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

func (r *Router) handleVerifyOwnership(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		r.methodNotAllowed(w)
		return
	}
	info, ok := r.mustAuthInfo(w, req)
	if !ok {
		return
	}
	var payload struct {
		OnboardingID string `json:"onboarding_id"`
		Method       string `json:"method"`
	}
	if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if payload.OnboardingID == "" {
		writeError(w, http.StatusBadRequest, "onboarding_id is required")
		return
	}
	outcome, err := r.onboarding.VerifyOwnership(req.Context(), info.DealerID, payload.OnboardingID, payload.Method)
	if err != nil {
		r.onboardingError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

func (r *Router) handleVerificationStatus(w http.ResponseWriter, req *http.Request) {
	id, info, ok := r.pathIDWithAuth(w, req, "/domain/verification-status/")
	if !ok {
		return
	}
	outcome, err := r.onboarding.VerificationStatus(req.Context(), info.DealerID, id)
	if err != nil {
		r.onboardingError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

func (r *Router) handleDNSScan(w http.ResponseWriter, req *http.Request) {
	id, info, ok := r.pathIDWithAuth(w, req, "/domain/dns-scan/")
	if !ok {
		return
	}
	result, err := r.onboarding.ScanDomain(req.Context(), info.DealerID, id)
	if err != nil {
		r.onboardingError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (r *Router) handleConfigure(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		r.methodNotAllowed(w)
		return
	}
	info, ok := r.mustAuthInfo(w, req)
	if !ok {
		return
	}
	var payload struct {
		OnboardingID    string `json:"onboarding_id"`
		DeploymentRoute string `json:"deployment_route"`
		Subdomain       string `json:"subdomain"`
	}
	if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if payload.OnboardingID == "" {
		writeError(w, http.StatusBadRequest, "onboarding_id is required")
		return
	}
	result, err := r.onboarding.Configure(req.Context(), info.DealerID, payload.OnboardingID, payload.DeploymentRoute, strings.ToLower(strings.TrimSpace(payload.Subdomain)))
	if err != nil {
		r.onboardingError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (r *Router) handlePropagationStatus(w http.ResponseWriter, req *http.Request) {
	id, info, ok := r.pathIDWithAuth(w, req, "/domain/propagation-status/")
	if !ok {
		return
	}
	result, err := r.onboarding.PropagationStatus(req.Context(), info.DealerID, id)
	if err != nil {
		r.onboardingError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (r *Router) handleDownloadVerificationFile(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		r.methodNotAllowed(w)
		return
	}
	token := strings.TrimSpace(req.URL.Query().Get("token"))
	if token == "" {
		writeError(w, http.StatusBadRequest, "token query parameter required")
		return
	}
	html, err := r.onboarding.VerificationFile(req.Context(), token)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "unknown verification token")
			return
		}
		r.onboardingError(w, req, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+verify.VerificationFileName+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(html))
}

func (r *Router) handleGetOnboarding(w http.ResponseWriter, req *http.Request) {
	id, info, ok := r.pathIDWithAuth(w, req, "/domain/onboarding/")
	if !ok {
		return
	}
	rec, err := r.onboarding.Get(req.Context(), info.DealerID, id)
	if err != nil {
		r.onboardingError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (r *Router) handleListOnboardings(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		r.methodNotAllowed(w)
		return
	}
	info, ok := r.mustAuthInfo(w, req)
	if !ok {
		return
	}
	records, err := r.onboarding.List(req.Context(), info.DealerID)
	if err != nil {
		r.onboardingError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"onboardings": records})
}

func (r *Router) handleLeadIntake(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		r.methodNotAllowed(w)
		return
	}
	dealerID := strings.TrimPrefix(req.URL.Path, "/leads/")
	if dealerID == "" || strings.Contains(dealerID, "/") {
		r.notFound(w)
		return
	}
	var payload struct {
		Name    string `json:"name"`
		Email   string `json:"email"`
		Phone   string `json:"phone"`
		Message string `json:"message"`
		Source  string `json:"source"`
	}
	if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	l, err := r.leads.Submit(req.Context(), dealerID, payload.Name, payload.Email, payload.Phone, payload.Message, payload.Source)
	if err != nil {
		if errors.Is(err, lead.ErrNameRequired) || errors.Is(err, lead.ErrContactRequired) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		r.internalError(w, req, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"lead_id": l.ID, "status": "received"})
}

func (r *Router) handleListLeads(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		r.methodNotAllowed(w)
		return
	}
	info, ok := r.mustAuthInfo(w, req)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(req.URL.Query().Get("offset"))
	leads, err := r.leads.List(req.Context(), info.DealerID, limit, offset)
	if err != nil {
		r.internalError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"leads": leads})
}

func (r *Router) handleOnboardingWS(w http.ResponseWriter, req *http.Request) {
	info, ok := r.mustAuthInfo(w, req)
	if !ok {
		return
	}
	onboardingID := req.URL.Query().Get("onboarding_id")
	if onboardingID == "" {
		writeError(w, http.StatusBadRequest, "onboarding_id query parameter required")
		return
	}
	if _, err := r.onboarding.Get(req.Context(), info.DealerID, onboardingID); err != nil {
		r.onboardingError(w, req, err)
		return
	}
	conn, err := r.upgrader.Upgrade(w, req, nil)
	if err != nil {
		r.logger.Error("websocket upgrade failed", "error", err)
		return
	}
	client := ws.NewClient(conn, r.logger)
	r.hub.Register(onboardingID, client)
	go func() {
		defer func() {
			r.hub.Unregister(onboardingID, client)
			client.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
	}()
}

func (r *Router) handleOnboardingSSE(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		r.methodNotAllowed(w)
		return
	}
	info, ok := r.mustAuthInfo(w, req)
	if !ok {
		return
	}
	onboardingID := req.URL.Query().Get("onboarding_id")
	if onboardingID == "" {
		writeError(w, http.StatusBadRequest, "onboarding_id query parameter required")
		return
	}
	if _, err := r.onboarding.Get(req.Context(), info.DealerID, onboardingID); err != nil {
		r.onboardingError(w, req, err)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}
	headers := w.Header()
	headers.Set("Content-Type", "text/event-stream")
	headers.Set("Cache-Control", "no-cache")
	headers.Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	client := ws.NewSSEClient(w, flusher, r.logger)
	r.hub.Register(onboardingID, client)
	defer func() {
		r.hub.Unregister(onboardingID, client)
		client.Close()
	}()

	ticker := time.NewTicker(sseHeartbeat)
	defer ticker.Stop()
	for {
		select {
		case <-req.Context().Done():
			return
		case <-ticker.C:
			if err := client.Heartbeat(); err != nil {
				return
			}
		}
	}
}

func (r *Router) handleHealthz(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		r.methodNotAllowed(w)
		return
	}
	components := make(map[string]any)
	status := "ok"
	if r.dbHealth != nil {
		ctx, cancel := context.WithTimeout(req.Context(), healthCheckTimeout)
		defer cancel()
		if err := r.dbHealth(ctx); err != nil {
			status = "degraded"
			components["database"] = map[string]any{
				"status": "down",
				"error":  err.Error(),
			}
		} else {
			components["database"] = map[string]any{"status": "up"}
		}
	}
	payload := map[string]any{
		"status":     status,
		"components": components,
		"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
	}
	code := http.StatusOK
	if status != "ok" {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, payload)
}

// mustAuthInfo fetches the auth context placed by requireAuth. A miss means a
// route was wired without the middleware.
func (r *Router) mustAuthInfo(w http.ResponseWriter, req *http.Request) (authInfo, bool) {
	info, ok := authInfoFromContext(req.Context())
	if !ok {
		r.logger.Error("auth context missing", "path", req.URL.Path)
		writeError(w, http.StatusInternalServerError, "authorization context missing")
		return authInfo{}, false
	}
	return info, true
}

func (r *Router) pathIDWithAuth(w http.ResponseWriter, req *http.Request, prefix string) (string, authInfo, bool) {
	if req.Method != http.MethodGet {
		r.methodNotAllowed(w)
		return "", authInfo{}, false
	}
	info, ok := r.mustAuthInfo(w, req)
	if !ok {
		return "", authInfo{}, false
	}
	id := strings.TrimPrefix(req.URL.Path, prefix)
	if id == "" || strings.Contains(id, "/") {
		r.notFound(w)
		return "", authInfo{}, false
	}
	return id, info, true
}

// onboardingError maps service errors to response codes. Workflow-order
// violations are conflicts; everything unrecognized is logged and hidden
// behind a generic 500.
func (r *Router) onboardingError(w http.ResponseWriter, req *http.Request, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "onboarding not found")
	case errors.Is(err, onboarding.ErrNotOwner):
		writeError(w, http.StatusForbidden, "onboarding belongs to another dealer")
	case errors.Is(err, onboarding.ErrTokenExpired):
		writeError(w, http.StatusGone, err.Error())
	case errors.Is(err, onboarding.ErrInvalidState):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, onboarding.ErrInvalidDomain),
		errors.Is(err, onboarding.ErrUnknownRoute),
		errors.Is(err, onboarding.ErrSubdomainRequired),
		errors.Is(err, onboarding.ErrInvalidSubdomain),
		errors.Is(err, onboarding.ErrNotConfigured),
		errors.Is(err, verify.ErrUnknownMethod):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		r.internalError(w, req, err)
	}
}

func (r *Router) internalError(w http.ResponseWriter, req *http.Request, err error) {
	r.logger.Error("request failed", "path", req.URL.Path, "error", err)
	writeError(w, http.StatusInternalServerError, "internal error")
}

func (r *Router) audit(route string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		recorder := &statusRecorder{ResponseWriter: w}
		start := time.Now()
		next(recorder, req)

		status := recorder.status
		if status == 0 {
			status = http.StatusOK
		}
		ctx := recorder.ctx
		if ctx == nil {
			ctx = req.Context()
		}
		duration := time.Since(start)
		r.recordRequestMetrics(req.Method, route, status, duration)

		actor := "anonymous"
		fields := []any{
			"method", req.Method,
			"path", req.URL.Path,
			"status", status,
			"bytes", recorder.bytes,
			"duration_ms", duration.Milliseconds(),
		}
		if ip := clientIP(req); ip != "" {
			fields = append(fields, "ip", ip)
		}
		if reqID := strings.TrimSpace(req.Header.Get("X-Request-ID")); reqID != "" {
			fields = append(fields, "request_id", reqID)
		}
		if info, ok := authInfoFromContext(ctx); ok {
			actor = "dealer"
			fields = append(fields, "dealer_id", info.DealerID)
		} else if strings.HasPrefix(req.URL.Path, "/leads/") {
			actor = "visitor"
		}
		fields = append(fields, "actor", actor)

		switch {
		case status >= http.StatusInternalServerError:
			r.logger.Error("http_request", fields...)
		case status >= http.StatusBadRequest:
			r.logger.Warn("http_request", fields...)
		default:
			r.logger.Info("http_request", fields...)
		}
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
	ctx    context.Context
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Write(b []byte) (int, error) {
	if sr.status == 0 {
		sr.status = http.StatusOK
	}
	n, err := sr.ResponseWriter.Write(b)
	sr.bytes += n
	return n, err
}

func (sr *statusRecorder) SetContext(ctx context.Context) {
	sr.ctx = ctx
}

func (sr *statusRecorder) Flush() {
	if f, ok := sr.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (sr *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if h, ok := sr.ResponseWriter.(http.Hijacker); ok {
		return h.Hijack()
	}
	return nil, nil, errors.New("hijacker not supported")
}

func (sr *statusRecorder) Push(target string, opts *http.PushOptions) error {
	if p, ok := sr.ResponseWriter.(http.Pusher); ok {
		return p.Push(target, opts)
	}
	return http.ErrNotSupported
}

func clientIP(req *http.Request) string {
	if forwarded := strings.TrimSpace(req.Header.Get("X-Forwarded-For")); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		if len(parts) > 0 {
			ip := strings.TrimSpace(parts[0])
			if ip != "" {
				return ip
			}
		}
	}
	host, _, err := net.SplitHostPort(strings.TrimSpace(req.RemoteAddr))
	if err != nil {
		return strings.TrimSpace(req.RemoteAddr)
	}
	return host
}

func (r *Router) applyRateHeaders(w http.ResponseWriter, limit int, decision rateDecision) {
	if limit <= 0 {
		return
	}
	remaining := limit - decision.count
	if remaining < 0 {
		remaining = 0
	}
	headers := w.Header()
	headers.Set("X-RateLimit-Limit", strconv.Itoa(limit))
	headers.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
	if !decision.windowEnd.IsZero() {
		headers.Set("X-RateLimit-Reset", strconv.FormatInt(decision.windowEnd.Unix(), 10))
	}
}

func (r *Router) methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

func (r *Router) notFound(w http.ResponseWriter) {
	writeError(w, http.StatusNotFound, "not found")
}
