package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"bankist.app/internal/auth"
	"bankist.app/internal/bank"
	"bankist.app/internal/obs"
	"bankist.app/internal/stream"
)

const serviceName = "bankist-api"

// Pinger is implemented by backing stores that can report connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ReadyProbe checks the account store. A nil Store is always ready.
type ReadyProbe struct {
	Store Pinger
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.Store == nil {
		return nil
	}
	return rp.Store.Ping(ctx)
}

type readinessChecker interface {
	Check(ctx context.Context) error
}

// API is the HTTP presentation adapter over bank.Service.
type API struct {
	mux      *http.ServeMux
	svc      *bank.Service
	issuer   *auth.Issuer
	sessions *sessionRegistry
	stream   *stream.Stream
	log      *zap.Logger

	readiness    readinessChecker
	version      string
	sessionTTL   time.Duration
	reportErrors bool
	rateBurst    int
	ratePerSec   int
}

// Option configures API.
type Option func(*API)

func WithVersion(v string) Option { return func(a *API) { a.version = v } }

func WithReadiness(r readinessChecker) Option {
	return func(a *API) {
		if r != nil {
			a.readiness = r
		}
	}
}

// WithStream enables GET /v1/stream and event publishing.
func WithStream(s *stream.Stream) Option { return func(a *API) { a.stream = s } }

func WithSessionTTL(ttl time.Duration) Option {
	return func(a *API) {
		if ttl > 0 {
			a.sessionTTL = ttl
		}
	}
}

// WithReportErrors makes failed operations answer with a 4xx error body
// instead of 200 and an empty frame.
func WithReportErrors(on bool) Option { return func(a *API) { a.reportErrors = on } }

func WithRateLimit(burst, perSecond int) Option {
	return func(a *API) {
		if burst > 0 && perSecond > 0 {
			a.rateBurst = burst
			a.ratePerSec = perSecond
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(a *API) {
		if l != nil {
			a.log = l
		}
	}
}

// New builds the API and registers its routes.
func New(svc *bank.Service, issuer *auth.Issuer, opts ...Option) *API {
	a := &API{
		mux:        http.NewServeMux(),
		svc:        svc,
		issuer:     issuer,
		readiness:  ReadyProbe{},
		log:        obs.Logger(),
		version:    "dev",
		sessionTTL: 10 * time.Minute,
		rateBurst:  20,
		ratePerSec: 10,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.sessions = newSessionRegistry(svc.Now)

	a.mux.HandleFunc("/healthz", a.Healthz)
	a.mux.HandleFunc("/readyz", a.Ready)
	a.mux.HandleFunc("/v1/info", a.Info)
	a.mux.Handle("/metrics", obs.Handler())

	a.mux.HandleFunc("/v1/login", a.handleLogin)
	a.mux.HandleFunc("/v1/view", a.handleView)
	a.mux.HandleFunc("/v1/transfers", a.handleTransfers)
	a.mux.HandleFunc("/v1/loans", a.handleLoans)
	a.mux.HandleFunc("/v1/close", a.handleClose)
	a.mux.HandleFunc("/v1/sort", a.handleSort)
	a.mux.HandleFunc("/v1/stream", a.Stream)

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusNotFound, "resource not found")
	})
	return a
}

// Handler returns the full middleware chain around the routes.
func (a *API) Handler() http.Handler {
	var h http.Handler = a.mux
	h = a.withAuth(h)
	h = MaxBodyBytes(h, 1<<20)
	h = RateLimit(h, a.rateBurst, a.ratePerSec)
	h = CORS(h)
	h = SecurityHeaders(h)
	h = LoggingJSON(h)
	h = RequestID(h)
	return obs.Instrument(h)
}

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": serviceName,
		"version": a.version,
	})
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	if err := a.readiness.Check(r.Context()); err != nil {
		obs.SetReady(false)
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	obs.SetReady(true)
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
	})
}

func (a *API) Info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":     serviceName,
		"time":     time.Now().UTC().Format(time.RFC3339),
		"version":  a.version,
		"sessions": a.sessions.len(),
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, code int, msg string) {
	payload := map[string]any{
		"error": msg,
	}
	if rid := RequestIDFromContext(r.Context()); rid != "" {
		payload["request_id"] = rid
	}
	writeJSON(w, code, payload)
}
