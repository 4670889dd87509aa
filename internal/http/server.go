// Package http exposes the ledger over a JSON API plus a websocket change
// feed.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"finledger/internal/amqp"
	"finledger/internal/cache"
	"finledger/internal/ledger"
	"finledger/internal/log"
)

// ChangePublisher forwards ledger changes to the message broker. Nil
// disables publishing.
type ChangePublisher interface {
	PublishChange(ctx context.Context, msg *amqp.ChangeMessage) error
}

// Options configures a Server. Store is required.
type Options struct {
	Addr           string
	AllowedOrigins []string
	Store          *ledger.Store
	Publisher      ChangePublisher
	Logger         *log.Logger

	// RateLimit is mutating requests per minute per client IP. Zero means
	// the default of 60.
	RateLimit int
}

type Server struct {
	http.Server

	store     *ledger.Store
	publisher ChangePublisher
	log       *log.Logger
	now       func() time.Time

	limiter        *rateLimiter
	analyticsCache *cache.LRUCache[[]byte]

	stopForwarder func()
	forwarderDone chan struct{}
	shutdownOnce  sync.Once

	// closingCtx is cancelled on Shutdown so long-lived handlers
	// (websockets) let go; http.Server.Shutdown alone waits for them.
	closingCtx  context.Context
	cancelClose context.CancelFunc
}

// NewServer wires routes and middleware, returning a ready-to-run server.
func NewServer(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.Config{Component: log.ComponentHTTP})
	}
	limit := opts.RateLimit
	if limit <= 0 {
		limit = 60
	}
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	s := &Server{
		store:          opts.Store,
		publisher:      opts.Publisher,
		log:            logger,
		now:            time.Now,
		limiter:        newRateLimiter(limit),
		analyticsCache: cache.NewLRU[[]byte](64, 30*time.Second),
		forwarderDone:  make(chan struct{}),
	}
	s.closingCtx, s.cancelClose = context.WithCancel(context.Background())

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(s.requestLogger)
	r.Use(securityHeaders)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/ws", s.handleWebsocket)

	r.Route("/api", func(r chi.Router) {
		r.Get("/transactions", s.handleListTransactions)
		r.Get("/summary", s.handleSummary)
		r.Get("/analytics/categories", s.handleCategoryBreakdown)
		r.Get("/analytics/monthly", s.handleMonthlyTrends)
		r.Get("/analytics/period", s.handlePeriodStats)
		r.Get("/categories", s.handleUniqueCategories)
		r.Get("/settings", s.handleGetSettings)
		r.Get("/export", s.handleExportJSON)
		r.Get("/export/csv", s.handleExportCSV)
		r.Get("/export/xlsx", s.handleExportXLSX)
		r.Get("/alert", s.handleAlert)

		r.Group(func(r chi.Router) {
			r.Use(s.rateLimit)
			r.Post("/transactions", s.handleAddTransaction)
			r.Delete("/transactions/{id}", s.handleRemoveTransaction)
			r.Delete("/transactions", s.handleClearTransactions)
			r.Post("/transactions/import", s.handleImport)
			r.Put("/settings/currency", s.handleSetCurrency)
		})
	})

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	events, cancel := s.store.Subscribe()
	s.stopForwarder = cancel
	go s.forwardChanges(events)

	return s
}

// forwardChanges fans ledger events out to the broker and drops stale
// analytics cache entries. Runs until Shutdown cancels the subscription.
func (s *Server) forwardChanges(events <-chan ledger.Event) {
	defer close(s.forwarderDone)

	for ev := range events {
		s.analyticsCache.Clear()

		if s.publisher == nil {
			continue
		}
		id := ""
		if ev.Transaction != nil {
			id = ev.Transaction.ID
		}
		msg := amqp.NewChangeMessage(string(ev.Kind), id, ev.Count, ev.OccurredAt)
		ctx, ctxCancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := s.publisher.PublishChange(ctx, msg); err != nil {
			s.log.Error("Change publish failed", log.FieldError, err, "action", msg.Action)
		}
		ctxCancel()
	}
}

// rateLimit rejects mutating requests over the per-IP budget.
func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientIP := extractClientIP(r)
		if !s.limiter.allow(clientIP) {
			s.log.WarnContext(r.Context(), "Rate limit exceeded",
				log.FieldClientIP, clientIP, log.FieldMethod, r.Method, log.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requestLogger logs one line per completed request.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.InfoContext(r.Context(), "Request completed",
			log.FieldRequestID, chimw.GetReqID(r.Context()),
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			log.FieldStatusCode, ww.Status(),
			log.FieldDuration, time.Since(start).Milliseconds(),
			log.FieldClientIP, extractClientIP(r))
	})
}

// Shutdown stops the background goroutines and then the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.cancelClose()
		if s.stopForwarder != nil {
			s.stopForwarder()
		}
		select {
		case <-s.forwarderDone:
		case <-ctx.Done():
		}
		s.limiter.stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
