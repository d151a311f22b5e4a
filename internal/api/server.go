// Package api exposes the HTTP interface over the relational records: a thin
// CRUD layer for companies, their stored images, addresses, and the id+name
// reference tables.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/Kalinka5/osint-vm/internal/store"
)

const requestTimeout = 60 * time.Second

// Stores bundles the persistence interfaces the API serves.
type Stores struct {
	Companies store.CompanyStore
	Images    store.ImageLedger
	Addresses store.AddressStore
	Reference store.ReferenceStore
}

// Server wires HTTP handlers to the stores.
type Server struct {
	router chi.Router
	stores Stores
	logger *zap.Logger
}

// NewServer constructs a Server with middleware and routes.
func NewServer(stores Stores, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		stores: stores,
		logger: logger,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))

	r.Get("/healthz", s.healthz)

	r.Route("/companies", func(r chi.Router) {
		r.Get("/", s.listCompanies)
		r.Post("/", s.createCompany)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.getCompany)
			r.Patch("/", s.updateCompany)
			r.Delete("/", s.deleteCompany)
			r.Get("/image", s.getCompanyImage)
		})
	})

	r.Route("/company-images", func(r chi.Router) {
		r.Get("/", s.listCompanyImages)
		r.Get("/{id}", s.getCompanyImageByID)
	})

	r.Route("/addresses", func(r chi.Router) {
		r.Get("/", s.listAddresses)
		r.Post("/", s.createAddress)
		r.Get("/{id}", s.getAddress)
	})

	// The reference tables share one handler set, parameterized by table.
	for route, table := range map[string]string{
		"/cities":              "cities",
		"/countries":           "countries",
		"/industries":          "industries",
		"/number-of-employees": "number_of_employees",
	} {
		s.mountReference(r, route, table)
	}

	s.router = r
	return s
}

// Handler returns the Router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}
