package server

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/MeKo-Tech/qrfeed/internal/reader"
	"github.com/MeKo-Tech/qrfeed/internal/source"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// readerInterface defines the methods needed by the server from a reader.
type readerInterface interface {
	Enable() error
	Disable() error
	LastResult() string
	Status() reader.Status
	Subscribe() (string, <-chan string)
	Unsubscribe(id string) bool
	SetFeedSink(s reader.FeedSink)
}

// Server exposes a reader over HTTP. It doubles as the reader's feed sink:
// the bound frame source backs the /reader/frame snapshot endpoint.
type Server struct {
	reader      readerInterface
	corsOrigin  string
	version     string
	rateLimiter *RateLimiter
	logger      *slog.Logger

	feedMu sync.RWMutex
	feed   source.Source
}

// Config holds server configuration.
type Config struct {
	Host       string
	Port       int
	CORSOrigin string
	Version    string
	RateLimit  RateLimitConfig
	Logger     *slog.Logger
}

// RateLimitConfig limits the reader control endpoints per client.
type RateLimitConfig struct {
	Enabled           bool
	RequestsPerMinute int
	RequestsPerHour   int
	MaxRequestsPerDay int
}

// Response types for API endpoints.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
	Time    string `json:"time"`
}

type ResultResponse struct {
	Result string `json:"result"`
	Found  bool   `json:"found"`
}

type ControlResponse struct {
	Success bool   `json:"success"`
	State   string `json:"state,omitempty"`
	Error   string `json:"error,omitempty"`
}

// NewServer creates a server for r and binds itself as r's feed sink.
func NewServer(r readerInterface, config Config) *Server {
	if config.CORSOrigin == "" {
		config.CORSOrigin = "*"
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	s := &Server{
		reader:     r,
		corsOrigin: config.CORSOrigin,
		version:    config.Version,
		logger:     config.Logger,
	}
	if config.RateLimit.Enabled {
		s.rateLimiter = NewRateLimiter(
			config.RateLimit.RequestsPerMinute,
			config.RateLimit.RequestsPerHour,
			config.RateLimit.MaxRequestsPerDay,
		)
	}
	r.SetFeedSink(s)
	return s
}

// BindSource implements reader.FeedSink.
func (s *Server) BindSource(src source.Source) {
	s.feedMu.Lock()
	s.feed = src
	s.feedMu.Unlock()
}

func (s *Server) feedSource() source.Source {
	s.feedMu.RLock()
	defer s.feedMu.RUnlock()
	return s.feed
}

// Router returns the HTTP routes.
func (s *Server) Router() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/health", s.corsMiddleware(s.healthHandler)).Methods(http.MethodGet, http.MethodOptions)
	r.HandleFunc("/reader", s.corsMiddleware(s.readerStatusHandler)).Methods(http.MethodGet, http.MethodOptions)
	r.HandleFunc("/reader/result", s.corsMiddleware(s.resultHandler)).Methods(http.MethodGet, http.MethodOptions)
	r.HandleFunc("/reader/frame", s.corsMiddleware(s.frameHandler)).Methods(http.MethodGet, http.MethodOptions)
	r.HandleFunc("/reader/{action:enable|disable}",
		s.corsMiddleware(s.rateLimitMiddleware(s.controlHandler))).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/ws", s.detectionWebSocketHandler).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	return r
}
