package api

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/quic-go/quic-go"
	"github.com/quic-go/quic-go/http3"

	"VRFOracle/internal/logger"
	"VRFOracle/internal/oracle"
)

const (
	// maxBodySize is the maximum request body size in bytes.
	maxBodySize = 64 << 10 // 64 KB

	// replayWindow covers every timestamp authenticate can still accept.
	replayWindow = 2 * maxClockSkew
)

// Config holds the listener settings.
type Config struct {
	Addr     string           // Addr is the HTTP listen address
	QUICAddr string           // QUICAddr is the HTTP/3 listen address (empty disables)
	TLSCert  *tls.Certificate // TLSCert is required when QUICAddr is set
}

// Server is the HTTP API server.
type Server struct {
	cfg    Config
	ledger *oracle.Ledger   // ledger serves every route
	replay *replayGuard     // replay rejects resubmitted signed bodies
	now    func() time.Time // now is the clock used for timestamp checks
	server *http.Server     // server is the HTTP/1.1 server
	h3     *http3.Server    // h3 is the optional HTTP/3 server
}

// New creates a new HTTP API server.
func New(cfg Config, ledger *oracle.Ledger) *Server {
	return &Server{
		cfg:    cfg,
		ledger: ledger,
		replay: newReplayGuard(replayWindow),
		now:    time.Now,
	}
}

// Handler returns the route multiplexer.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /configure", s.handleConfigure)
	mux.HandleFunc("POST /assets", s.handleConfigureAsset)
	mux.HandleFunc("POST /assets/remove", s.handleRemoveAsset)
	mux.HandleFunc("POST /revoke", s.handleRevoke)
	mux.HandleFunc("POST /withdraw", s.handleWithdraw)
	mux.HandleFunc("POST /requests", s.handleRequest)
	mux.HandleFunc("POST /fulfill", s.handleFulfill)
	mux.HandleFunc("POST /reset", s.handleReset)

	mux.HandleFunc("GET /authority", s.handleAuthority)
	mux.HandleFunc("GET /asset", s.handleAsset)
	mux.HandleFunc("GET /assets", s.handleAssets)
	mux.HandleFunc("GET /fee/{asset}", s.handleFee)
	mux.HandleFunc("GET /balance/{asset}", s.handleBalance)
	mux.HandleFunc("GET /authorities", s.handleAuthorities)
	mux.HandleFunc("GET /requests/count", s.handleRequestCount)
	mux.HandleFunc("GET /requests/seed/{seed}", s.handleRequestBySeed)
	mux.HandleFunc("GET /requests/num/{num}", s.handleRequestByNum)
	mux.HandleFunc("GET /requests", s.handleRequests)
	mux.HandleFunc("GET /events", s.handleEvents)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /snapshot", s.handleSnapshot)

	return mux
}

// Start starts the HTTP server, and the HTTP/3 server when configured, in
// goroutines.
func (s *Server) Start() error {
	handler := s.Handler()

	s.server = &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		logger.Info("http api started", "addr", s.cfg.Addr)

		if err := s.server.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("http server error", "error", err)
		}
	}()

	if s.cfg.QUICAddr == "" {
		return nil
	}

	if s.cfg.TLSCert == nil {
		return errors.New("http3 listener requires a TLS certificate")
	}

	s.h3 = &http3.Server{
		Addr:    s.cfg.QUICAddr,
		Handler: handler,
		TLSConfig: http3.ConfigureTLSConfig(&tls.Config{
			Certificates: []tls.Certificate{*s.cfg.TLSCert},
			MinVersion:   tls.VersionTLS13,
		}),
		QUICConfig: &quic.Config{
			MaxIdleTimeout:  60 * time.Second,
			KeepAlivePeriod: 20 * time.Second,
		},
	}

	go func() {
		logger.Info("http3 api started", "addr", s.cfg.QUICAddr)

		if err := s.h3.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("http3 server stopped", "error", err)
		}
	}()

	return nil
}

// Stop gracefully shuts down the HTTP servers.
func (s *Server) Stop() error {
	defer s.replay.close()

	if s.h3 != nil {
		if err := s.h3.Close(); err != nil {
			logger.Warn("close http3 server", "error", err)
		}
	}

	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return s.server.Shutdown(ctx)
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Error: message, Code: code})
}

// writeLedgerError maps a ledger failure to a response. Rejections carry
// their oracle code; anything else is an internal error and is logged.
func writeLedgerError(w http.ResponseWriter, err error) {
	code := oracle.CodeOf(err)
	if code == "" {
		logger.Error("ledger failure", "error", err)
		writeError(w, http.StatusInternalServerError, CodeInternal, "internal error")
		return
	}

	writeError(w, statusFor(code), string(code), err.Error())
}

// statusFor returns the HTTP status of an oracle rejection.
func statusFor(code oracle.Code) int {
	switch code {
	case oracle.ErrNotAuthorized.Code:
		return http.StatusForbidden
	case oracle.ErrUnknownRequest.Code:
		return http.StatusNotFound
	case oracle.ErrSeedInUse.Code, oracle.ErrFulfilled.Code, oracle.ErrResponded.Code:
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}
