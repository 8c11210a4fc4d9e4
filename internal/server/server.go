package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/keywheel/keywheel/internal/keystore"
	"github.com/keywheel/keywheel/internal/signer"
)

// Config contains server configuration
type Config struct {
	// HTTPPort is the port for the HTTP endpoints
	HTTPPort int

	// Store holds the signing keys published by the server
	Store *keystore.Store

	// Signer issues tokens for the token endpoint
	Signer *signer.Signer

	// Logger is an optional logger (defaults to the standard logrus logger)
	Logger logrus.FieldLogger
}

// Server publishes the key set and token endpoints over HTTP
type Server struct {
	httpServer *http.Server
	handler    http.Handler
	httpPort   int

	store  *keystore.Store
	signer *signer.Signer
	log    logrus.FieldLogger
}

// New creates a new server with the given configuration
func New(cfg Config) *Server {
	log := cfg.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}

	s := &Server{
		httpPort: cfg.HTTPPort,
		store:    cfg.Store,
		signer:   cfg.Signer,
		log:      log,
	}

	r := chi.NewRouter()
	r.Get("/.well-known/jwks.json", s.handleJWKS)
	r.Get("/v1/jwks.json", s.handleJWKS)
	r.Post("/v1/keys", s.handleGenerateKey)
	r.Post("/v1/token", s.handleIssueToken)
	r.Get("/healthz", s.handleHealth)
	s.handler = r

	return s
}

// Handler returns the HTTP handler, for serving through a test server
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start starts the HTTP server
func (s *Server) Start(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:    fmt.Sprintf(":%d", s.httpPort),
		Handler: s.handler,
	}

	go func() {
		s.log.WithField("port", s.httpPort).Info("HTTP server listening")
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.WithError(err).Error("HTTP server error")
		}
	}()

	return nil
}

// Stop gracefully stops the server
func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

// handleJWKS serves the public JWK Set document
func (s *Server) handleJWKS(w http.ResponseWriter, r *http.Request) {
	keys, err := s.store.Export(false)
	if err != nil {
		s.log.WithError(err).Error("Failed to export key set")
		http.Error(w, "failed to export key set", http.StatusInternalServerError)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{"keys": keys})
}

// generateKeyRequest is the body of POST /v1/keys
type generateKeyRequest struct {
	Algorithm string `json:"alg"`
	Curve     string `json:"crv,omitempty"`
	KeyID     string `json:"kid,omitempty"`
}

func (s *Server) handleGenerateKey(w http.ResponseWriter, r *http.Request) {
	var req generateKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	var opts []keystore.GenerateOption
	if req.KeyID != "" {
		opts = append(opts, keystore.WithKeyID(req.KeyID))
	}
	if req.Curve != "" {
		opts = append(opts, keystore.WithCurve(req.Curve))
	}

	rec, err := s.store.Generate(r.Context(), keystore.Algorithm(req.Algorithm), opts...)
	if err != nil {
		if errors.Is(err, keystore.ErrUnsupportedAlgorithm) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		s.log.WithError(err).WithField("alg", req.Algorithm).Error("Failed to generate key")
		http.Error(w, "failed to generate key", http.StatusInternalServerError)
		return
	}

	s.log.WithFields(logrus.Fields{
		"alg": rec.Algorithm,
		"kid": rec.KeyID,
	}).Info("Generated signing key")

	s.writeJSON(w, http.StatusCreated, map[string]any{
		"alg": string(rec.Algorithm),
		"kid": rec.KeyID,
	})
}

// issueTokenRequest is the body of POST /v1/token
type issueTokenRequest struct {
	Subject  string         `json:"subject"`
	Audience []string       `json:"audience,omitempty"`
	KeyID    string         `json:"kid,omitempty"`
	Claims   map[string]any `json:"claims,omitempty"`
}

func (s *Server) handleIssueToken(w http.ResponseWriter, r *http.Request) {
	var req issueTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	token, err := s.signer.Issue(r.Context(), signer.Request{
		Subject:  req.Subject,
		Audience: req.Audience,
		KeyID:    req.KeyID,
		Claims:   req.Claims,
	})
	if err != nil {
		s.log.WithError(err).Error("Failed to issue token")
		http.Error(w, "failed to issue token", http.StatusInternalServerError)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"token":      token.Value,
		"kid":        token.KeyID,
		"issued_at":  token.IssuedAt.Unix(),
		"expires_at": token.ExpiresAt.Unix(),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "keys": s.store.Len()})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.log.WithError(err).Error("Failed to write response")
	}
}
