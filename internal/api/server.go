// Package api serves an ingested content graph over HTTP.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/wpgraph/wpgraph/internal/graph"
	"github.com/wpgraph/wpgraph/internal/version"
)

// Server holds the HTTP server dependencies
type Server struct {
	store graph.Store
	log   *zap.Logger
}

// New creates a new API server
func New(store graph.Store, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{store: store, log: log}
}

// Router builds the chi router with all API routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))

	r.Route("/api", func(r chi.Router) {
		r.Get("/version", s.handleVersion)
		r.Get("/types", s.handleListTypes)
		r.Get("/nodes", s.handleListNodes)
		r.Get("/nodes/{id}", s.handleGetNode)
	})

	return r
}

// VersionResponse represents version information
type VersionResponse struct {
	Version string `json:"version"`
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, VersionResponse{Version: version.Version()})
}

func (s *Server) handleListTypes(w http.ResponseWriter, r *http.Request) {
	types, err := s.store.ListTypes(r.Context())
	if err != nil {
		s.log.Error("listing types", zap.Error(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if types == nil {
		types = []graph.Type{}
	}
	writeJSON(w, http.StatusOK, types)
}

// handleListNodes serves GET /api/nodes?type=<typeKey>. Without a type
// filter it returns every node.
func (s *Server) handleListNodes(w http.ResponseWriter, r *http.Request) {
	typeKey := r.URL.Query().Get("type")
	nodes, err := s.store.ListNodes(r.Context(), typeKey)
	if err != nil {
		s.log.Error("listing nodes", zap.String("type", typeKey), zap.Error(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if nodes == nil {
		nodes = []*graph.Node{}
	}
	writeJSON(w, http.StatusOK, nodes)
}

func (s *Server) handleGetNode(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	node, err := s.store.GetNode(r.Context(), id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, node)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
