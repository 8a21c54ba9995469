package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/elonfeng/playsignal/internal/analytics"
	"github.com/elonfeng/playsignal/internal/store"
)

// Server provides the HTTP API.
type Server struct {
	store     store.Store
	analytics *analytics.Service
	port      int
}

// New creates a new HTTP server.
func New(s store.Store, svc *analytics.Service, port int) *Server {
	if port == 0 {
		port = 8080
	}
	return &Server{
		store:     s,
		analytics: svc,
		port:      port,
	}
}

// Handler returns the API routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /api/v1/projects", s.handleProjects)
	mux.HandleFunc("GET /api/v1/projects/{id}/analytics", s.handleAnalytics)
	mux.HandleFunc("POST /api/v1/projects/{id}/follows", s.handleFollow)
	mux.HandleFunc("GET /api/v1/boards/{slug}", s.handleBoard)
	mux.HandleFunc("GET /api/v1/discover", s.handleDiscover)
	mux.HandleFunc("POST /api/v1/forms/{id}/responses", s.handleSubmit)
	return mux
}

// ListenAndServe starts the HTTP server and shuts it down when ctx is
// cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	fmt.Printf("playsignal server listening on %s\n", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleProjects(w http.ResponseWriter, r *http.Request) {
	opts := store.ProjectListOpts{PublicOnly: r.URL.Query().Get("public") == "true"}
	projects, err := s.store.ListProjects(r.Context(), opts)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data":  projects,
		"count": len(projects),
	})
}

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	report, err := s.analytics.ProjectAnalytics(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": report})
}

func (s *Server) handleBoard(w http.ResponseWriter, r *http.Request) {
	board, err := s.analytics.ProgressBoard(r.Context(), r.PathValue("slug"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": board})
}

func (s *Server) handleDiscover(w http.ResponseWriter, r *http.Request) {
	cards, err := s.analytics.Discover(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data":  cards,
		"count": len(cards),
	})
}

type submitRequest struct {
	Comment    string              `json:"comment"`
	Respondent string              `json:"respondent"`
	Answers    []store.AnswerInput `json:"answers"`
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json body"})
		return
	}
	if len(req.Answers) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "answers are required"})
		return
	}

	resp := &store.Response{
		FormID:     r.PathValue("id"),
		Comment:    req.Comment,
		Respondent: req.Respondent,
		Answers:    req.Answers,
	}
	if err := s.store.SubmitResponse(r.Context(), resp); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"data": resp})
}

type followRequest struct {
	FollowerID string `json:"follower_id"`
}

func (s *Server) handleFollow(w http.ResponseWriter, r *http.Request) {
	var req followRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json body"})
		return
	}
	req.FollowerID = strings.TrimSpace(req.FollowerID)
	if req.FollowerID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "follower_id is required"})
		return
	}

	project, err := s.store.GetProject(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.store.AddFollow(r.Context(), project.ID, req.FollowerID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"status": "following"})
}

// writeError maps store errors onto status codes.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, store.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, store.ErrOutOfRange), errors.Is(err, store.ErrUnknownQuestion):
		status = http.StatusBadRequest
	case errors.Is(err, store.ErrFormInactive):
		status = http.StatusConflict
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
