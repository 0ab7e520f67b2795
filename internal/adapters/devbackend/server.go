package devbackend

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// Server serves the subset of the platform API the console consumes.
type Server struct {
	issuer *Issuer
	logger *slog.Logger
	mux    *http.ServeMux
}

// NewServer wires routes around issuer.
func NewServer(issuer *Issuer, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{issuer: issuer, logger: logger, mux: http.NewServeMux()}

	s.mux.HandleFunc("POST /api/auth/signin", s.handleSignIn)
	s.mux.HandleFunc("GET /.well-known/jwks.json", s.handleJWKS)

	s.mux.Handle("GET /api/admin/applications", s.requireBearer(true, s.handleApplications))
	s.mux.Handle("GET /api/admin/clients", s.requireBearer(true, s.handleClients))
	s.mux.Handle("GET /api/admin/analytics/summary", s.requireBearer(true, s.handleAnalytics))
	s.mux.Handle("GET /api/blogs", s.requireBearer(false, s.handleBlogs))
	s.mux.Handle("GET /api/messages/recent", s.requireBearer(false, s.handleMessages))
	s.mux.Handle("GET /api/users/me", s.requireBearer(false, s.handleMe))
	return s
}

// Issuer exposes the token issuer, e.g. for tests that need to mint tokens directly.
func (s *Server) Issuer() *Issuer { return s.issuer }

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.mux.ServeHTTP(w, r) }

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "message": "invalid request body"})
		return
	}
	user, ok := s.issuer.Authenticate(req.Email, req.Password)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"success": false, "message": "Invalid email or password"})
		return
	}
	token, err := s.issuer.Issue(user)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "dev backend issue token", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "message": "internal error"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data": map[string]any{
			"token": token,
			"user":  map[string]any{"id": user.Subject, "email": user.Email, "userType": user.UserType},
		},
	})
}

func (s *Server) handleJWKS(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"keys": s.issuer.JWKS()})
}

type userKey struct{}

func (s *Server) requireBearer(elevated bool, next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || raw == "" {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"message": "missing bearer token"})
			return
		}
		user, err := s.issuer.Validate(raw)
		if err != nil {
			s.logger.DebugContext(r.Context(), "dev backend rejected token", "error", err)
			writeJSON(w, http.StatusUnauthorized, map[string]any{"message": "invalid or expired token"})
			return
		}
		if elevated && !isStaff(user.UserType) {
			writeJSON(w, http.StatusForbidden, map[string]any{"message": "insufficient role"})
			return
		}
		next(w, r)
	})
}

func isStaff(userType string) bool {
	switch userType {
	case "Admin", "Management Team", "MT", "MT-member":
		return true
	default:
		return false
	}
}

func (s *Server) handleApplications(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	var out []application
	for _, a := range sampleApplications(s.issuer.clock()) {
		if status == "" || a.Status == status {
			out = append(out, a)
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": out})
}

func (s *Server) handleClients(w http.ResponseWriter, _ *http.Request) {
	clients := sampleClients()
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "total": len(clients), "data": clients})
}

func (s *Server) handleBlogs(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": sampleBlogs()})
}

func (s *Server) handleAnalytics(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": map[string]any{
		"sessionsThisMonth": 128,
		"activeCounsellors": 14,
		"newClients":        37,
	}})
}

func (s *Server) handleMessages(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": sampleMessages(s.issuer.clock())})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	raw, _ := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	user, err := s.issuer.Validate(raw)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"message": "invalid or expired token"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": map[string]any{
		"id": user.Subject, "email": user.Email, "userType": user.UserType,
	}})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type application struct {
	ID          int       `json:"id"`
	Name        string    `json:"name"`
	Role        string    `json:"role"`
	Status      string    `json:"status"`
	SubmittedAt time.Time `json:"submittedAt"`
}

func sampleApplications(now time.Time) []application {
	day := 24 * time.Hour
	return []application{
		{ID: 101, Name: "Dr. Nimal Perera", Role: "Psychiatrist", Status: "pending", SubmittedAt: now.Add(-2 * day).UTC()},
		{ID: 102, Name: "Kasuni Fernando", Role: "Counsellor", Status: "pending", SubmittedAt: now.Add(-1 * day).UTC()},
		{ID: 103, Name: "Ravi Silva", Role: "MT-member", Status: "approved", SubmittedAt: now.Add(-9 * day).UTC()},
		{ID: 104, Name: "Amaya Jayasuriya", Role: "Counsellor", Status: "rejected", SubmittedAt: now.Add(-12 * day).UTC()},
	}
}

func sampleClients() []map[string]any {
	return []map[string]any{
		{"id": 1, "nickname": "blue-heron", "isStudent": true},
		{"id": 2, "nickname": "quiet-river", "isStudent": false},
		{"id": 3, "nickname": "amber-leaf", "isStudent": true},
	}
}

func sampleBlogs() []map[string]any {
	return []map[string]any{
		{"id": 11, "title": "Coping with exam stress", "status": "pending"},
		{"id": 12, "title": "Sleep and mood", "status": "approved"},
		{"id": 13, "title": "Talking to a counsellor", "status": "pending"},
	}
}

func sampleMessages(now time.Time) []map[string]any {
	return []map[string]any{
		{"id": 501, "senderName": "Kasuni Fernando", "content": "Uploaded my licence scan.", "createdAt": now.Add(-30 * time.Minute).UTC()},
		{"id": 502, "senderName": "Support", "content": "Weekly report is ready.", "createdAt": now.Add(-3 * time.Hour).UTC()},
	}
}
