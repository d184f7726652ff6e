package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"chatboard/internal/grouplog"
	"chatboard/internal/presence"
	"chatboard/internal/registry"
	"chatboard/pkg/interfaces"
	"chatboard/pkg/types"
)

// ARCHITECTURAL DISCOVERY: HTTP API layer serves as pure interface between external clients and internal components
// Clean separation - no business logic, only HTTP handling and JSON serialization.
// Handlers never touch the key-value substrate directly; every mutation goes
// through the stores' atomic operations.
type Server struct {
	tracker       interfaces.PresenceTracker
	logs          interfaces.GroupLogStore
	registrations interfaces.RegistrationStore
	store         interfaces.KeyValueStore
	limiter       *RateLimiter
	router        *http.ServeMux
}

// NewServer initializes all dependencies and sets up routing.
func NewServer(tracker interfaces.PresenceTracker, logs interfaces.GroupLogStore, registrations interfaces.RegistrationStore, store interfaces.KeyValueStore, appendRateLimit int) *Server {
	s := &Server{
		tracker:       tracker,
		logs:          logs,
		registrations: registrations,
		store:         store,
		limiter:       NewRateLimiter(appendRateLimit),
		router:        http.NewServeMux(),
	}

	s.setupRoutes()
	go s.limiter.cleanupLoop()
	return s
}

// ARCHITECTURAL DISCOVERY: Route setup follows the original URL layout with proper middleware
// CORS and JSON middleware applied to all routes for web client compatibility
func (s *Server) setupRoutes() {
	s.handle("/notify/login", s.handleLogin)
	s.handle("/notify/logout", s.handleLogout)
	s.handle("/chat/online-users", s.handleOnlineUsers)
	s.handle("/chat/groups/init", s.handleGroupsInit)
	s.handle("/chat/groups/append-message", s.handleAppendMessage)
	s.handle("/chat/groups/", s.handleGroupLog)
	s.handle("/api/registrations", s.handleRegistrations)
	s.handle("/api/registrations/", s.handleRegistrationByName)
	s.handle("/api/groups", s.handleGroupRoster)
	s.handle("/health", s.healthCheck)
}

func (s *Server) handle(pattern string, handler http.HandlerFunc) {
	s.router.Handle(pattern, s.corsMiddleware(s.jsonMiddleware(s.requestIDMiddleware(handler))))
}

// ServeHTTP implements http.Handler for integration with the standard HTTP server.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Request/Response types for JSON serialization

type usernameRequest struct {
	Username string `json:"username"`
}

type notifyResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type groupsInitRequest struct {
	Groups []string `json:"groups"`
}

type groupsInitResponse struct {
	Success bool                           `json:"success"`
	Results map[string]types.EnsureOutcome `json:"results"`
}

type appendMessageRequest struct {
	GroupName string `json:"groupName"`
	Username  string `json:"username"`
	Message   string `json:"message"`
}

type appendMessageResponse struct {
	Success    bool           `json:"success"`
	Message    string         `json:"message"`
	NewMessage *types.Message `json:"newMessage"`
}

type saveRosterResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Count   int    `json:"count"`
}

type HealthResponse struct {
	Status    string         `json:"status"`
	Timestamp time.Time      `json:"timestamp"`
	Database  string         `json:"database"`
	Stats     map[string]int `json:"stats"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// POST /notify/login - mark a user online
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	s.handleNotify(w, r, s.tracker.MarkOnline)
}

// POST /notify/logout - mark a user offline
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.handleNotify(w, r, s.tracker.MarkOffline)
}

// FUNCTIONAL DISCOVERY: Login and logout differ only in the tracker operation -
// shared decode/validate/respond path keeps the two endpoints identical on the wire
func (s *Server) handleNotify(w http.ResponseWriter, r *http.Request, mark func(context.Context, string) (string, error)) {
	if !s.requireMethod(w, r, http.MethodPost) {
		return
	}

	var req usernameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if req.Username == "" {
		s.sendError(w, "Username is required", http.StatusBadRequest)
		return
	}

	confirmation, err := mark(r.Context(), req.Username)
	if err != nil {
		s.sendStoreError(w, err)
		return
	}

	s.sendJSON(w, http.StatusOK, notifyResponse{Success: true, Message: confirmation})
}

// GET /chat/online-users - snapshot of the online set
func (s *Server) handleOnlineUsers(w http.ResponseWriter, r *http.Request) {
	if !s.requireMethod(w, r, http.MethodGet) {
		return
	}

	users, err := s.tracker.ListOnline(r.Context())
	if err != nil {
		s.sendStoreError(w, err)
		return
	}

	s.sendJSON(w, http.StatusOK, users)
}

// POST /chat/groups/init - ensure a batch of group logs exists
func (s *Server) handleGroupsInit(w http.ResponseWriter, r *http.Request) {
	if !s.requireMethod(w, r, http.MethodPost) {
		return
	}

	var req groupsInitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, "Group list must be an array", http.StatusBadRequest)
		return
	}
	if req.Groups == nil {
		s.sendError(w, "Group list must be an array", http.StatusBadRequest)
		return
	}

	results, err := s.logs.EnsureGroups(r.Context(), req.Groups)
	if err != nil && errors.Is(err, grouplog.ErrStorageFailure) {
		s.sendError(w, "Failed to initialize group logs", http.StatusInternalServerError)
		return
	}
	// FUNCTIONAL DISCOVERY: Validation failures stay per-name in the results
	// map - partial success is the contract for batch init

	s.sendJSON(w, http.StatusOK, groupsInitResponse{Success: true, Results: results})
}

// POST /chat/groups/append-message - append one message to a group log
func (s *Server) handleAppendMessage(w http.ResponseWriter, r *http.Request) {
	if !s.requireMethod(w, r, http.MethodPost) {
		return
	}

	var req appendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if req.GroupName == "" || req.Username == "" || req.Message == "" {
		s.sendError(w, "groupName, username and message are required", http.StatusBadRequest)
		return
	}

	if !s.limiter.Allow(req.Username) {
		s.sendError(w, "Message rate limit exceeded", http.StatusTooManyRequests)
		return
	}

	msg, err := s.logs.AppendMessage(r.Context(), req.GroupName, req.Username, req.Message)
	if err != nil {
		s.sendStoreError(w, err)
		return
	}

	s.sendJSON(w, http.StatusOK, appendMessageResponse{
		Success:    true,
		Message:    "message appended",
		NewMessage: msg,
	})
}

// GET /chat/groups/{groupName}/log - full transcript for one group
func (s *Server) handleGroupLog(w http.ResponseWriter, r *http.Request) {
	// Extract group name from URL path
	path := strings.TrimPrefix(r.URL.Path, "/chat/groups/")
	parts := strings.Split(path, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] != "log" {
		s.sendError(w, "Not found", http.StatusNotFound)
		return
	}
	groupName := parts[0]

	if !s.requireMethod(w, r, http.MethodGet) {
		return
	}

	messages, err := s.logs.ReadLog(r.Context(), groupName)
	if err != nil {
		s.sendStoreError(w, err)
		return
	}

	s.sendJSON(w, http.StatusOK, messages)
}

// GET/POST /api/registrations - list or upsert registration requests
func (s *Server) handleRegistrations(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		regs, err := s.registrations.ListRegistrations(r.Context())
		if err != nil {
			s.sendStoreError(w, err)
			return
		}
		s.sendJSON(w, http.StatusOK, regs)

	case http.MethodPost:
		var reg types.Registration
		if err := json.NewDecoder(r.Body).Decode(&reg); err != nil {
			s.sendError(w, "Invalid JSON", http.StatusBadRequest)
			return
		}
		if reg.Username == "" {
			s.sendError(w, "Username is required", http.StatusBadRequest)
			return
		}
		if err := s.registrations.SaveRegistration(r.Context(), reg); err != nil {
			s.sendStoreError(w, err)
			return
		}
		s.sendJSON(w, http.StatusCreated, notifyResponse{Success: true, Message: "registration saved"})

	case http.MethodOptions:
		w.WriteHeader(http.StatusOK)

	default:
		s.sendError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// DELETE /api/registrations/{username} - remove a registration request
func (s *Server) handleRegistrationByName(w http.ResponseWriter, r *http.Request) {
	username := strings.TrimPrefix(r.URL.Path, "/api/registrations/")
	if username == "" || strings.Contains(username, "/") {
		s.sendError(w, "Username required", http.StatusBadRequest)
		return
	}

	if !s.requireMethod(w, r, http.MethodDelete) {
		return
	}

	if err := s.registrations.DeleteRegistration(r.Context(), username); err != nil {
		s.sendStoreError(w, err)
		return
	}

	s.sendJSON(w, http.StatusOK, notifyResponse{Success: true, Message: "registration deleted"})
}

// GET/POST /api/groups - read or replace the group roster
func (s *Server) handleGroupRoster(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		groups, err := s.registrations.ListGroups(r.Context())
		if err != nil {
			s.sendStoreError(w, err)
			return
		}
		s.sendJSON(w, http.StatusOK, groups)

	case http.MethodPost:
		var groups []string
		if err := json.NewDecoder(r.Body).Decode(&groups); err != nil {
			s.sendError(w, "Group roster must be an array", http.StatusBadRequest)
			return
		}
		if err := s.registrations.SaveGroups(r.Context(), groups); err != nil {
			s.sendStoreError(w, err)
			return
		}
		s.sendJSON(w, http.StatusCreated, saveRosterResponse{
			Success: true,
			Message: "group roster saved",
			Count:   len(groups),
		})

	case http.MethodOptions:
		w.WriteHeader(http.StatusOK)

	default:
		s.sendError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// GET /health - system health check with component validation
func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "healthy"
	dbStatus := "healthy"

	if err := s.store.HealthCheck(ctx); err != nil {
		status = "unhealthy"
		dbStatus = fmt.Sprintf("error: %v", err)
	}

	stats := map[string]int{}
	if users, err := s.tracker.ListOnline(ctx); err == nil {
		stats["online_users"] = len(users)
	}

	response := HealthResponse{
		Status:    status,
		Timestamp: time.Now(),
		Database:  dbStatus,
		Stats:     stats,
	}

	// FUNCTIONAL DISCOVERY: Return 503 if any component is unhealthy
	if status == "unhealthy" {
		s.sendJSON(w, http.StatusServiceUnavailable, response)
		return
	}
	s.sendJSON(w, http.StatusOK, response)
}

// requireMethod enforces a single allowed method, answering CORS preflight.
func (s *Server) requireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method == method {
		return true
	}
	if r.Method == http.MethodOptions {
		// CORS preflight handled by middleware
		w.WriteHeader(http.StatusOK)
		return false
	}
	s.sendError(w, "Method not allowed", http.StatusMethodNotAllowed)
	return false
}

// sendStoreError translates store errors into the HTTP error taxonomy:
// validation failures are the caller's fault, everything else is a transient
// storage error. Absent groups never surface as 404.
func (s *Server) sendStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, presence.ErrInvalidUsername),
		errors.Is(err, registry.ErrInvalidUsername),
		errors.Is(err, registry.ErrInvalidGroupName),
		errors.Is(err, grouplog.ErrInvalidGroupName),
		errors.Is(err, types.ErrInvalidUsername),
		errors.Is(err, types.ErrInvalidGroupName),
		errors.Is(err, types.ErrEmptyMessageBody),
		errors.Is(err, types.ErrMessageTooLarge):
		s.sendError(w, err.Error(), http.StatusBadRequest)
	default:
		log.Printf("Storage error: %v", err)
		s.sendError(w, "Storage failure, please retry", http.StatusInternalServerError)
	}
}

// sendJSON writes a JSON response body with the given status.
func (s *Server) sendJSON(w http.ResponseWriter, code int, body interface{}) {
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

// sendError writes the consistent error response format.
func (s *Server) sendError(w http.ResponseWriter, message string, code int) {
	s.sendJSON(w, code, ErrorResponse{
		Error:   http.StatusText(code),
		Code:    code,
		Message: message,
	})
}

// ARCHITECTURAL DISCOVERY: CORS middleware enables web client access
// Allows all origins in development - would be restricted in production
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Max-Age", "86400")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// jsonMiddleware ensures proper content-type headers on all API responses.
func (s *Server) jsonMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		next.ServeHTTP(w, r)
	})
}

// requestIDMiddleware tags each request with an id for log correlation.
func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		w.Header().Set("X-Request-ID", requestID)

		log.Printf("request: id=%s method=%s path=%s", requestID, r.Method, r.URL.Path)
		next.ServeHTTP(w, r)
	})
}
