// Package mock provides an in-memory users API that mirrors the public reqres
// service: a paginated users collection, single-user lookup, create, update,
// delete, login and an authenticated /api/me endpoint.
package mock

import (
	"bytes"
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

const (
	// DefaultPerPage is the page size used when per_page is not given.
	DefaultPerPage = 6
	// DefaultPassword is accepted by /api/login and basic auth on /api/me.
	DefaultPassword = "cityslicka"
	// SessionCookie is the cookie set by /api/login.
	SessionCookie = "session"
)

// Server is the fake users API.
type Server struct {
	router   *Router
	port     int
	delay    time.Duration
	password string
	logger   zerolog.Logger
	users    []User

	mu       sync.Mutex
	sessions map[string]int
}

// User is a stored account.
type User struct {
	ID        int    `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Avatar    string `json:"avatar"`
}

type support struct {
	URL  string `json:"url"`
	Text string `json:"text"`
}

var defaultSupport = support{
	URL:  "https://reqres.in/#support-heading",
	Text: "To keep ReqRes free, contributions towards server costs are appreciated!",
}

// Option is a functional option for Server
type Option func(*Server)

// WithPort sets the server port
func WithPort(port int) Option {
	return func(s *Server) {
		s.port = port
	}
}

// WithDelay adds a delay to all responses
func WithDelay(delay time.Duration) Option {
	return func(s *Server) {
		s.delay = delay
	}
}

// WithPassword changes the password accepted by login and basic auth.
func WithPassword(password string) Option {
	return func(s *Server) {
		s.password = password
	}
}

// WithUsers replaces the seeded users.
func WithUsers(users []User) Option {
	return func(s *Server) {
		s.users = users
	}
}

// WithLogger logs one line per handled request.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a server seeded with the twelve reqres users.
func NewServer(opts ...Option) *Server {
	s := &Server{
		router:   NewRouter(),
		port:     3000,
		password: DefaultPassword,
		logger:   zerolog.Nop(),
		users:    SeedUsers(),
		sessions: make(map[string]int),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.router.Handle(http.MethodGet, "/api/users", "list-users", s.listUsers)
	s.router.Handle(http.MethodPost, "/api/users", "create-user", s.createUser)
	s.router.Handle(http.MethodGet, "/api/users/{id}", "get-user", s.getUser)
	s.router.Handle(http.MethodPut, "/api/users/{id}", "update-user", s.updateUser)
	s.router.Handle(http.MethodPatch, "/api/users/{id}", "patch-user", s.updateUser)
	s.router.Handle(http.MethodDelete, "/api/users/{id}", "delete-user", s.deleteUser)
	s.router.Handle(http.MethodPost, "/api/login", "login", s.login)
	s.router.Handle(http.MethodGet, "/api/me", "me", s.me)

	return s
}

// SeedUsers returns the reqres sample accounts.
func SeedUsers() []User {
	names := [][2]string{
		{"George", "Bluth"}, {"Janet", "Weaver"}, {"Emma", "Wong"},
		{"Eve", "Holt"}, {"Charles", "Morris"}, {"Tracey", "Ramos"},
		{"Michael", "Lawson"}, {"Lindsay", "Ferguson"}, {"Tobias", "Funke"},
		{"Byron", "Fields"}, {"George", "Edwards"}, {"Rachel", "Howell"},
	}
	users := make([]User, len(names))
	for i, n := range names {
		id := i + 1
		users[i] = User{
			ID:        id,
			Email:     fmt.Sprintf("%s.%s@reqres.in", strings.ToLower(n[0]), strings.ToLower(n[1])),
			FirstName: n[0],
			LastName:  n[1],
			Avatar:    fmt.Sprintf("https://reqres.in/img/faces/%d-image.jpg", id),
		}
	}
	return users
}

// Handler returns the server as an http.Handler, e.g. for httptest.
func (s *Server) Handler() http.Handler {
	return http.HandlerFunc(s.handleRequest)
}

// Routes returns all registered routes
func (s *Server) Routes() []*Route {
	return s.router.Routes()
}

// Start serves on the configured port until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	s.logger.Info().Int("port", s.port).Int("routes", len(s.router.routes)).Msg("mock users API listening")

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleRequest(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	if s.delay > 0 {
		time.Sleep(s.delay)
	}

	route, params, allowed := s.router.Match(r.Method, r.URL.Path)
	status := http.StatusOK
	rec := &statusRecorder{ResponseWriter: w, status: &status}

	switch {
	case route != nil:
		for k, v := range params {
			r.SetPathValue(k, v)
		}
		route.Handler(rec, r)
	case len(allowed) > 0:
		writeJSON(rec, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
	default:
		writeJSON(rec, http.StatusNotFound, map[string]any{})
	}

	s.logger.Debug().
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Int("status", status).
		Dur("duration", time.Since(start)).
		Msg("mock request")
}

type statusRecorder struct {
	http.ResponseWriter
	status *int
}

func (r *statusRecorder) WriteHeader(code int) {
	*r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) findUser(id string) (User, bool) {
	n, err := strconv.Atoi(id)
	if err != nil {
		return User{}, false
	}
	for _, u := range s.users {
		if u.ID == n {
			return u, true
		}
	}
	return User{}, false
}

func positiveQueryInt(r *http.Request, key string, def int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil || v < 1 {
		return def
	}
	return v
}

func (s *Server) listUsers(w http.ResponseWriter, r *http.Request) {
	page := positiveQueryInt(r, "page", 1)
	perPage := positiveQueryInt(r, "per_page", DefaultPerPage)

	total := len(s.users)
	totalPages := int(math.Ceil(float64(total) / float64(perPage)))

	data := make([]User, 0, perPage)
	if from := (page - 1) * perPage; from < total {
		to := min(from+perPage, total)
		data = append(data, s.users[from:to]...)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"page":        page,
		"per_page":    perPage,
		"total":       total,
		"total_pages": totalPages,
		"data":        data,
		"support":     defaultSupport,
	})
}

func (s *Server) getUser(w http.ResponseWriter, r *http.Request) {
	user, ok := s.findUser(r.PathValue("id"))
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": user, "support": defaultSupport})
}

// maxBodySize caps request bodies accepted by the write endpoints.
const maxBodySize = 1 << 20

var errNotObject = errors.New("body is not a JSON object")

// readObject returns the request body, or "{}" when it is empty.
func readObject(r *http.Request) ([]byte, error) {
	if r.Body == nil {
		return []byte("{}"), nil
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		return nil, err
	}
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return []byte("{}"), nil
	}
	if !gjson.ValidBytes(body) || !gjson.ParseBytes(body).IsObject() {
		return nil, errNotObject
	}
	return body, nil
}

// echo writes the request object back with the given fields set.
func echo(w http.ResponseWriter, r *http.Request, status int, fields ...string) {
	body, err := readObject(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}
	for i := 0; i+1 < len(fields); i += 2 {
		if body, err = sjson.SetBytes(body, fields[i], fields[i+1]); err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(append(body, '\n'))
}

func (s *Server) createUser(w http.ResponseWriter, r *http.Request) {
	echo(w, r, http.StatusCreated,
		"id", uuid.NewString(),
		"createdAt", time.Now().UTC().Format(time.RFC3339Nano))
}

func (s *Server) updateUser(w http.ResponseWriter, r *http.Request) {
	echo(w, r, http.StatusOK, "updatedAt", time.Now().UTC().Format(time.RFC3339Nano))
}

func (s *Server) deleteUser(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var creds struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}
	if creds.Password == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Missing password"})
		return
	}

	user, ok := s.userByEmail(creds.Email)
	if !ok || !s.passwordMatches(creds.Password) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "user not found"})
		return
	}

	token := uuid.NewString()
	s.mu.Lock()
	s.sessions[token] = user.ID
	s.mu.Unlock()

	http.SetCookie(w, &http.Cookie{Name: SessionCookie, Value: token, Path: "/api", HttpOnly: true})
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	user, ok := s.authenticate(r)
	if !ok {
		w.Header().Set("WWW-Authenticate", `Basic realm="reqverify"`)
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": user, "support": defaultSupport})
}

func (s *Server) authenticate(r *http.Request) (User, bool) {
	if email, password, ok := r.BasicAuth(); ok {
		user, found := s.userByEmail(email)
		return user, found && s.passwordMatches(password)
	}

	cookie, err := r.Cookie(SessionCookie)
	if err != nil {
		return User{}, false
	}
	s.mu.Lock()
	id, ok := s.sessions[cookie.Value]
	s.mu.Unlock()
	if !ok {
		return User{}, false
	}
	return s.findUser(strconv.Itoa(id))
}

func (s *Server) userByEmail(email string) (User, bool) {
	for _, u := range s.users {
		if u.Email == email {
			return u, true
		}
	}
	return User{}, false
}

func (s *Server) passwordMatches(password string) bool {
	return subtle.ConstantTimeCompare([]byte(password), []byte(s.password)) == 1
}
