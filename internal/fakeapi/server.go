// Package fakeapi is an in-memory settings backend speaking the same HTTP
// and websocket protocol as the real settings API. It backs `dials -demo`
// and the end-to-end tests.
package fakeapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/five82/dials/internal/setting"
	"github.com/five82/dials/internal/settingsapi"
)

// Section seeds one section. The seeded values double as its defaults.
type Section struct {
	Path     setting.SectionPath
	Settings []setting.Setting
}

// Option configures a Server.
type Option func(*Server)

// WithLatency delays every HTTP response by d.
func WithLatency(d time.Duration) Option {
	return func(s *Server) { s.latency = d }
}

// WithRegions seeds the regions table.
func WithRegions(names ...string) Option {
	return func(s *Server) {
		for _, n := range names {
			s.regions = append(s.regions, settingsapi.Region{ID: uuid.NewString(), Name: n})
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// Server holds the backend state.
type Server struct {
	logger  *slog.Logger
	latency time.Duration
	router  *mux.Router

	mu          sync.RWMutex
	order       []setting.SectionPath
	values      map[setting.SectionPath][]setting.Setting
	defaults    map[setting.SectionPath][]setting.Setting
	regions     []settingsapi.Region
	failing     map[setting.SectionPath]bool
	dropped     map[setting.SectionPath]map[setting.Key]bool
	failWrites  map[setting.Key]bool
	writeCount  int
	fetchCount  map[setting.SectionPath]int

	upgrader  websocket.Upgrader
	clientsMu sync.RWMutex
	clients   map[*websocket.Conn]bool
	broadcast chan []byte
	pubMu     sync.RWMutex
	closed    bool
}

// New builds a server seeded with sections.
func New(seed []Section, opts ...Option) *Server {
	s := &Server{
		logger:     slog.Default().With("component", "fakeapi"),
		values:     make(map[setting.SectionPath][]setting.Setting, len(seed)),
		defaults:   make(map[setting.SectionPath][]setting.Setting, len(seed)),
		failing:    make(map[setting.SectionPath]bool),
		dropped:    make(map[setting.SectionPath]map[setting.Key]bool),
		failWrites: make(map[setting.Key]bool),
		fetchCount: make(map[setting.SectionPath]int),
		clients:    make(map[*websocket.Conn]bool),
		broadcast:  make(chan []byte, 256),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
	for _, sec := range seed {
		s.order = append(s.order, sec.Path)
		s.values[sec.Path] = setting.CloneList(sec.Settings)
		s.defaults[sec.Path] = setting.CloneList(sec.Settings)
	}
	for _, opt := range opts {
		opt(s)
	}
	s.router = s.routes()
	go s.handleBroadcasts()
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// Start listens on addr and serves until ctx is cancelled. It returns the
// bound address, which matters when addr asks for port 0.
func (s *Server) Start(ctx context.Context, addr string) (string, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return "", err
	}
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("demo backend stopped", "error", err)
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		s.Close()
	}()
	s.logger.Info("demo backend listening", "address", ln.Addr().String())
	return ln.Addr().String(), nil
}

// Close disconnects websocket clients and stops broadcasting.
func (s *Server) Close() {
	s.pubMu.Lock()
	defer s.pubMu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.broadcast)
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.delay)
	r.HandleFunc("/api/settings", s.handleListSections).Methods(http.MethodGet)
	r.HandleFunc("/api/settings/batch", s.handleBatch).Methods(http.MethodPost)
	r.HandleFunc("/api/settings/{section}/defaults", s.handleDefaults).Methods(http.MethodGet)
	r.HandleFunc("/api/settings/{section}", s.handleSection).Methods(http.MethodGet)
	r.HandleFunc("/api/settings/{section}/{key}", s.handleUpdate).Methods(http.MethodPut)
	r.HandleFunc("/api/regions", s.handleListRegions).Methods(http.MethodGet)
	r.HandleFunc("/api/regions", s.handleCreateRegion).Methods(http.MethodPost)
	r.HandleFunc("/api/regions", s.handleDeleteRegions).Methods(http.MethodDelete)
	r.HandleFunc("/api/regions/{id}", s.handleRenameRegion).Methods(http.MethodPut)
	r.HandleFunc("/api/events", s.handleEvents).Methods(http.MethodGet)
	return r
}

func (s *Server) delay(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.latency > 0 && r.URL.Path != "/api/events" {
			select {
			case <-time.After(s.latency):
			case <-r.Context().Done():
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleListSections(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	sections := slices.Clone(s.order)
	s.mu.RUnlock()
	writeJSON(w, http.StatusOK, settingsapi.SectionListResponse{Sections: sections})
}

func (s *Server) handleSection(w http.ResponseWriter, r *http.Request) {
	section := setting.SectionPath(mux.Vars(r)["section"])

	s.mu.Lock()
	s.fetchCount[section]++
	list, ok := s.values[section]
	failing := s.failing[section]
	dropped := s.dropped[section]
	var out []setting.Setting
	for _, st := range list {
		if !dropped[st.Name] {
			out = append(out, setting.Setting{Name: st.Name, Value: st.Value.Clone()})
		}
	}
	s.mu.Unlock()

	switch {
	case failing:
		http.Error(w, "injected failure", http.StatusInternalServerError)
	case !ok:
		http.Error(w, "unknown section", http.StatusNotFound)
	default:
		if out == nil {
			out = []setting.Setting{}
		}
		writeJSON(w, http.StatusOK, settingsapi.SectionResponse{Section: section, Settings: out})
	}
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	section := setting.SectionPath(vars["section"])
	key := setting.Key(vars["key"])

	var body settingsapi.ValueRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if err := s.apply(section, key, body.Value); err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	s.publish(section)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	var body settingsapi.BatchRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	results := make([]setting.UpdateResult, 0, len(body.Updates))
	touched := make(map[setting.SectionPath]bool)
	for _, u := range body.Updates {
		res := setting.UpdateResult{Section: u.Section, Key: u.Key, Success: true}
		if err := s.apply(u.Section, u.Key, u.Value); err != nil {
			res.Success = false
			res.Message = err.Error()
		} else {
			touched[u.Section] = true
		}
		results = append(results, res)
	}
	for section := range touched {
		s.publish(section)
	}
	writeJSON(w, http.StatusOK, settingsapi.BatchResponse{Results: results})
}

func (s *Server) handleDefaults(w http.ResponseWriter, r *http.Request) {
	section := setting.SectionPath(mux.Vars(r)["section"])
	keys := r.URL.Query()["key"]

	s.mu.RLock()
	list, ok := s.defaults[section]
	out := make(map[setting.Key]setting.Value)
	for _, st := range list {
		if len(keys) == 0 || slices.Contains(keys, string(st.Name)) {
			out[st.Name] = st.Value.Clone()
		}
	}
	s.mu.RUnlock()

	if !ok {
		http.Error(w, "unknown section", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, settingsapi.DefaultsResponse{Defaults: out})
}

func (s *Server) handleListRegions(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	regions := slices.Clone(s.regions)
	s.mu.RUnlock()
	if regions == nil {
		regions = []settingsapi.Region{}
	}
	writeEnvelope(w, true, regions, "")
}

func (s *Server) handleCreateRegion(w http.ResponseWriter, r *http.Request) {
	var body settingsapi.RegionNameRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Name == "" {
		writeEnvelope(w, false, nil, "name required")
		return
	}
	region := settingsapi.Region{ID: uuid.NewString(), Name: body.Name}
	s.mu.Lock()
	s.regions = append(s.regions, region)
	s.mu.Unlock()
	writeEnvelope(w, true, region, "")
}

func (s *Server) handleRenameRegion(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var body settingsapi.RegionNameRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Name == "" {
		writeEnvelope(w, false, nil, "name required")
		return
	}
	s.mu.Lock()
	idx := slices.IndexFunc(s.regions, func(r settingsapi.Region) bool { return r.ID == id })
	if idx >= 0 {
		s.regions[idx].Name = body.Name
	}
	s.mu.Unlock()
	if idx < 0 {
		writeEnvelope(w, false, nil, "region not found")
		return
	}
	writeEnvelope(w, true, settingsapi.Region{ID: id, Name: body.Name}, "")
}

func (s *Server) handleDeleteRegions(w http.ResponseWriter, r *http.Request) {
	var body settingsapi.RegionDeleteRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeEnvelope(w, false, nil, "invalid body")
		return
	}
	s.mu.Lock()
	s.regions = slices.DeleteFunc(s.regions, func(r settingsapi.Region) bool {
		return slices.Contains(body.IDs, r.ID)
	})
	s.mu.Unlock()
	writeEnvelope(w, true, nil, "")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeEnvelope(w http.ResponseWriter, ok bool, data any, message string) {
	env := settingsapi.Envelope{Success: ok, Message: message}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			http.Error(w, "encode failed", http.StatusInternalServerError)
			return
		}
		env.Data = raw
	}
	writeJSON(w, http.StatusOK, env)
}
