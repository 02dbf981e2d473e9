package dashboard

import (
	"encoding/json"
	"net/http"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"github.com/thekrainbow/kalahsolve/internal/bfs"
	"github.com/thekrainbow/kalahsolve/internal/config"
	"github.com/thekrainbow/kalahsolve/internal/governor"
	"github.com/thekrainbow/kalahsolve/internal/retrograde"
	"github.com/thekrainbow/kalahsolve/internal/rules"
	"github.com/thekrainbow/kalahsolve/internal/store"
)

// Server wires a Store, Variant and Governor into the read-only
// observability API from SPEC_FULL.md §5. It is not itself an
// http.Server — callers get a Router and mount it however cmd/kalahsolve
// runs its listener, the same split the teacher's main.go keeps between
// building r := chi.NewRouter() and calling server.ListenAndServe.
type Server struct {
	Store    store.Store
	Variant  rules.Variant
	Governor *governor.Governor
	Config   *config.Store
	Hub      *Hub

	mu        sync.Mutex
	phase     string
	lastDepth int16
	lastLevel int16
}

// NewServer returns a Server with its own Hub. Run the returned Hub's
// Run method in its own goroutine before serving.
func NewServer(s store.Store, variant rules.Variant, g *governor.Governor, cfgStore *config.Store) *Server {
	return &Server{
		Store:    s,
		Variant:  variant,
		Governor: g,
		Config:   cfgStore,
		Hub:      NewHub(),
		phase:    "idle",
	}
}

// OnBFSProgress is passed as bfs.Driver.OnProgress.
func (srv *Server) OnBFSProgress(p bfs.Progress) {
	srv.mu.Lock()
	srv.phase = "bfs"
	srv.lastDepth = p.Depth
	srv.mu.Unlock()
	srv.Hub.PublishBFSProgress(toBFSProgressDTO(p))
}

// OnRetrogradeProgress is passed as retrograde.Driver.OnProgress.
func (srv *Server) OnRetrogradeProgress(p retrograde.Progress) {
	srv.mu.Lock()
	srv.phase = "retrograde"
	srv.lastLevel = p.Level
	srv.mu.Unlock()
	srv.Hub.PublishRetrogradeProgress(toRetrogradeProgressDTO(p))
}

// Router builds the HTTP+WS surface: GET /status, GET
// /positions/{fingerprint}, GET /metrics, GET /ws/progress.
func (srv *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/status", srv.handleStatus)
	r.Get("/positions/{fingerprint}", srv.handlePosition)
	r.Get("/metrics", srv.handleMetrics)
	r.Get("/ws/progress", srv.handleWS)

	return r
}

func (srv *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	srv.mu.Lock()
	phase := srv.phase
	srv.mu.Unlock()
	writeJSON(w, http.StatusOK, StatusResponse{
		Variant:       variantDTO{P: srv.Variant.P, S: srv.Variant.S},
		GovernorLevel: srv.Governor.Level().String(),
		Phase:         phase,
	})
}

func (srv *Server) handlePosition(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "fingerprint")
	fp, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid fingerprint"})
		return
	}
	rec, found, err := srv.Store.Get(fp)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if !found {
		writeJSON(w, http.StatusOK, toPositionDTO(srv.Variant, fp, rules.State{}, false, 0, 0, false, 0, 0))
		return
	}
	state := rules.Unpack(srv.Variant, rec.PackedCells)
	writeJSON(w, http.StatusOK, toPositionDTO(srv.Variant, fp, state, true, rec.Depth, rec.SeedLevel, rec.Solved, rec.Score, rec.BestMove))
}

func (srv *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	srv.mu.Lock()
	lastDepth, lastLevel := srv.lastDepth, srv.lastLevel
	srv.mu.Unlock()
	base := func() int { return srv.Config.Get().ChunkSize }
	writeJSON(w, http.StatusOK, currentMetrics(srv.Governor, base, lastDepth, lastLevel))
}

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

func (srv *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	client := &Client{hub: srv.Hub, send: make(chan []byte, 16)}
	srv.Hub.Register(client)

	go func() {
		defer conn.Close()
		_ = writeWSWithHeartbeat(conn, client.send)
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			srv.Hub.Unregister(client)
			return
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
