package main

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// feedWriteWait bounds each websocket write; a client that can't keep up is
// dropped rather than allowed to back anything up.
const feedWriteWait = 2 * time.Second

// Snapshot is the read-only view served to the visualization client. It is
// built from store snapshots and never aliases store internals.
type Snapshot struct {
	Mode         int          `json:"mode"`
	ModeLabel    string       `json:"mode_label"`
	Orientation  [][3]float64 `json:"orientation"`
	Acceleration [][3]float64 `json:"acceleration"`
}

// Feed serves store snapshots to the external waveform viewer: a one-shot
// JSON endpoint and a websocket that pushes on a fixed interval. It only
// reads from the store, so it never blocks ingestion beyond the store's
// per-buffer critical sections.
type Feed struct {
	store    *Store
	interval time.Duration
	upgrader websocket.Upgrader
	srv      *http.Server

	// clients tracks live websocket connections so Shutdown can close them;
	// http.Server.Shutdown does not touch hijacked connections.
	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

func NewFeed(store *Store, cfg FeedConfig) *Feed {
	return &Feed{
		store:    store,
		interval: time.Duration(cfg.IntervalMS) * time.Millisecond,
		upgrader: websocket.Upgrader{
			// The viewer is a local tool; no origin policy.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		clients: make(map[*websocket.Conn]struct{}),
	}
}

func (f *Feed) addClient(conn *websocket.Conn) {
	f.mu.Lock()
	f.clients[conn] = struct{}{}
	f.mu.Unlock()
}

func (f *Feed) removeClient(conn *websocket.Conn) {
	f.mu.Lock()
	delete(f.clients, conn)
	f.mu.Unlock()
}

func (f *Feed) snapshot() Snapshot {
	orient := f.store.OrientationHistory()
	accel := f.store.AccelerationHistory()
	mode := f.store.Mode()

	snap := Snapshot{
		Mode:         mode,
		ModeLabel:    ModeLabel(mode),
		Orientation:  make([][3]float64, len(orient)),
		Acceleration: make([][3]float64, len(accel)),
	}
	for i, s := range orient {
		snap.Orientation[i] = [3]float64{s.Roll, s.Pitch, s.Yaw}
	}
	for i, s := range accel {
		snap.Acceleration[i] = [3]float64{s.AX, s.AY, s.AZ}
	}
	return snap
}

func (f *Feed) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(f.snapshot()); err != nil {
		logger.Warn("feed: snapshot encode failed", "err", err)
	}
}

func (f *Feed) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := f.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("feed: websocket upgrade failed", "err", err)
		return
	}
	logger.Info("feed: viewer connected", "remote", conn.RemoteAddr())
	f.addClient(conn)
	go f.pump(conn)
}

// pump pushes snapshots to one viewer until the connection dies. Each client
// has its own pump, so one slow viewer never delays another.
func (f *Feed) pump(conn *websocket.Conn) {
	defer func() {
		f.removeClient(conn)
		_ = conn.Close()
	}()
	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	for range ticker.C {
		_ = conn.SetWriteDeadline(time.Now().Add(feedWriteWait))
		if err := conn.WriteJSON(f.snapshot()); err != nil {
			logger.Info("feed: viewer disconnected", "remote", conn.RemoteAddr(), "err", err)
			return
		}
	}
}

// ListenAndServe runs the feed HTTP server until Shutdown.
func (f *Feed) ListenAndServe(addr string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/snapshot", f.handleSnapshot)
	mux.HandleFunc("/ws", f.handleWS)
	f.srv = &http.Server{Addr: addr, Handler: mux}
	logger.Info("feed: serving", "addr", addr)
	if err := f.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops the HTTP server and closes every live websocket, which
// unblocks the per-client pumps.
func (f *Feed) Shutdown(ctx context.Context) error {
	var err error
	if f.srv != nil {
		err = f.srv.Shutdown(ctx)
	}
	f.mu.Lock()
	for conn := range f.clients {
		_ = conn.Close()
	}
	f.mu.Unlock()
	return err
}
