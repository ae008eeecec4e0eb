package inspector

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vango-dev/canopy/internal/errors"
	"github.com/vango-dev/canopy/pkg/host"
	"github.com/vango-dev/canopy/pkg/paint"
	"github.com/vango-dev/canopy/pkg/protocol"
	"github.com/vango-dev/canopy/pkg/render"
	"github.com/vango-dev/canopy/pkg/snapshot"
	"github.com/vango-dev/canopy/pkg/telemetry"
	"github.com/vango-dev/canopy/pkg/ui"
)

// Defaults.
const (
	DefaultQueueSize    = 64
	DefaultWriteTimeout = 5 * time.Second
	DefaultHostTimeout  = 2 * time.Second
)

// Host is the part of *host.Host the inspector reads.
type Host interface {
	Do(ctx context.Context, fn func(pt *paint.Tree)) error
	Seq() uint64
	Viewport() ui.Size
}

// Option configures a Server.
type Option func(*Server)

// WithStore enables the snapshot routes.
func WithStore(s snapshot.Store) Option {
	return func(srv *Server) {
		srv.store = s
	}
}

// WithMetrics records client counts and dropped batches.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(srv *Server) {
		srv.metrics = m
	}
}

// WithGatherer sets what /metrics serves. Default: prometheus.DefaultGatherer.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(srv *Server) {
		if g != nil {
			srv.gatherer = g
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(srv *Server) {
		if l != nil {
			srv.logger = l
		}
	}
}

// WithQueueSize sets how many frames may wait for a slow client.
func WithQueueSize(n int) Option {
	return func(srv *Server) {
		if n > 0 {
			srv.queue = n
		}
	}
}

// WithWriteTimeout sets the websocket write deadline.
func WithWriteTimeout(d time.Duration) Option {
	return func(srv *Server) {
		srv.writeTimeout = d
	}
}

// Server streams a host to inspector clients. It implements
// host.BatchObserver.
type Server struct {
	host         Host
	store        snapshot.Store
	metrics      *telemetry.Metrics
	gatherer     prometheus.Gatherer
	logger       *slog.Logger
	queue        int
	writeTimeout time.Duration
	hostTimeout  time.Duration
	upgrader     websocket.Upgrader

	mu      sync.RWMutex
	clients map[*client]struct{}
}

// New creates a Server for h.
func New(h Host, opts ...Option) *Server {
	s := &Server{
		host:         h,
		gatherer:     prometheus.DefaultGatherer,
		logger:       slog.Default(),
		queue:        DefaultQueueSize,
		writeTimeout: DefaultWriteTimeout,
		hostTimeout:  DefaultHostTimeout,
		clients:      make(map[*client]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				return true // Local debugging tool
			},
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "inspector")
	return s
}

// Handler returns the inspector routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.NoCache)

	r.Get("/ws", s.handleWebSocket)
	r.Get("/tree", s.handleTree)
	r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	r.Route("/snapshots", func(r chi.Router) {
		r.Get("/", s.handleListSnapshots)
		r.Post("/", s.handleSaveSnapshot)
		r.Get("/{id}", s.handleLoadSnapshot)
	})
	return r
}

// ListenAndServe serves the inspector on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.logger.Info("inspector listening", "addr", addr)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}

// ObserveBatch implements host.BatchObserver. It runs on the paint loop and
// never blocks: a client whose queue is full misses the batch.
func (s *Server) ObserveBatch(b host.Batch) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.clients) == 0 {
		return
	}

	payload := protocol.EncodeBatch(protocol.NewBatch(b.Seq, b.Kind, b.Patches))
	for c := range s.clients {
		var flags protocol.FrameFlags
		if c.dropped {
			flags |= protocol.FlagDropped
		}
		frame := &protocol.Frame{Type: protocol.FrameBatch, Flags: flags, Payload: payload}
		if c.offer(frame.Encode()) {
			c.dropped = false
			continue
		}
		if !c.dropped {
			s.logger.Warn("inspector client too slow, dropping batches",
				"remote", c.remote,
				"seq", b.Seq)
		}
		c.dropped = true
		if s.metrics != nil {
			s.metrics.BatchDropped()
		}
	}
}

// ClientCount returns the number of connected clients.
func (s *Server) ClientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// Close disconnects every client.
func (s *Server) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.clients {
		c.close()
		delete(s.clients, c)
	}
}

// do runs fn on the host's paint loop with the server's timeout.
func (s *Server) do(ctx context.Context, fn func(pt *paint.Tree)) error {
	ctx, cancel := context.WithTimeout(ctx, s.hostTimeout)
	defer cancel()
	if err := s.host.Do(ctx, fn); err != nil {
		return errors.New("E602").Wrap(err)
	}
	return nil
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("websocket upgrade failed", "error", err)
		return
	}
	c := newClient(conn, s.queue)
	c.remote = r.RemoteAddr

	// Registering on the paint loop means the client sees every batch
	// painted after its initial replay.
	err = s.do(r.Context(), func(pt *paint.Tree) {
		seq := s.host.Seq()
		vp := s.host.Viewport()
		hello := &protocol.Hello{
			Version: protocol.CurrentVersion,
			Width:   vp.Width,
			Height:  vp.Height,
			NextSeq: seq + 1,
			Nodes:   uint32(pt.Len()),
		}
		c.offer(protocol.NewFrame(protocol.FrameHello, protocol.EncodeHello(hello)).Encode())
		initial := protocol.NewBatch(seq, "initial", Replay(pt))
		c.offer(protocol.BatchFrameOf(initial, protocol.FlagInitial).Encode())

		s.mu.Lock()
		s.clients[c] = struct{}{}
		s.mu.Unlock()
	})
	if err != nil {
		s.logger.Warn("inspector client rejected", "remote", c.remote, "error", err)
		fault := &protocol.Fault{Code: protocol.FaultInternal, Reason: err.Error(), Fatal: true}
		conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
		conn.WriteMessage(websocket.BinaryMessage, protocol.NewFrame(protocol.FrameError, protocol.EncodeFault(fault)).Encode())
		conn.Close()
		return
	}

	s.logger.Info("inspector client connected", "remote", c.remote)
	if s.metrics != nil {
		s.metrics.ClientConnected()
	}
	go s.writeLoop(c)

	// Keep connection alive until client disconnects
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	s.mu.Lock()
	delete(s.clients, c)
	s.mu.Unlock()
	c.close()
	if s.metrics != nil {
		s.metrics.ClientDisconnected()
	}
	s.logger.Info("inspector client disconnected", "remote", c.remote)
}

func (s *Server) writeLoop(c *client) {
	defer c.conn.Close()
	for {
		select {
		case data := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
			if err := c.conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
				s.logger.Debug("inspector write failed", "remote", c.remote, "error", err)
				c.close()
				return
			}
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
			c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

func (s *Server) handleTree(w http.ResponseWriter, r *http.Request) {
	var snap *snapshot.Snapshot
	err := s.do(r.Context(), func(pt *paint.Tree) {
		snap = snapshot.Capture(pt, s.host.Seq(), s.host.Viewport())
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleListSnapshots(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, errors.New("E601"))
		return
	}
	ids, err := s.store.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"ids": ids})
}

func (s *Server) handleSaveSnapshot(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, errors.New("E601"))
		return
	}
	var snap *snapshot.Snapshot
	err := s.do(r.Context(), func(pt *paint.Tree) {
		snap = snapshot.Capture(pt, s.host.Seq(), s.host.Viewport())
	})
	if err != nil {
		writeError(w, err)
		return
	}
	id, err := s.store.Save(r.Context(), snap)
	if err != nil {
		writeError(w, err)
		return
	}
	s.logger.Info("snapshot saved", "id", id, "seq", snap.Seq, "nodes", snap.Nodes)
	writeJSON(w, http.StatusCreated, map[string]any{"id": id, "seq": snap.Seq, "nodes": snap.Nodes})
}

func (s *Server) handleLoadSnapshot(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, errors.New("E601"))
		return
	}
	snap, err := s.store.Load(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// Replay returns Append patches that rebuild pt from nothing, parents
// before children.
func Replay(pt *paint.Tree) []render.Patch {
	root := pt.Root()
	if root.IsNil() {
		return nil
	}
	var out []render.Patch
	var visit func(id, parent ui.ID)
	visit = func(id, parent ui.ID) {
		n, _ := pt.Node(id)
		out = append(out, render.Patch{Op: render.PatchAppend, ID: id, Parent: parent, Pod: n.Pod})
		for _, c := range pt.Children(id) {
			visit(c, id)
		}
	}
	visit(root, 0)
	return out
}

// statusOf maps a coded error to an HTTP status.
func statusOf(err error) int {
	switch errors.Code(err) {
	case "E301":
		return http.StatusNotFound
	case "E303":
		return http.StatusUnprocessableEntity
	case "E601":
		return http.StatusNotImplemented
	case "E602":
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusOf(err), map[string]string{
		"code":  errors.Code(err),
		"error": err.Error(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
