package live

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vango-dev/reconcile/internal/errors"
	"github.com/vango-dev/reconcile/internal/history"
	"github.com/vango-dev/reconcile/internal/treefile"
	"github.com/vango-dev/reconcile/pkg/host"
	"github.com/vango-dev/reconcile/pkg/host/memdom"
	"github.com/vango-dev/reconcile/pkg/middleware"
	"github.com/vango-dev/reconcile/pkg/protocol"
	"github.com/vango-dev/reconcile/pkg/reconcile"
	"github.com/vango-dev/reconcile/pkg/vdom"
)

// Server owns one container. Renders are encoded by a protocol.Binding,
// replayed onto an in-memory mirror and broadcast to WebSocket clients.
type Server struct {
	opts    Options
	logger  *slog.Logger
	metrics *metrics
	actions *treefile.Actions

	upgrader    websocket.Upgrader
	httpMetrics func(http.Handler) http.Handler

	// mu guards everything below and orders broadcasts.
	mu        sync.Mutex
	binding   *protocol.Binding
	engine    *reconcile.Engine
	container *reconcile.Container
	doc       *memdom.Document
	mirror    *protocol.Replayer
	clients   map[*client]struct{}
}

// Result describes one render or unmount.
type Result struct {
	Stats *reconcile.Stats
	Ops   int // ops in the broadcast batch
	Bytes int // encoded batch size
}

// New creates a server with an empty container.
func New(opts Options) *Server {
	opts.applyDefaults()
	s := &Server{
		opts:    opts,
		logger:  opts.Logger.With("component", "live"),
		binding: protocol.NewBinding(),
		doc:     memdom.NewDocument(opts.RootTag),
		clients: make(map[*client]struct{}),
	}
	s.actions = treefile.NewActions(s.onAction)
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     s.opts.checkOrigin,
	}

	engineOpts := []reconcile.Option{
		reconcile.WithLogger(opts.Logger),
		reconcile.WithMaxDepth(opts.MaxDepth),
		reconcile.WithStrictKeys(opts.StrictKeys),
	}
	if opts.Registry != nil {
		s.metrics = newMetrics(opts.Registry, opts.Namespace)
		s.httpMetrics = middleware.Prometheus(
			middleware.WithNamespace(opts.Namespace),
			middleware.WithRegistry(opts.Registry),
		)
		engineOpts = append(engineOpts, reconcile.WithMetrics(reconcile.NewMetrics(opts.Registry, opts.Namespace)))
	}
	s.engine = reconcile.NewEngine(s.binding, engineOpts...)
	s.container = reconcile.NewContainer(s.binding.Root())
	s.mirror = protocol.NewReplayer(s.doc, s.doc.Root(), nil)
	return s
}

// Handler returns the HTTP routes of the server:
//
//	POST   /render   render a tree document (JSON or YAML)
//	DELETE /render   unmount the tree
//	GET    /html     serialized mirror
//	GET    /history  recorded renders, when a history store is configured
//	GET    /ws       WebSocket patch stream
//	GET    /metrics  Prometheus metrics, when a registry is configured
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(s.logRequests)
	r.Use(middleware.OpenTelemetry(middleware.WithFilter(func(r *http.Request) bool {
		return r.URL.Path != "/metrics"
	})))
	if s.httpMetrics != nil {
		r.Use(s.httpMetrics)
	}

	r.Post("/render", s.handleRender)
	r.Delete("/render", s.handleUnmount)
	r.Get("/html", s.handleHTML)
	r.Get("/ws", s.handleWebSocket)
	if s.opts.History != nil {
		r.Get("/history", s.handleHistory)
	}
	if s.opts.Registry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.opts.Registry, promhttp.HandlerOpts{}))
	}
	return r
}

// ListenAndServe serves Handler on addr until ctx is done, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !stderrors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Close disconnects every client.
func (s *Server) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.clients {
		s.dropLocked(c)
	}
}

// Render reconciles tree into the container and broadcasts the resulting
// batch. On failure the pending ops are discarded, so clients and the mirror
// keep the last successfully rendered tree.
func (s *Server) Render(ctx context.Context, tree *vdom.VNode) (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats, err := s.engine.Render(ctx, tree, s.container)
	return s.commitLocked(stats, err)
}

// Unmount removes the rendered tree and broadcasts the removal.
func (s *Server) Unmount(ctx context.Context) (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats, err := s.engine.Unmount(ctx, s.container)
	return s.commitLocked(stats, err)
}

func (s *Server) commitLocked(stats *reconcile.Stats, err error) (*Result, error) {
	if err != nil {
		s.binding.Discard()
		return &Result{Stats: stats}, err
	}

	res := &Result{Stats: stats, Ops: s.binding.Pending()}
	batch := s.binding.Flush()
	if batch == nil {
		return res, nil
	}
	res.Bytes = len(batch)

	if _, err := s.mirror.Apply(batch); err != nil {
		s.logger.Error("mirror out of sync", "error", err)
		return res, err
	}
	s.broadcastLocked(protocol.NewFrame(protocol.FramePatches, batch).Encode())
	return res, nil
}

// HTML serializes the mirror.
func (s *Server) HTML() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.HTML()
}

// Clients returns the number of connected clients.
func (s *Server) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// Dispatch delivers a client event to the listener it names.
func (s *Server) Dispatch(ev *protocol.Event) error {
	s.mu.Lock()
	l, ok := s.binding.Listener(ev.Listener)
	s.mu.Unlock()
	if !ok {
		return errors.New("P003").WithDetail(fmt.Sprintf("No listener with id %d", ev.Listener))
	}
	l.Call(ev.HostEvent())
	return nil
}

// Listener returns the listener bound to action. Trees built by the caller
// should use it for handlers so client events reach OnAction.
func (s *Server) Listener(event, action string) *host.Listener {
	return s.actions.Listener(event, action)
}

func (s *Server) onAction(action string, e host.Event) {
	s.metrics.action(action)
	s.logger.Info("action", "action", action, "event", e.Type)
	if s.opts.OnAction != nil {
		s.opts.OnAction(action, e)
	}
}

// renderResponse is the JSON body of a successful POST or DELETE /render.
type renderResponse struct {
	Mode        string `json:"mode"`
	Created     int    `json:"created"`
	Removed     int    `json:"removed"`
	Moved       int    `json:"moved"`
	Replaced    int    `json:"replaced"`
	Patched     int    `json:"patched"`
	AttrOps     int    `json:"attrOps"`
	TextUpdates int    `json:"textUpdates"`
	Ops         int    `json:"ops"`
	Bytes       int    `json:"bytes"`
	Revision    int    `json:"revision,omitempty"` // history sequence number
}

func newRenderResponse(res *Result) renderResponse {
	st := res.Stats
	return renderResponse{
		Mode:        string(st.Mode),
		Created:     st.Created,
		Removed:     st.Removed,
		Moved:       st.Moved,
		Replaced:    st.Replaced,
		Patched:     st.Patched,
		AttrOps:     st.AttrOps,
		TextUpdates: st.TextUpdates,
		Ops:         res.Ops,
		Bytes:       res.Bytes,
	}
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.opts.MaxDocumentSize))
	if err != nil {
		s.writeError(w, errors.New("T001").Wrap(err))
		return
	}
	format := documentFormat(r)
	tree, err := s.decode(data, format)
	if err != nil {
		s.writeError(w, err)
		return
	}

	res, err := s.Render(r.Context(), tree)
	if err != nil {
		s.writeError(w, err)
		return
	}
	resp := newRenderResponse(res)
	resp.Revision = s.record(data, format, res)
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) decode(data []byte, format treefile.Format) (*vdom.VNode, error) {
	return treefile.Decode(data, format, treefile.Options{
		Components: s.opts.Components,
		Listener:   s.actions.Listener,
	})
}

// record stores a rendered document in the history and returns its
// sequence number, or 0 without a history. A failed write is logged and
// does not fail the render.
func (s *Server) record(data []byte, format treefile.Format, res *Result) int {
	if s.opts.History == nil {
		return 0
	}
	seq, err := s.opts.History.Add(history.Entry{
		Format: format.String(),
		Body:   data,
		Ops:    res.Ops,
		Bytes:  res.Bytes,
	})
	if err != nil {
		s.logger.Warn("history write failed", "error", err)
		return 0
	}
	return seq
}

// Restore renders the most recent document of the history. It reports false
// when there is no history or it is empty.
func (s *Server) Restore(ctx context.Context) (bool, error) {
	if s.opts.History == nil {
		return false, nil
	}
	last, err := s.opts.History.Last()
	if stderrors.Is(err, history.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	format := treefile.JSON
	if last.Format == treefile.YAML.String() {
		format = treefile.YAML
	}
	tree, err := s.decode(last.Body, format)
	if err != nil {
		return false, err
	}
	if _, err := s.Render(ctx, tree); err != nil {
		return false, err
	}
	s.logger.Info("restored render", "seq", last.Seq, "time", last.Time)
	return true, nil
}

// historyItem is one element of the GET /history response.
type historyItem struct {
	Seq    int       `json:"seq"`
	Time   time.Time `json:"time"`
	Format string    `json:"format"`
	Size   int       `json:"size"`
	Ops    int       `json:"ops"`
	Bytes  int       `json:"bytes"`
}

// handleHistory lists recorded renders oldest first. ?from= and ?upto=
// bound the sequence numbers; ?seq=N returns the raw document of entry N.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Has("seq") {
		seq, err := queryInt(q, "seq")
		if err != nil {
			s.writeError(w, err)
			return
		}
		e, err := s.opts.History.Get(seq)
		if err != nil {
			s.writeError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/"+e.Format)
		w.Write(e.Body)
		return
	}

	from, err := queryInt(q, "from")
	if err != nil {
		s.writeError(w, err)
		return
	}
	upto, err := queryInt(q, "upto")
	if err != nil {
		s.writeError(w, err)
		return
	}
	entries, err := s.opts.History.List(from, upto)
	if err != nil {
		s.writeError(w, err)
		return
	}
	items := make([]historyItem, len(entries))
	for i, e := range entries {
		items[i] = historyItem{Seq: e.Seq, Time: e.Time, Format: e.Format, Size: len(e.Body), Ops: e.Ops, Bytes: e.Bytes}
	}
	writeJSON(w, http.StatusOK, items)
}

// queryInt parses the named query parameter. An absent parameter is 0.
func queryInt(q url.Values, name string) (int, error) {
	v := q.Get(name)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, errors.New("S002").WithDetail(name + " must be a number").Wrap(err)
	}
	return n, nil
}

func (s *Server) handleUnmount(w http.ResponseWriter, r *http.Request) {
	res, err := s.Unmount(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newRenderResponse(res))
}

func (s *Server) handleHTML(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, s.HTML())
}

// documentFormat reads the format from ?format= or the Content-Type.
func documentFormat(r *http.Request) treefile.Format {
	switch strings.ToLower(r.URL.Query().Get("format")) {
	case "yaml", "yml":
		return treefile.YAML
	case "json":
		return treefile.JSON
	}
	if strings.Contains(strings.ToLower(r.Header.Get("Content-Type")), "yaml") {
		return treefile.YAML
	}
	return treefile.JSON
}

// writeError writes err as a JSON error object.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	var re *errors.ReconcileError
	if !stderrors.As(err, &re) {
		re = errors.Newf(errors.CategoryHost, "%v", err)
	}

	status := http.StatusInternalServerError
	switch {
	case re.Code == "R004":
		status = http.StatusConflict
	case re.Code == "S002":
		status = http.StatusNotFound
	case re.Category == errors.CategoryTree, re.Category == errors.CategoryContract:
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	fmt.Fprintln(w, re.FormatJSON())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", chimw.GetReqID(r.Context()),
		)
	})
}
