package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/jpalmerr/resultwatch/form"
	"github.com/jpalmerr/resultwatch/internal/store"
	"github.com/jpalmerr/resultwatch/page"
)

const (
	// sseWriteTimeout is the maximum time allowed for a single SSE write operation.
	// This prevents goroutine leaks when clients are slow or disconnected.
	// Must be <= shutdown timeout to ensure clean shutdown.
	sseWriteTimeout = 5 * time.Second

	// maxFormMemory is how much of a submitted form is kept in memory;
	// larger uploads spill to temporary files.
	maxFormMemory = 10 << 20

	// defaultTitle is used when no custom title is configured.
	defaultTitle = "Results"
)

// markers in index.html that get replaced when the page is served
const (
	titlePlaceholder  = "{{.Title}}"
	statusPlaceholder = "{{.Status}}"
	itemsPlaceholder  = "{{.Items}}"
	inputPlaceholder  = "{{.InputHidden}}"
	seqPlaceholder    = "{{.Seq}}"
)

// ErrBusy may be wrapped by a [SubmitFunc] to report that another
// submission is still running. The handler answers 409 Conflict.
var ErrBusy = errors.New("submission already in progress")

// SubmitFunc forwards a form received from the browser and returns the
// backend's status message.
type SubmitFunc func(ctx context.Context, f *form.Form) (string, error)

// Server handles HTTP requests for the results page and its API.
//
// Server provides four endpoints:
//   - GET /: Serves the embedded page with the current state rendered in
//   - GET /api/page: Returns the current page snapshot as JSON
//   - GET /api/sse: Server-Sent Events stream of page events
//   - POST /api/submit: Forwards a multipart form to the [SubmitFunc]
//
// The server is designed for graceful shutdown via context cancellation.
type Server struct {
	store      store.Store
	port       int
	httpServer *http.Server
	assets     fs.FS
	submit     SubmitFunc
	logger     *slog.Logger
}

// NewServer creates a new HTTP [Server].
//
// Parameters:
//   - st: Store holding the page shown to browsers
//   - port: TCP port to listen on
//   - assets: Embedded filesystem containing the page assets (may be nil)
//   - submit: Receives browser submissions (may be nil to disable the form)
//   - logger: Logger for server events
//
// The server is not started until [Server.Start] is called.
func NewServer(st store.Store, port int, assets fs.FS, submit SubmitFunc, logger *slog.Logger) *Server {
	return &Server{
		store:  st,
		port:   port,
		assets: assets,
		submit: submit,
		logger: logger,
	}
}

// Handler returns the request router. It is exposed for tests and for
// embedding the page into another server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// API routes
	mux.HandleFunc("/api/page", s.handlePage)
	mux.HandleFunc("/api/sse", s.handleSSE)
	mux.HandleFunc("/api/submit", s.handleSubmit)

	// serve the page assets
	if s.assets != nil {
		// serve index.html at root
		mux.HandleFunc("/", s.handleIndex)
	}
	return mux
}

// Start begins serving HTTP requests in a background goroutine.
//
// Start is non-blocking and returns immediately after confirming the server
// is listening. The server will continue running until the context is
// cancelled, at which point it initiates a graceful shutdown with a 5-second
// timeout.
//
// Returns an error if the server fails to bind to the configured port.
func (s *Server) Start(ctx context.Context) error {
	// create listener first to verify port availability synchronously
	addr := fmt.Sprintf(":%d", s.port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to bind to port %d: %w", s.port, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is like [Server.Start] but uses an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		// BaseContext derives all request contexts from the server context.
		// When ctx is cancelled, all request contexts are also cancelled,
		// enabling graceful shutdown of long-running handlers like SSE.
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Error("http server error", "error", err)
		}
	}()

	// shutdown on context cancellation
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("http server shutdown error", "error", err)
		}
	}()

	s.logger.Info("page available", "addr", ln.Addr().String())
	return nil
}

// handleIndex serves the page with the current state rendered server-side,
// so it is complete even before the event stream connects.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	if s.assets == nil {
		http.Error(w, "Page not found", http.StatusInternalServerError)
		return
	}

	// read index.html from embedded assets
	content, err := fs.ReadFile(s.assets, "assets/index.html")
	if err != nil {
		http.Error(w, "Page not found", http.StatusInternalServerError)
		return
	}

	snap := s.store.Snapshot()
	items, err := page.RenderList(snap.Items)
	if err != nil {
		s.logger.Error("failed to render result list", "error", err)
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
		return
	}

	title := snap.Title
	if title == "" {
		title = defaultTitle
	}
	hidden := ""
	if snap.InputHidden {
		hidden = "hidden"
	}

	// every substituted text is HTML-escaped to prevent XSS
	rendered := strings.NewReplacer(
		titlePlaceholder, html.EscapeString(title),
		statusPlaceholder, html.EscapeString(snap.Status),
		itemsPlaceholder, items,
		inputPlaceholder, hidden,
		seqPlaceholder, strconv.FormatUint(snap.Seq, 10),
	).Replace(string(content))

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	if _, err = w.Write([]byte(rendered)); err != nil {
		s.logger.Error("failed to write page response", "error", err)
	}
}

// handlePage returns the current page snapshot as JSON.
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	snap := s.store.Snapshot()
	if snap.Title == "" {
		snap.Title = defaultTitle
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")

	if err := json.NewEncoder(w).Encode(snap); err != nil {
		s.logger.Error("failed to encode page response", "error", err)
	}
}

// handleSubmit forwards the browser's multipart form.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.submit == nil {
		writeJSON(w, http.StatusNotImplemented, map[string]string{"error": "submissions are disabled"})
		return
	}

	if err := r.ParseMultipartForm(maxFormMemory); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid form: " + err.Error()})
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	f, err := form.FromMultipart(r.MultipartForm)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	msg, err := s.submit(r.Context(), f)
	switch {
	case errors.Is(err, ErrBusy):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	case err != nil:
		s.logger.Warn("browser submission failed", "error", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
	default:
		writeJSON(w, http.StatusOK, map[string]string{"message": msg})
	}
}

// handleSSE streams page events via Server-Sent Events.
//
// The stream starts with a "snapshot" event holding the full page, followed
// by one unnamed event per mutation. Clients drop events whose seq is not
// greater than the last one applied.
//
// The handler uses write deadlines to prevent goroutine leaks when clients are
// slow or disconnected. Without deadlines, a blocked Fprintf call would prevent
// the handler from detecting context cancellation or channel closure.
func (s *Server) handleSSE(w http.ResponseWriter, r *http.Request) {
	// check if flushing is supported
	if _, ok := w.(http.Flusher); !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return
	}

	// ResponseController provides deadline-aware write and flush operations.
	rc := http.NewResponseController(w)

	// track if write deadlines are supported (may not be for some ResponseWriter impls)
	deadlinesSupported := true

	// writeAndFlush writes one SSE event with a deadline to prevent blocking forever.
	writeAndFlush := func(event string, data []byte) error {
		if deadlinesSupported {
			if err := rc.SetWriteDeadline(time.Now().Add(sseWriteTimeout)); err != nil {
				// deadline not supported by underlying connection, continue without
				s.logger.Warn("sse write deadlines not supported", "error", err)
				deadlinesSupported = false
			}
		}

		if event != "" {
			if _, err := fmt.Fprintf(w, "event: %s\n", event); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
			return err
		}

		// ResponseController.Flush respects the write deadline
		return rc.Flush()
	}

	// set SSE headers
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	// subscribe before the snapshot so no event falls in between
	ch := s.store.Subscribe()
	defer s.store.Unsubscribe(ch)

	snap := s.store.Snapshot()
	if snap.Title == "" {
		snap.Title = defaultTitle
	}
	data, err := json.Marshal(snap)
	if err != nil {
		s.logger.Error("failed to encode snapshot", "error", err)
		return
	}
	if err := writeAndFlush("snapshot", data); err != nil {
		return
	}

	// stream events
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return
			}
			if ev.Seq <= snap.Seq {
				continue
			}
			data, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			if err := writeAndFlush("", data); err != nil {
				return
			}

		case <-r.Context().Done():
			// request context is derived from server context via BaseContext,
			// so this fires on both client disconnect AND server shutdown
			return
		}
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
