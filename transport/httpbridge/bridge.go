package httpbridge

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/callbridge/callbridge/core"
	"github.com/callbridge/callbridge/logging"
)

// Options configures a Bridge.
type Options struct {
	// Logger provides structured logging. Defaults to NoOp logger if nil.
	Logger logging.Logger

	// CallBuffer is the number of inbound calls that may be queued before
	// POST /call starts answering 503. Defaults to 64.
	CallBuffer int

	// HubCapacity is the ring buffer size for event replay. Defaults to 256.
	HubCapacity int

	// Operations, when set, is advertised on GET /operations so frontends
	// can discover the registered operation set.
	Operations func() []string
}

// Bridge is the HTTP-facing session transport. It implements
// core.Transport for the engine side while serving the frontend side over
// chi routes.
type Bridge struct {
	logger logging.Logger
	ops    func() []string

	calls chan core.Call
	hub   *hub

	closeOnce sync.Once
	closed    chan struct{}
}

// New constructs a Bridge ready to be mounted (Router) or served (Serve)
// and passed to engine.New as the session transport.
func New(optFns ...func(o *Options)) *Bridge {
	opts := Options{
		Logger:      logging.NoOpLogger{},
		CallBuffer:  64,
		HubCapacity: 256,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	return &Bridge{
		logger: opts.Logger,
		ops:    opts.Operations,
		calls:  make(chan core.Call, opts.CallBuffer),
		hub:    newHub(opts.HubCapacity),
		closed: make(chan struct{}),
	}
}

// ReceiveNext blocks until the next inbound call or session closure.
func (b *Bridge) ReceiveNext() (core.Call, error) {
	select {
	case call := <-b.calls:
		return call, nil
	case <-b.closed:
		// Drain calls accepted before closure so no promise is dropped.
		select {
		case call := <-b.calls:
			return call, nil
		default:
			return core.Call{}, core.ErrSessionClosed
		}
	}
}

// SendResponse publishes the terminal outcome on the event stream.
func (b *Bridge) SendResponse(resp core.Response) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("marshal response: %w", err)
	}
	b.hub.publish("response", data)
	return nil
}

// progressFrame is the wire shape of one progress event.
type progressFrame struct {
	CallID   string        `json:"id"`
	Progress core.Progress `json:"progress"`
}

// SendProgress publishes an out-of-band progress event on the event stream.
func (b *Bridge) SendProgress(callID string, p core.Progress) error {
	data, err := json.Marshal(progressFrame{CallID: callID, Progress: p})
	if err != nil {
		return fmt.Errorf("marshal progress: %w", err)
	}
	b.hub.publish("progress", data)
	return nil
}

// Close tears the session down. The engine loop observes it as an implicit
// shutdown once queued calls are drained. Close is idempotent.
func (b *Bridge) Close() {
	b.closeOnce.Do(func() { close(b.closed) })
}

// Router returns the chi router serving the bridge endpoints.
func (b *Bridge) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Post("/call", b.handleCall)
	r.Get("/events", b.handleEvents)
	r.Get("/operations", b.handleOperations)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	return r
}

// Serve runs an HTTP server for the bridge until ctx is cancelled, then
// shuts it down and closes the session.
func (b *Bridge) Serve(ctx context.Context, addr string) error {
	server := &http.Server{
		Addr:         addr,
		Handler:      b.Router(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 0, // SSE connections are long-lived
		IdleTimeout:  60 * time.Second,
	}

	b.logger.Info("httpbridge.start", "listen", addr)

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		b.logger.Info("httpbridge.shutdown")
		b.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return ctx.Err()
	case err := <-errCh:
		b.Close()
		return fmt.Errorf("server error: %w", err)
	}
}

// callRequest is the inbound wire shape accepted on POST /call. The field
// names match the webview frontend contract.
type callRequest struct {
	ID        string   `json:"id"`
	Operation string   `json:"call_name"`
	Args      []string `json:"arguments"`
}

func (b *Bridge) handleCall(w http.ResponseWriter, r *http.Request) {
	var req callRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid call payload", http.StatusBadRequest)
		return
	}
	if req.Operation == "" {
		http.Error(w, "call_name is required", http.StatusBadRequest)
		return
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}

	call := core.Call{ID: req.ID, Operation: req.Operation, Args: req.Args}

	select {
	case <-b.closed:
		http.Error(w, "session closed", http.StatusGone)
		return
	default:
	}

	select {
	case b.calls <- call:
	default:
		http.Error(w, "call queue full", http.StatusServiceUnavailable)
		return
	}

	b.logger.Debug("httpbridge.call.accepted", "call_id", call.ID, "operation", call.Operation)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	_ = json.NewEncoder(w).Encode(map[string]string{"id": call.ID})
}

func (b *Bridge) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	var lastID int64
	if v := r.Header.Get("Last-Event-ID"); v != "" {
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil {
			lastID = parsed
		}
	}

	frames, cancel := b.hub.subscribe()
	defer cancel()

	// Replay frames the client missed before going live.
	for _, f := range b.hub.snapshotSince(lastID) {
		writeFrame(w, f)
		lastID = f.ID
	}
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-b.closed:
			return
		case f, ok := <-frames:
			if !ok {
				return
			}
			if f.ID <= lastID {
				continue
			}
			writeFrame(w, f)
			flusher.Flush()
		}
	}
}

func (b *Bridge) handleOperations(w http.ResponseWriter, _ *http.Request) {
	var ops []string
	if b.ops != nil {
		ops = b.ops()
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string][]string{"operations": ops})
}

func writeFrame(w http.ResponseWriter, f frame) {
	fmt.Fprintf(w, "id: %d\nevent: %s\ndata: %s\n\n", f.ID, f.Event, f.Data)
}
