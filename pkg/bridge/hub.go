// Package bridge connects the native layer to the web front end. Every editor
// window holds one WebSocket to the Hub; commands flow in as invoke messages,
// notifications and script evaluations flow out.
package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/sert-editor/sert/pkg/logging"
)

var (
	ErrUnknownWindow = errors.New("no such window")
	ErrWindowClosed  = errors.New("window closed")
	ErrNoLauncher    = errors.New("no window launcher configured")
)

const writeTimeout = 10 * time.Second

// Invoker executes a named command on behalf of a window.
type Invoker interface {
	Invoke(ctx context.Context, window, command string, args json.RawMessage) (interface{}, error)
}

// Launcher opens a new editor window showing url.
type Launcher func(url string) error

type window struct {
	label string
	conn  *websocket.Conn

	writeMu sync.Mutex

	pendingMu sync.Mutex
	pending   map[string]chan Message

	closed    chan struct{}
	closeOnce sync.Once
}

func (w *window) send(msg Message) error {
	w.writeMu.Lock()
	defer w.writeMu.Unlock()
	_ = w.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return w.conn.WriteJSON(msg)
}

func (w *window) close() {
	w.closeOnce.Do(func() {
		close(w.closed)
		w.conn.Close()
	})
}

func (w *window) expect(id string) chan Message {
	ch := make(chan Message, 1)
	w.pendingMu.Lock()
	w.pending[id] = ch
	w.pendingMu.Unlock()
	return ch
}

func (w *window) forget(id string) {
	w.pendingMu.Lock()
	delete(w.pending, id)
	w.pendingMu.Unlock()
}

func (w *window) resolve(msg Message) bool {
	w.pendingMu.Lock()
	ch, ok := w.pending[msg.ID]
	delete(w.pending, msg.ID)
	w.pendingMu.Unlock()
	if ok {
		ch <- msg
	}
	return ok
}

// readiness is a one-shot latch per window label.
type readiness struct {
	ch      chan struct{}
	done    bool
	waiters int
}

// Hub tracks connected windows.
type Hub struct {
	invoker Invoker
	logger  *logging.Logger

	upgrader websocket.Upgrader

	mu       sync.Mutex
	windows  map[string]*window
	ready    map[string]*readiness
	active   string
	baseURL  string
	launch   Launcher
	onReady  []func(label string)
	onClosed []func(label string)
}

// NewHub creates a hub dispatching invocations to invoker.
func NewHub(invoker Invoker, logger *logging.Logger) *Hub {
	if logger == nil {
		logger = logging.Discard()
	}
	h := &Hub{
		invoker: invoker,
		logger:  logger,
		windows: make(map[string]*window),
		ready:   make(map[string]*readiness),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  64 * 1024,
		WriteBufferSize: 64 * 1024,
		CheckOrigin:     sameOrigin,
	}
	return h
}

// SetInvoker replaces the command dispatcher. The command set and the hub
// reference each other, so one side is wired after construction.
func (h *Hub) SetInvoker(invoker Invoker) {
	h.mu.Lock()
	h.invoker = invoker
	h.mu.Unlock()
}

// SetLauncher configures how new windows are opened and the front-end URL
// they load.
func (h *Hub) SetLauncher(baseURL string, launch Launcher) {
	h.mu.Lock()
	h.baseURL = baseURL
	h.launch = launch
	h.mu.Unlock()
}

// OnReady registers fn to run each time a window signals ready.
func (h *Hub) OnReady(fn func(label string)) {
	h.mu.Lock()
	h.onReady = append(h.onReady, fn)
	h.mu.Unlock()
}

// OnClosed registers fn to run when a window disconnects.
func (h *Hub) OnClosed(fn func(label string)) {
	h.mu.Lock()
	h.onClosed = append(h.onClosed, fn)
	h.mu.Unlock()
}

// sameOrigin accepts non-browser clients and pages served by this server.
func sameOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return u.Host == r.Host
}

// ServeHTTP upgrades the request and runs the window's read loop until the
// connection ends. The window label comes from the "window" query parameter.
func (h *Hub) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	label := r.URL.Query().Get("window")
	if label == "" {
		label = uuid.NewString()
	}

	conn, err := h.upgrader.Upgrade(rw, r, nil)
	if err != nil {
		h.logger.WarnCat(logging.CatBridge, "Upgrade failed for window %s: %v", label, err)
		return
	}

	w := &window{
		label:   label,
		conn:    conn,
		pending: make(map[string]chan Message),
		closed:  make(chan struct{}),
	}
	h.register(w)
	defer h.unregister(w)

	h.logger.InfoCat(logging.CatBridge, "Window %s connected", label)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	for {
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.WarnCat(logging.CatBridge, "Window %s read error: %v", label, err)
			}
			return
		}
		h.handle(ctx, w, msg)
	}
}

func (h *Hub) handle(ctx context.Context, w *window, msg Message) {
	switch msg.Type {
	case TypeInvoke:
		go h.invoke(ctx, w, msg)
	case TypeAck:
		if !w.resolve(msg) {
			h.logger.DebugCat(logging.CatBridge, "Window %s acked unknown id %s", w.label, msg.ID)
		}
	case TypeReady:
		h.markReady(w.label)
	case TypeFocus:
		h.mu.Lock()
		h.active = w.label
		h.mu.Unlock()
	default:
		h.logger.WarnCat(logging.CatBridge, "Window %s sent unknown message type %q", w.label, msg.Type)
	}
}

func (h *Hub) invoke(ctx context.Context, w *window, msg Message) {
	reply := Message{Type: TypeReply, ID: msg.ID}

	h.mu.Lock()
	invoker := h.invoker
	h.mu.Unlock()

	var result interface{}
	var err error
	if invoker == nil {
		err = fmt.Errorf("commands are not available yet")
	} else {
		result, err = invoker.Invoke(ctx, w.label, msg.Command, msg.Args)
	}

	if err != nil {
		reply.Error = err.Error()
	} else if raw, encErr := encodePayload(result); encErr != nil {
		reply.Error = fmt.Sprintf("failed to encode result of %s: %v", msg.Command, encErr)
	} else {
		reply.OK = true
		reply.Result = raw
	}

	if err := w.send(reply); err != nil {
		h.logger.WarnCat(logging.CatBridge, "Reply to %s on window %s lost: %v", msg.Command, w.label, err)
	}
}

func (h *Hub) register(w *window) {
	h.mu.Lock()
	old := h.windows[w.label]
	h.windows[w.label] = w
	if h.active == "" {
		h.active = w.label
	}
	h.mu.Unlock()

	if old != nil {
		h.logger.NoticeCat(logging.CatBridge, "Window %s reconnected, dropping old connection", w.label)
		old.close()
	}
}

func (h *Hub) unregister(w *window) {
	w.close()

	h.mu.Lock()
	if h.windows[w.label] != w {
		// Replaced by a reconnect.
		h.mu.Unlock()
		return
	}
	delete(h.windows, w.label)
	if r, ok := h.ready[w.label]; ok && r.done {
		delete(h.ready, w.label)
	}
	if h.active == w.label {
		h.active = ""
		if labels := h.sortedLabelsLocked(); len(labels) > 0 {
			h.active = labels[0]
		}
	}
	hooks := append([]func(string){}, h.onClosed...)
	h.mu.Unlock()

	w.pendingMu.Lock()
	w.pending = make(map[string]chan Message)
	w.pendingMu.Unlock()

	h.logger.InfoCat(logging.CatBridge, "Window %s disconnected", w.label)
	for _, fn := range hooks {
		fn(w.label)
	}
}

func (h *Hub) readinessLocked(label string) *readiness {
	r, ok := h.ready[label]
	if !ok {
		r = &readiness{ch: make(chan struct{})}
		h.ready[label] = r
	}
	return r
}

func (h *Hub) markReady(label string) {
	h.mu.Lock()
	r := h.readinessLocked(label)
	if !r.done {
		r.done = true
		close(r.ch)
	}
	h.active = label
	hooks := append([]func(string){}, h.onReady...)
	h.mu.Unlock()

	h.logger.DebugCat(logging.CatBridge, "Window %s ready", label)
	for _, fn := range hooks {
		fn(label)
	}
}

// WaitReady blocks until the window signals ready or ctx ends. A latch nobody
// waits on any more and that never fired is discarded.
func (h *Hub) WaitReady(ctx context.Context, label string) error {
	h.mu.Lock()
	r := h.readinessLocked(label)
	r.waiters++
	h.mu.Unlock()

	var err error
	select {
	case <-r.ch:
	case <-ctx.Done():
		err = fmt.Errorf("window %s did not become ready: %w", label, ctx.Err())
	}

	h.mu.Lock()
	r.waiters--
	if !r.done && r.waiters == 0 && h.ready[label] == r {
		delete(h.ready, label)
	}
	h.mu.Unlock()
	return err
}

// OpenWindow launches a new editor window and returns its label. The window is
// usable once WaitReady returns.
func (h *Hub) OpenWindow(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	h.mu.Lock()
	launch, base := h.launch, h.baseURL
	h.mu.Unlock()

	if launch == nil {
		return "", ErrNoLauncher
	}

	// A ready signal that arrives before WaitReady leaves a fired latch behind,
	// so no latch is created here.
	label := uuid.NewString()
	target := fmt.Sprintf("%s/?window=%s", base, url.QueryEscape(label))
	if err := launch(target); err != nil {
		return "", fmt.Errorf("failed to open window: %w", err)
	}
	h.logger.InfoCat(logging.CatBridge, "Opened window %s", label)
	return label, nil
}

func (h *Hub) lookup(label string) (*window, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	w, ok := h.windows[label]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownWindow, label)
	}
	return w, nil
}

// Emit sends a notification to one window.
func (h *Hub) Emit(label, event string, payload interface{}) error {
	w, err := h.lookup(label)
	if err != nil {
		return err
	}
	raw, err := encodePayload(payload)
	if err != nil {
		return err
	}
	return w.send(Message{Type: TypeEvent, Event: event, Payload: raw})
}

// Broadcast sends a notification to every window. Delivery failures are logged.
func (h *Hub) Broadcast(event string, payload interface{}) {
	raw, err := encodePayload(payload)
	if err != nil {
		h.logger.ErrorCat(logging.CatBridge, "Cannot encode %s payload: %v", event, err)
		return
	}

	h.mu.Lock()
	targets := make([]*window, 0, len(h.windows))
	for _, w := range h.windows {
		targets = append(targets, w)
	}
	h.mu.Unlock()

	for _, w := range targets {
		if err := w.send(Message{Type: TypeEvent, Event: event, Payload: raw}); err != nil {
			h.logger.WarnCat(logging.CatBridge, "Broadcast %s to %s failed: %v", event, w.label, err)
		}
	}
}

// roundTrip sends msg and waits for the matching ack.
func (h *Hub) roundTrip(ctx context.Context, label string, msg Message) (Message, error) {
	w, err := h.lookup(label)
	if err != nil {
		return Message{}, err
	}

	msg.ID = uuid.NewString()
	ch := w.expect(msg.ID)
	defer w.forget(msg.ID)

	if err := w.send(msg); err != nil {
		return Message{}, fmt.Errorf("failed to deliver to window %s: %w", label, err)
	}

	select {
	case ack := <-ch:
		return ack, nil
	case <-w.closed:
		return Message{}, fmt.Errorf("%w: %s", ErrWindowClosed, label)
	case <-ctx.Done():
		return Message{}, ctx.Err()
	}
}

// Request sends event to a window and waits for its acknowledgement payload.
func (h *Hub) Request(ctx context.Context, label, event string, payload interface{}) (json.RawMessage, error) {
	raw, err := encodePayload(payload)
	if err != nil {
		return nil, err
	}
	ack, err := h.roundTrip(ctx, label, Message{Type: TypeRequest, Event: event, Payload: raw})
	if err != nil {
		return nil, err
	}
	if ack.Error != "" {
		return nil, fmt.Errorf("window %s rejected %s: %s", label, event, ack.Error)
	}
	return ack.Payload, nil
}

// Eval runs script in a window's web view and waits for it to finish.
func (h *Hub) Eval(ctx context.Context, label, script string) error {
	ack, err := h.roundTrip(ctx, label, Message{Type: TypeEval, Script: script})
	if err != nil {
		return err
	}
	if ack.Error != "" {
		return fmt.Errorf("script failed in window %s: %s", label, ack.Error)
	}
	return nil
}

// Active returns the most recently focused or readied window, or "".
func (h *Hub) Active() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.active
}

// Windows returns the labels of connected windows.
func (h *Hub) Windows() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.sortedLabelsLocked()
}

func (h *Hub) sortedLabelsLocked() []string {
	labels := make([]string, 0, len(h.windows))
	for label := range h.windows {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}
