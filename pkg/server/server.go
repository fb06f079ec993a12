package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fyerfyer/gate-synth/pkg/circuit"
	"github.com/fyerfyer/gate-synth/pkg/editor"
	"github.com/fyerfyer/gate-synth/pkg/render"
)

// errBadRequest marks malformed request bodies
var errBadRequest = errors.New("invalid request body")

// Server exposes one editor session over HTTP. The editor is not safe for
// concurrent use, so every handler holds mu.
type Server struct {
	mu       sync.Mutex
	editor   *editor.Editor
	logger   *slog.Logger
	registry *prometheus.Registry
	metrics  *metrics
}

// Option configures a Server
type Option func(*Server)

// WithLogger sets the request logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithRegistry registers metrics on the given registry instead of a private one
func WithRegistry(reg *prometheus.Registry) Option {
	return func(s *Server) {
		s.registry = reg
	}
}

// GateRequest is the body of POST /gates
type GateRequest struct {
	Kind  string   `json:"kind"`
	Arity int      `json:"arity"`
	X     *float64 `json:"x,omitempty"`
	Y     *float64 `json:"y,omitempty"`
}

// ConnectRequest is the body of POST /connections
type ConnectRequest struct {
	Source circuit.GateID `json:"source"`
	Dest   circuit.GateID `json:"dest"`
	Slot   int            `json:"slot"`
}

// SnapRequest is the body of POST /connections/snap
type SnapRequest struct {
	Source circuit.GateID `json:"source"`
	X      float64        `json:"x"`
	Y      float64        `json:"y"`
}

// GateResponse describes a gate
type GateResponse struct {
	ID       circuit.GateID    `json:"id"`
	Label    string            `json:"label"`
	Kind     string            `json:"kind"`
	Arity    int               `json:"arity"`
	Slots    []SlotResponse    `json:"slots"`
	Terminal bool              `json:"terminal"`
	Position *editor.Placement `json:"position,omitempty"`
}

// SlotResponse describes one input slot
type SlotResponse struct {
	Name   string         `json:"name"`
	Source circuit.GateID `json:"source,omitempty"`
}

// EdgeResponse describes a connection
type EdgeResponse struct {
	Source circuit.GateID `json:"source"`
	Dest   circuit.GateID `json:"dest"`
	Slot   int            `json:"slot"`
}

// NewHandler creates the HTTP handler for an editor
func NewHandler(ed *editor.Editor, opts ...Option) http.Handler {
	s := &Server{editor: ed}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if s.registry == nil {
		s.registry = prometheus.NewRegistry()
	}
	s.metrics = newMetrics(s.registry)
	s.metrics.gates.Set(float64(ed.Len()))

	r := chi.NewRouter()

	r.Route("/gates", func(r chi.Router) {
		r.Get("/", s.listGates)
		r.Post("/", s.addGate)
		r.Delete("/{id}", s.removeGate)
	})
	r.Route("/connections", func(r chi.Router) {
		r.Get("/", s.listConnections)
		r.Post("/", s.connect)
		r.Post("/snap", s.snap)
		r.Delete("/{dest}/{slot}", s.disconnect)
	})
	r.Post("/undo", s.undo)
	r.Post("/clear", s.clear)
	r.Get("/expressions", s.expressions)
	r.Get("/graph", s.graph)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	return r
}

func (s *Server) listGates(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	gates := s.editor.Gates()
	resp := make([]GateResponse, 0, len(gates))
	for _, g := range gates {
		resp = append(resp, s.gateResponse(g))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) addGate(w http.ResponseWriter, r *http.Request) {
	var body GateRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.fail(w, "add_gate", fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	kind, err := circuit.ParseGateKind(body.Kind)
	if err != nil {
		s.fail(w, "add_gate", err)
		return
	}
	if (body.X == nil) != (body.Y == nil) {
		s.fail(w, "add_gate", fmt.Errorf("%w: x and y must be given together", errBadRequest))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var id circuit.GateID
	if body.X != nil {
		id, err = s.editor.AddGateAt(kind, body.Arity, circuit.Point{X: *body.X, Y: *body.Y})
	} else {
		id, err = s.editor.AddGate(kind, body.Arity)
	}
	if err != nil {
		s.fail(w, "add_gate", err)
		return
	}
	s.succeed("add_gate")

	g, _ := s.editor.Gate(id)
	writeJSON(w, http.StatusCreated, s.gateResponse(g))
}

func (s *Server) removeGate(w http.ResponseWriter, r *http.Request) {
	id, err := circuit.ParseGateID(chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, "remove_gate", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.editor.RemoveGate(id); err != nil {
		s.fail(w, "remove_gate", err)
		return
	}
	s.succeed("remove_gate")
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listConnections(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	edges := s.editor.Edges()
	resp := make([]EdgeResponse, 0, len(edges))
	for _, e := range edges {
		resp = append(resp, EdgeResponse{Source: e.Source, Dest: e.Dest, Slot: e.Slot})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) connect(w http.ResponseWriter, r *http.Request) {
	var body ConnectRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.fail(w, "connect", fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}

	source, err := circuit.ParseGateID(body.Source.String())
	if err != nil {
		s.fail(w, "connect", err)
		return
	}
	dest, err := circuit.ParseGateID(body.Dest.String())
	if err != nil {
		s.fail(w, "connect", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.editor.Connect(source, dest, body.Slot)
	if err != nil {
		s.fail(w, "connect", err)
		return
	}
	s.succeed("connect")
	writeJSON(w, http.StatusCreated, EdgeResponse{Source: source, Dest: id.Dest, Slot: id.Slot})
}

func (s *Server) snap(w http.ResponseWriter, r *http.Request) {
	var body SnapRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.fail(w, "snap", fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}

	source, err := circuit.ParseGateID(body.Source.String())
	if err != nil {
		s.fail(w, "snap", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.editor.SelectOutput(source); err != nil {
		s.fail(w, "snap", err)
		return
	}
	id, ok, err := s.editor.ConnectAt(circuit.Point{X: body.X, Y: body.Y})
	if err != nil {
		s.fail(w, "snap", err)
		return
	}
	if !ok {
		s.metrics.mutations.WithLabelValues("snap", "miss").Inc()
		w.WriteHeader(http.StatusNoContent)
		return
	}
	s.succeed("snap")
	writeJSON(w, http.StatusCreated, EdgeResponse{Source: source, Dest: id.Dest, Slot: id.Slot})
}

func (s *Server) disconnect(w http.ResponseWriter, r *http.Request) {
	dest, err := circuit.ParseGateID(chi.URLParam(r, "dest"))
	if err != nil {
		s.fail(w, "disconnect", err)
		return
	}
	slot, err := strconv.Atoi(chi.URLParam(r, "slot"))
	if err != nil {
		s.fail(w, "disconnect", fmt.Errorf("%w: %q", circuit.ErrInvalidSlot, chi.URLParam(r, "slot")))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.editor.Disconnect(dest, slot) {
		s.succeed("disconnect")
	} else {
		s.metrics.mutations.WithLabelValues("disconnect", "noop").Inc()
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) undo(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	undone, err := s.editor.Undo()
	if err != nil {
		s.fail(w, "undo", err)
		return
	}
	s.succeed("undo")
	writeJSON(w, http.StatusOK, map[string]bool{"undone": undone})
}

func (s *Server) clear(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.editor.Clear()
	s.succeed("clear")
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) expressions(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	exprs, err := s.editor.Expressions()
	s.metrics.synthesis.Observe(time.Since(start).Seconds())
	if err != nil {
		s.metrics.synthesisErrors.Inc()
		s.writeError(w, "synthesize", err)
		return
	}

	if r.URL.Query().Get("format") == "json" {
		writeJSON(w, http.StatusOK, exprs)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	for i, e := range exprs {
		if i > 0 {
			io.WriteString(w, "\n")
		}
		io.WriteString(w, e.String())
	}
}

func (s *Server) graph(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, render.GenerateMermaid(s.editor.Snapshot()))
}

func (s *Server) gateResponse(g circuit.Gate) GateResponse {
	resp := GateResponse{
		ID:       g.ID,
		Label:    g.Label,
		Kind:     g.Kind.String(),
		Arity:    g.Arity,
		Slots:    make([]SlotResponse, len(g.Slots)),
		Terminal: g.IsTerminal(),
	}
	for i, slot := range g.Slots {
		resp.Slots[i] = SlotResponse{Name: slot.Name, Source: slot.Source}
	}
	if p, ok := s.editor.Layout().Placement(g.ID); ok {
		resp.Position = &p
	}
	return resp
}

// succeed records a successful mutation; callers hold mu
func (s *Server) succeed(op string) {
	s.metrics.mutations.WithLabelValues(op, "ok").Inc()
	s.metrics.gates.Set(float64(s.editor.Len()))
}

// fail records a failed mutation and writes the error
func (s *Server) fail(w http.ResponseWriter, op string, err error) {
	s.metrics.mutations.WithLabelValues(op, "error").Inc()
	s.writeError(w, op, err)
}

// writeError maps a domain error to a status code and writes it
func (s *Server) writeError(w http.ResponseWriter, op string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "op", op, "err", err)
	} else {
		s.logger.Warn("request rejected", "op", op, "status", status, "err", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// statusFor maps domain errors to HTTP statuses
func statusFor(err error) int {
	switch {
	case errors.Is(err, circuit.ErrUnknownGate):
		return http.StatusNotFound
	case errors.Is(err, circuit.ErrSelfLoop), errors.Is(err, circuit.ErrSlotOccupied):
		return http.StatusConflict
	case errors.Is(err, circuit.ErrCyclicGraph):
		return http.StatusUnprocessableEntity
	case errors.Is(err, circuit.ErrInvalidSlot),
		errors.Is(err, circuit.ErrInvalidArity),
		errors.Is(err, circuit.ErrUnknownKind):
		return http.StatusBadRequest
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
