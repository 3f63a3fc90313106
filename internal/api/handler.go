package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"
)

type contextKey string

const requestIDContextKey contextKey = "requestID"

// maxSpeechText mirrors the Watson limit of 5 KB of text per synthesis request.
const maxSpeechText = 5 * 1024

const maxRequestBody = 64 * 1024

// Registry exposes the bound service clients.
type Registry interface {
	Names() []string
	Get(name string) (any, bool)
}

// SpeechSynthesizer converts text to an audio stream.
type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, text, voice, accept string) (io.ReadCloser, string, error)
}

// ContainerLister lists object storage containers.
type ContainerLister interface {
	ContainerNames(ctx context.Context) ([]string, error)
}

// Handler wires the service registry and the optional service adapters into
// HTTP handlers.
type Handler struct {
	registry    Registry
	synthesizer SpeechSynthesizer
	containers  ContainerLister

	clock func() time.Time
}

// HandlerOption configures Handler behaviour.
type HandlerOption func(*Handler)

// WithClock overrides the time source, primarily for tests.
func WithClock(clock func() time.Time) HandlerOption {
	return func(h *Handler) {
		h.clock = clock
	}
}

// WithSynthesizer enables the text-to-speech endpoint.
func WithSynthesizer(s SpeechSynthesizer) HandlerOption {
	return func(h *Handler) {
		h.synthesizer = s
	}
}

// WithContainerLister enables the object storage endpoint.
func WithContainerLister(l ContainerLister) HandlerOption {
	return func(h *Handler) {
		h.containers = l
	}
}

// NewHandler constructs a Handler with the provided dependencies.
func NewHandler(registry Registry, opts ...HandlerOption) *Handler {
	h := &Handler{
		registry: registry,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	resp := healthResponse{
		Status:    "ok",
		Timestamp: h.clock(),
		Services:  len(h.registry.Names()),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleListServices(w http.ResponseWriter, _ *http.Request) {
	names := h.registry.Names()
	writeJSON(w, http.StatusOK, servicesResponse{Services: names, Count: len(names)})
}

func (h *Handler) handleGetService(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	client, ok := h.registry.Get(name)
	if !ok {
		suggestion := ""
		if names := h.registry.Names(); len(names) > 0 {
			suggestion = "Bound services: " + strings.Join(names, ", ")
		}
		writeError(w, http.StatusNotFound, "Service not bound", fmt.Sprintf("no client registered for %q", name), suggestion)
		return
	}

	writeJSON(w, http.StatusOK, serviceResponse{
		Name:       name,
		ClientType: fmt.Sprintf("%T", client),
	})
}

func (h *Handler) handleSynthesize(w http.ResponseWriter, r *http.Request) {
	if h.synthesizer == nil {
		writeError(w, http.StatusServiceUnavailable, "Service not bound", "text to speech is not configured")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	var req synthesizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", "unable to parse JSON payload")
		return
	}

	req.Text = strings.TrimSpace(req.Text)
	if req.Text == "" {
		writeError(w, http.StatusBadRequest, "Invalid request", "text must not be empty")
		return
	}
	if len(req.Text) > maxSpeechText || !utf8.ValidString(req.Text) {
		writeError(w, http.StatusBadRequest, "Invalid request", fmt.Sprintf("text must be valid UTF-8 of at most %d bytes", maxSpeechText))
		return
	}

	audio, contentType, err := h.synthesizer.Synthesize(r.Context(), req.Text, req.Voice, req.Accept)
	if err != nil {
		writeUpstreamError(w, err)
		return
	}
	defer audio.Close()

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, audio)
}

func (h *Handler) handleListContainers(w http.ResponseWriter, r *http.Request) {
	if h.containers == nil {
		writeError(w, http.StatusServiceUnavailable, "Service not bound", "object storage is not configured")
		return
	}

	names, err := h.containers.ContainerNames(r.Context())
	if err != nil {
		writeUpstreamError(w, err)
		return
	}
	if names == nil {
		names = []string{}
	}

	writeJSON(w, http.StatusOK, containersResponse{Containers: names, Count: len(names)})
}

func requestIDFromContext(ctx context.Context) string {
	if v := ctx.Value(requestIDContextKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

type synthesizeRequest struct {
	Text   string `json:"text"`
	Voice  string `json:"voice"`
	Accept string `json:"accept"`
}

type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Services  int       `json:"services"`
}

type servicesResponse struct {
	Services []string `json:"services"`
	Count    int      `json:"count"`
}

type serviceResponse struct {
	Name       string `json:"name"`
	ClientType string `json:"clientType"`
}

type containersResponse struct {
	Containers []string `json:"containers"`
	Count      int      `json:"count"`
}

type errorResponse struct {
	Error      string `json:"error"`
	Details    string `json:"details,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if status != 0 {
		w.WriteHeader(status)
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message, details string, suggestion ...string) {
	resp := errorResponse{
		Error:   message,
		Details: details,
	}
	if len(suggestion) > 0 {
		resp.Suggestion = suggestion[0]
	}
	writeJSON(w, status, resp)
}

func writeInternalError(w http.ResponseWriter, err error) {
	writeError(w, http.StatusInternalServerError, "Internal error", err.Error())
}

// writeUpstreamError maps failures of a bound service to a gateway status.
func writeUpstreamError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusGatewayTimeout, "Upstream timeout", err.Error())
	case errors.Is(err, context.Canceled):
		writeError(w, http.StatusServiceUnavailable, "Request cancelled", err.Error())
	default:
		writeError(w, http.StatusBadGateway, "Upstream error", err.Error())
	}
}
