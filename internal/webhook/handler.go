package webhook

import (
	"context"
	"log/slog"
	"net/http"
)

// Pipeline is the downstream consumer of parsed inbound events.
type Pipeline interface {
	ProcessEvent(ctx context.Context, ev Event) error
}

// Handler is the HTTP endpoint Mandrill posts inbound email batches to.
// HEAD requests answer the provider's endpoint-existence probe; POST
// requests carry events. A malformed attachments field inside an event is
// the normalizer's problem and never fails the request; only transport-level
// defects (bad signature, unparseable body) are rejected.
type Handler struct {
	verifier *Verifier
	pipeline Pipeline
	maxBody  int64
}

// NewHandler creates a webhook Handler. maxBody caps the request body size
// in bytes; zero means no cap.
func NewHandler(verifier *Verifier, pipeline Pipeline, maxBody int64) *Handler {
	return &Handler{
		verifier: verifier,
		pipeline: pipeline,
		maxBody:  maxBody,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodHead:
		// Mandrill probes the endpoint with HEAD before enabling it.
		w.WriteHeader(http.StatusOK)
	case http.MethodPost:
		h.handlePost(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) handlePost(w http.ResponseWriter, r *http.Request) {
	if h.maxBody > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBody)
	}

	if err := r.ParseForm(); err != nil {
		slog.Warn("failed to parse webhook form body", "error", err)
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	if err := h.verifier.Verify(r.PostForm, r.Header.Get("X-Mandrill-Signature")); err != nil {
		slog.Warn("rejected webhook request",
			"remote_addr", r.RemoteAddr,
			"error", err,
		)
		http.Error(w, "invalid signature", http.StatusUnauthorized)
		return
	}

	raw := r.PostForm.Get("mandrill_events")
	if raw == "" {
		http.Error(w, "missing mandrill_events field", http.StatusBadRequest)
		return
	}

	events, err := ParseEvents([]byte(raw))
	if err != nil {
		slog.Warn("failed to parse webhook events", "error", err)
		http.Error(w, "malformed events payload", http.StatusBadRequest)
		return
	}

	for _, ev := range events {
		if err := h.pipeline.ProcessEvent(r.Context(), ev); err != nil {
			// The batch is already accepted; a failing event is logged
			// and the rest of the batch still processed.
			slog.Error("failed to process inbound event",
				"event", ev.Kind,
				"from", ev.FromEmail(),
				"error", err,
			)
		}
	}

	w.WriteHeader(http.StatusOK)
}
