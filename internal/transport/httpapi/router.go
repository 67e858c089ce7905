package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"eventgate/internal/bootstrap/logging"
	"eventgate/internal/domain/event"
	"eventgate/internal/ports"
	"eventgate/internal/usecase/engagement"
)

// IdentityHeader carries the caller's user id, set by the fronting gateway.
const IdentityHeader = "X-User-ID"

// EngineService is the part of the engagement service exposed over HTTP.
type EngineService interface {
	EvaluateEligibility(ctx context.Context, identity ports.Identity, eventID uint64, userID uint64) (engagement.EligibilityResult, error)
	JoinEvent(ctx context.Context, identity ports.Identity, eventID uint64) (ports.Participant, error)
	ListInputFields(ctx context.Context, eventID uint64) ([]ports.InputField, error)
	ValidateAndSubmit(ctx context.Context, identity ports.Identity, eventID uint64, responses map[string]string) (engagement.SubmissionReceipt, error)
	GetStatistics(ctx context.Context, identity ports.Identity, eventID uint64) (engagement.StatisticsPayload, error)
	DispatchReminders(ctx context.Context, identity ports.Identity, input engagement.DispatchInput) ([]ports.Reminder, error)
}

type handler struct {
	svc      EngineService
	validate *validator.Validate
	baseCtx  context.Context
}

// NewRouter builds the engine's HTTP routes. Log attributes carried by baseCtx
// are attached to every request.
func NewRouter(baseCtx context.Context, svc EngineService) http.Handler {
	if baseCtx == nil {
		baseCtx = context.Background()
	}
	h := &handler{
		svc:      svc,
		validate: validator.New(),
		baseCtx:  logging.WithAttrs(baseCtx, slog.String("component", "transport.httpapi")),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(h.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/events/{eventID}", func(r chi.Router) {
		r.Get("/eligibility", h.eligibility)
		r.Post("/participants", h.join)
		r.Get("/inputs", h.inputs)
		r.Post("/submissions", h.submit)
		r.Get("/statistics", h.statistics)
		r.Post("/reminders", h.reminders)
	})
	return r
}

// requestLogger moves the request id and base log attributes into the
// request context and logs one line per request.
func (h *handler) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ctx := logging.WithLogger(r.Context(), logging.Logger(h.baseCtx))
		ctx = logging.WithAttrs(ctx, logging.Attrs(h.baseCtx)...)
		ctx = logging.WithRequestID(ctx, middleware.GetReqID(r.Context()))

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r.WithContext(ctx))

		logging.Info(ctx, "http request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", ww.Status()),
			slog.Duration("duration", time.Since(start)),
		)
	})
}

func identityFrom(r *http.Request) (ports.Identity, error) {
	raw := strings.TrimSpace(r.Header.Get(IdentityHeader))
	if raw == "" {
		return ports.Identity{}, nil
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return ports.Identity{}, &event.ValidationError{Fields: map[string][]event.Violation{
			IdentityHeader: {{Kind: event.ViolationTypeMismatch, Detail: "user id must be a positive integer"}},
		}}
	}
	return ports.Identity{UserID: id}, nil
}

func pathID(r *http.Request, name string) (uint64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, &event.ValidationError{Fields: map[string][]event.Violation{
			name: {{Kind: event.ViolationTypeMismatch, Detail: "must be a positive integer"}},
		}}
	}
	return id, nil
}
