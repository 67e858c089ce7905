package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"eventgate/internal/domain/event"
	"eventgate/internal/ports"
	"eventgate/internal/usecase/engagement"
)

type submitRequest struct {
	Responses map[string]string `json:"responses" validate:"required,dive,keys,numeric,endkeys,max=4096"`
}

type remindRequest struct {
	Participants []uint64 `json:"participants" validate:"omitempty,dive,gt=0"`
	BatchID      string   `json:"batch_id" validate:"omitempty,max=64"`
}

type inputFieldResponse struct {
	InputID         uint64  `json:"input_id"`
	Label           string  `json:"label"`
	FieldType       string  `json:"field_type"`
	DefaultValue    *string `json:"default_value,omitempty"`
	ValidationRules string  `json:"validation_rules"`
}

type participantResponse struct {
	ParticipantID uint64 `json:"participant_id"`
	EventID       uint64 `json:"event_id"`
	UserID        uint64 `json:"user_id"`
}

func (h *handler) eligibility(w http.ResponseWriter, r *http.Request) {
	identity, eventID, ok := h.common(w, r)
	if !ok {
		return
	}

	var userID uint64
	if raw := strings.TrimSpace(r.URL.Query().Get("user_id")); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			writeError(r.Context(), w, &event.ValidationError{Fields: map[string][]event.Violation{
				"user_id": {{Kind: event.ViolationTypeMismatch, Detail: "must be a positive integer"}},
			}})
			return
		}
		userID = parsed
	}

	result, err := h.svc.EvaluateEligibility(r.Context(), identity, eventID, userID)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *handler) join(w http.ResponseWriter, r *http.Request) {
	identity, eventID, ok := h.common(w, r)
	if !ok {
		return
	}

	participant, err := h.svc.JoinEvent(r.Context(), identity, eventID)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusCreated, participantResponse{
		ParticipantID: participant.ParticipantID,
		EventID:       participant.EventID,
		UserID:        participant.UserID,
	})
}

func (h *handler) inputs(w http.ResponseWriter, r *http.Request) {
	_, eventID, ok := h.common(w, r)
	if !ok {
		return
	}

	fields, err := h.svc.ListInputFields(r.Context(), eventID)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	out := make([]inputFieldResponse, 0, len(fields))
	for _, f := range fields {
		out = append(out, inputFieldResponse{
			InputID:         f.InputID,
			Label:           f.Label,
			FieldType:       f.FieldType,
			DefaultValue:    f.DefaultValue,
			ValidationRules: f.ValidationRules,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *handler) submit(w http.ResponseWriter, r *http.Request) {
	identity, eventID, ok := h.common(w, r)
	if !ok {
		return
	}

	var req submitRequest
	if !h.decode(w, r, &req, false) {
		return
	}

	receipt, err := h.svc.ValidateAndSubmit(r.Context(), identity, eventID, req.Responses)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusCreated, receipt)
}

func (h *handler) statistics(w http.ResponseWriter, r *http.Request) {
	identity, eventID, ok := h.common(w, r)
	if !ok {
		return
	}

	payload, err := h.svc.GetStatistics(r.Context(), identity, eventID)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, payload)
}

func (h *handler) reminders(w http.ResponseWriter, r *http.Request) {
	identity, eventID, ok := h.common(w, r)
	if !ok {
		return
	}

	var req remindRequest
	if !h.decode(w, r, &req, true) {
		return
	}

	records, err := h.svc.DispatchReminders(r.Context(), identity, engagement.DispatchInput{
		EventID:        eventID,
		ParticipantIDs: req.Participants,
		BatchID:        req.BatchID,
	})
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	if records == nil {
		records = []ports.Reminder{}
	}
	writeJSON(w, http.StatusCreated, records)
}

func (h *handler) common(w http.ResponseWriter, r *http.Request) (ports.Identity, uint64, bool) {
	if h.svc == nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "engine service is not configured", Kind: "internal"})
		return ports.Identity{}, 0, false
	}
	identity, err := identityFrom(r)
	if err != nil {
		writeError(r.Context(), w, err)
		return ports.Identity{}, 0, false
	}
	eventID, err := pathID(r, "eventID")
	if err != nil {
		writeError(r.Context(), w, err)
		return ports.Identity{}, 0, false
	}
	return identity, eventID, true
}

// decode reads a JSON body into dst and runs its validate tags. Failures are
// written as validation errors. With emptyOK an absent body leaves dst zero.
func (h *handler) decode(w http.ResponseWriter, r *http.Request, dst any, emptyOK bool) bool {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		if emptyOK && errors.Is(err, io.EOF) {
			return true
		}
		writeError(r.Context(), w, &event.ValidationError{Fields: map[string][]event.Violation{
			"body": {{Kind: event.ViolationTypeMismatch, Detail: err.Error()}},
		}})
		return false
	}

	if err := h.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			writeError(r.Context(), w, err)
			return false
		}
		fields := make(map[string][]event.Violation, len(verrs))
		for _, fe := range verrs {
			key := strings.ToLower(fe.Field())
			fields[key] = append(fields[key], event.Violation{Kind: violationForTag(fe.Tag()), Detail: fe.Error()})
		}
		writeError(r.Context(), w, &event.ValidationError{Fields: fields})
		return false
	}
	return true
}

func violationForTag(tag string) event.ViolationKind {
	switch tag {
	case "required":
		return event.ViolationMissingRequired
	case "gt", "min":
		return event.ViolationBelowMin
	case "max":
		return event.ViolationAboveMax
	default:
		return event.ViolationTypeMismatch
	}
}
