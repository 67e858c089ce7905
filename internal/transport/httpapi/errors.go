package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"eventgate/internal/bootstrap/logging"
	"eventgate/internal/domain/event"
	"eventgate/internal/errs"
)

type errorResponse struct {
	Error       string                       `json:"error"`
	Kind        string                       `json:"kind"`
	Fields      map[string][]event.Violation `json:"fields,omitempty"`
	FailedRules []event.FailedRule           `json:"failed_rules,omitempty"`
}

var statusByKind = map[errs.Kind]int{
	event.KindValidation:             http.StatusUnprocessableEntity,
	event.KindEligibility:            http.StatusForbidden,
	event.KindAuthorization:          http.StatusForbidden,
	event.KindNotFound:               http.StatusNotFound,
	event.KindDuplicateSubmission:    http.StatusConflict,
	event.KindDuplicateParticipation: http.StatusConflict,
	event.KindDeadlinePassed:         http.StatusConflict,
	event.KindUnknownRule:            http.StatusUnprocessableEntity,
	event.KindStorage:                http.StatusInternalServerError,
}

// StatusFor maps an error kind to its HTTP status.
func StatusFor(err error) int {
	if status, ok := statusByKind[errs.KindOf(err)]; ok {
		return status
	}
	return http.StatusInternalServerError
}

func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	kind := errs.KindOf(err)
	status := StatusFor(err)
	resp := errorResponse{Error: err.Error(), Kind: string(kind)}

	var verr *event.ValidationError
	if errors.As(err, &verr) {
		resp.Fields = verr.Fields
	}
	var eerr *event.EligibilityError
	if errors.As(err, &eerr) {
		resp.FailedRules = eerr.FailedRules
	}
	if status >= http.StatusInternalServerError {
		logging.Error(ctx, "request failed", slog.Any("err", errs.Loggable(err)))
		if kind == errs.KindInternal {
			resp.Error = "internal error"
		}
	}

	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}
