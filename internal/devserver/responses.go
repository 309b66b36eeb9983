package devserver

import (
	"context"
	"encoding/json"
	"net/http"

	pkgerrors "github.com/threadlane/storefront-go/pkg/errors"
)

func statusFor(code pkgerrors.Code) int {
	switch code {
	case pkgerrors.CodeValidation:
		return http.StatusBadRequest
	case pkgerrors.CodeUnauthorized:
		return http.StatusUnauthorized
	case pkgerrors.CodeForbidden:
		return http.StatusForbidden
	case pkgerrors.CodeNotFound:
		return http.StatusNotFound
	case pkgerrors.CodeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}

// writeError emits the platform's error contract: a status code and a
// {"message": ...} body.
func (s *Server) writeError(ctx context.Context, w http.ResponseWriter, err error) {
	typed := pkgerrors.As(err)
	if typed == nil {
		typed = pkgerrors.Wrap(pkgerrors.CodeInternal, err, "internal error")
	}
	status := statusFor(typed.Code())
	if status >= http.StatusInternalServerError && s.logg != nil {
		s.logg.Error(ctx, "request failed", err)
	}
	s.writeJSON(w, status, map[string]string{"message": typed.Message()})
}

func (s *Server) decodeBody(r *http.Request, out any) error {
	defer func() { _ = r.Body.Close() }()
	if err := json.NewDecoder(r.Body).Decode(out); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid request body")
	}
	return nil
}
