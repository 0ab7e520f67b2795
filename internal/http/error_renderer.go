package httpx

import (
	"context"
	"errors"
	"net/http"

	"github.com/sakunasanka/Sona-frontend-admin-sub000/internal/credential"
	apperrors "github.com/sakunasanka/Sona-frontend-admin-sub000/internal/errors"
	"github.com/sakunasanka/Sona-frontend-admin-sub000/internal/ports"
	"github.com/sakunasanka/Sona-frontend-admin-sub000/internal/service"
)

const errMsgFixBelow = "Please fix the errors below."

// errorView is how a service error surfaces on a page: a status, a banner message and
// optional per-field messages.
type errorView struct {
	Status  int
	Message string
	Fields  map[string]string
}

// describeError maps service and backend errors to user-facing messages. Raw error
// text is never shown because backend messages can echo submitted values.
func describeError(err error) errorView {
	switch {
	case err == nil:
		return errorView{Status: http.StatusOK}
	case apperrors.IsValidation(err):
		v := errorView{Status: http.StatusBadRequest, Message: errMsgFixBelow}
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			if appErr.Field != "" {
				v.Fields = map[string]string{appErr.Field: appErr.Message}
			} else {
				v.Message = appErr.Message
			}
		}
		return v
	case errors.Is(err, ports.ErrInvalidCredentials):
		return errorView{Status: http.StatusUnauthorized, Message: "Invalid email or password."}
	case errors.Is(err, service.ErrUnverifiedToken), errors.Is(err, credential.ErrDecode):
		return errorView{
			Status:  http.StatusBadGateway,
			Message: "The sign-in service returned an unusable credential. Please contact support.",
		}
	case errors.Is(err, ports.ErrBackendUnauthorized):
		return errorView{Status: http.StatusUnauthorized, Message: "Your session is no longer accepted. Please sign in again."}
	case errors.Is(err, context.DeadlineExceeded), apperrors.IsTimeout(err):
		return errorView{Status: http.StatusGatewayTimeout, Message: "Request timed out. Please try again."}
	case errors.Is(err, context.Canceled):
		return errorView{Status: http.StatusServiceUnavailable, Message: "Request was canceled."}
	case apperrors.IsNotFound(err):
		return errorView{Status: http.StatusNotFound, Message: "The requested record was not found."}
	default:
		return errorView{
			Status:  http.StatusBadGateway,
			Message: "The counselling service is unavailable. Please try again shortly.",
		}
	}
}

func isBackendUnauthorized(err error) bool {
	return errors.Is(err, ports.ErrBackendUnauthorized)
}
