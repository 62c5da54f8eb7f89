package httperrors

import (
	"errors"
	"net/http"

	"github.com/yourname/ufs/internal/models"
)

// Status returns the response code for an upload error.
func Status(err error) int {
	switch {
	case errors.Is(err, models.ErrMethodNotAllow):
		return http.StatusMethodNotAllowed
	case errors.Is(err, models.ErrBadMultipart),
		errors.Is(err, models.ErrMissingField),
		errors.Is(err, models.ErrMissingName),
		errors.Is(err, models.ErrEmptyField),
		errors.Is(err, models.ErrInvalidPath):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Write отдаёт ошибку клиенту с кодом по Status. Детали внутренних ошибок не раскрываются.
func Write(w http.ResponseWriter, err error) {
	code := Status(err)
	if code == http.StatusInternalServerError {
		http.Error(w, "store failed", code)
		return
	}
	http.Error(w, err.Error(), code)
}
