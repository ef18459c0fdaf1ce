// Package v1 holds what the version 1 controllers share.
package v1

import (
	"net/http"

	"github.com/pkg/errors"

	"smartattendance/backend/foundation/web"
	"smartattendance/backend/internal/entity"
	"smartattendance/backend/internal/repository"
	"smartattendance/backend/internal/service/engine"
	"smartattendance/backend/internal/service/plate"
)

// RequestError attaches the HTTP status of a domain error. Engine errors
// win over a status set by a repository; unknown errors pass through.
func RequestError(err error) error {
	var webErr *web.Error
	switch {
	case err == nil:
		return nil
	case errors.Is(err, engine.ErrMalformedInput), errors.Is(err, entity.ErrInvalidModality):
		return web.NewRequestError(err, http.StatusBadRequest)
	case errors.Is(err, engine.ErrStoreUnavailable):
		return web.NewRequestError(err, http.StatusServiceUnavailable)
	case errors.Is(err, plate.ErrRecognition):
		return web.NewRequestError(err, http.StatusBadGateway)
	case errors.As(err, &webErr):
		return err
	case errors.Is(err, repository.ErrNotFound):
		return web.NewRequestError(err, http.StatusNotFound)
	}
	return err
}
