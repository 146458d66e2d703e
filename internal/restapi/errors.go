package restapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"gtfstoosm.onebusaway.org/internal/convert"
	"gtfstoosm.onebusaway.org/internal/gtfs"
	"gtfstoosm.onebusaway.org/internal/logging"
	"gtfstoosm.onebusaway.org/internal/models"
)

func writeJSONResponse(w http.ResponseWriter, status int, body any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(body)
}

func (api *RestAPI) writeJSON(w http.ResponseWriter, status int, body any) {
	if err := writeJSONResponse(w, status, body); err != nil {
		logging.LogError(api.Logger, "failed to encode response", err)
	}
}

func (api *RestAPI) errorResponse(w http.ResponseWriter, status int, text string) {
	api.writeJSON(w, status, models.NewResponse(status, nil, text))
}

// invalidAPIKeyResponse sends a 401 Unauthorized response.
func (api *RestAPI) invalidAPIKeyResponse(w http.ResponseWriter, r *http.Request) {
	api.errorResponse(w, http.StatusUnauthorized, "permission denied")
}

func (api *RestAPI) sendNotFound(w http.ResponseWriter, r *http.Request) {
	api.errorResponse(w, http.StatusNotFound, "resource not found")
}

func (api *RestAPI) serverErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	logging.LogError(api.Logger, "request failed", err)
	api.errorResponse(w, http.StatusInternalServerError, "internal server error")
}

// validationErrorResponse sends a 400 Bad Request response with field-specific validation errors
func (api *RestAPI) validationErrorResponse(w http.ResponseWriter, r *http.Request, fieldErrors map[string][]string) {
	api.writeJSON(w, http.StatusBadRequest, struct {
		FieldErrors map[string][]string `json:"fieldErrors"`
	}{
		FieldErrors: fieldErrors,
	})
}

// conversionErrorResponse maps a failed run to a status code: invalid
// options are 400, an unreadable feed 422, an unreachable node source 502.
func (api *RestAPI) conversionErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	var (
		cfgErr   *convert.ConfigurationError
		feedErr  *gtfs.FeedError
		srcErr   *convert.SourceUnavailableError
		bytesErr *http.MaxBytesError
	)
	switch {
	case errors.As(err, &cfgErr):
		field := cfgErr.Field
		if field == "" {
			field = "options"
		}
		api.validationErrorResponse(w, r, map[string][]string{field: {cfgErr.Err.Error()}})
	case errors.As(err, &bytesErr):
		api.errorResponse(w, http.StatusRequestEntityTooLarge, "feed archive too large")
	case errors.As(err, &feedErr):
		api.errorResponse(w, http.StatusUnprocessableEntity, feedErr.Error())
	case errors.As(err, &srcErr):
		logging.LogError(api.Logger, "node source unavailable", err)
		api.errorResponse(w, http.StatusBadGateway, srcErr.Error())
	case r.Context().Err() != nil && errors.Is(err, r.Context().Err()):
		api.errorResponse(w, http.StatusServiceUnavailable, "request cancelled")
	default:
		api.serverErrorResponse(w, r, err)
	}
}
