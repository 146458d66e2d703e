package restapi

import (
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"

	"gtfstoosm.onebusaway.org/internal/app"
	"gtfstoosm.onebusaway.org/internal/appconf"
	"gtfstoosm.onebusaway.org/internal/webui"
)

type RestAPI struct {
	*app.Application
	rateLimiter *RateLimitMiddleware
}

// NewRestAPI creates a new RestAPI instance with initialized rate limiter
func NewRestAPI(app *app.Application) *RestAPI {
	return &RestAPI{
		Application: app,
		rateLimiter: NewRateLimitMiddleware(app.Config.RateLimit, time.Second),
	}
}

func validateAPIKey(api *RestAPI, finalHandler http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if api.RequestHasInvalidAPIKey(r) {
			api.invalidAPIKeyResponse(w, r)
			return
		}
		finalHandler(w, r)
	})
}

// Routes returns the service's handler with all middleware applied.
func (api *RestAPI) Routes() http.Handler {
	router := httprouter.New()
	router.HandlerFunc(http.MethodGet, "/api/health", api.healthHandler)
	router.Handler(http.MethodPost, "/api/convert", api.rateLimiter.Handler(validateAPIKey(api, api.convertHandler)))
	router.Handler(http.MethodGet, "/api/nodes-near", api.rateLimiter.Handler(validateAPIKey(api, api.nodesNearHandler)))
	router.Handler(http.MethodGet, "/api/nodes/:id", api.rateLimiter.Handler(validateAPIKey(api, api.nodeHandler)))
	router.NotFound = http.HandlerFunc(api.sendNotFound)
	if api.Config.Env != appconf.Production {
		(&webui.WebUI{Application: api.Application}).SetWebUIRoutes(router)
	}

	var handler http.Handler = router
	handler = CompressionMiddleware(handler)
	handler = api.WithSecurityHeaders(handler)
	handler = NewRequestLoggingMiddleware(api.Logger)(handler)
	return handler
}

// Shutdown releases background resources.
func (api *RestAPI) Shutdown() {
	api.rateLimiter.Stop()
}
