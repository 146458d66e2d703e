package webui

import (
	"net/http"

	"github.com/julienschmidt/httprouter"

	"gtfstoosm.onebusaway.org/internal/app"
)

// WebUI serves the debug pages. They are only mounted outside production.
type WebUI struct {
	*app.Application
}

func (webUI *WebUI) SetWebUIRoutes(router *httprouter.Router) {
	router.HandlerFunc(http.MethodGet, "/debug/", webUI.debugIndexHandler)
}
