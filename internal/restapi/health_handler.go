package restapi

import (
	"net/http"

	"gtfstoosm.onebusaway.org/internal/models"
)

type healthData struct {
	Status     string `json:"status"`
	NodeSource string `json:"nodeSource"`
}

func (api *RestAPI) healthHandler(w http.ResponseWriter, r *http.Request) {
	api.writeJSON(w, http.StatusOK, models.NewOKResponse(healthData{
		Status:     "ok",
		NodeSource: api.SourceName(),
	}))
}
