package restapi

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strconv"

	"github.com/paulmach/orb"
	"github.com/paulmach/osm"

	"gtfstoosm.onebusaway.org/internal/models"
	"gtfstoosm.onebusaway.org/internal/utils"
)

// NodeResponse is a map node as returned by the node endpoints.
type NodeResponse struct {
	ID       int64             `json:"id"`
	Lat      float64           `json:"lat"`
	Lon      float64           `json:"lon"`
	Version  int               `json:"version"`
	Tags     map[string]string `json:"tags"`
	Distance *float64          `json:"distance,omitempty"`
}

func newNodeResponse(n *osm.Node) NodeResponse {
	return NodeResponse{
		ID:      int64(n.ID),
		Lat:     n.Lat,
		Lon:     n.Lon,
		Version: n.Version,
		Tags:    n.Tags.Map(),
	}
}

// nodesNearHandler lists the candidate nodes the stop resolver would see
// for a stop at lat/lon.
func (api *RestAPI) nodesNearHandler(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	fieldErrors := make(map[string][]string)

	for _, key := range []string{"lat", "lon"} {
		if !params.Has(key) {
			fieldErrors[key] = append(fieldErrors[key], "missing required field")
		}
	}
	lat := utils.ParseFloatParam(params, "lat", 0, fieldErrors)
	lon := utils.ParseFloatParam(params, "lon", 0, fieldErrors)
	radius := utils.ParseFloatParam(params, "radius", api.Config.Convert.StopSearchRadiusMeters, fieldErrors)
	if len(fieldErrors) > 0 {
		api.validationErrorResponse(w, r, fieldErrors)
		return
	}
	if fieldErrors := utils.ValidateLocationParams(lat, lon, radius); len(fieldErrors) > 0 {
		api.validationErrorResponse(w, r, fieldErrors)
		return
	}

	if api.Source == nil {
		api.errorResponse(w, http.StatusServiceUnavailable, "no node source configured")
		return
	}

	point := orb.Point{lon, lat}
	nodes, err := api.Source.NodesNear(r.Context(), point, utils.ClampRadius(radius))
	if err != nil {
		if errors.Is(err, context.Canceled) {
			api.errorResponse(w, http.StatusServiceUnavailable, "request cancelled")
			return
		}
		api.errorResponse(w, http.StatusBadGateway, "node source unavailable")
		return
	}

	list := make([]NodeResponse, 0, len(nodes))
	for _, n := range nodes {
		resp := newNodeResponse(n)
		d := utils.Distance(point, n.Point())
		resp.Distance = &d
		list = append(list, resp)
	}

	api.writeJSON(w, http.StatusOK, models.NewOKResponse(struct {
		List []NodeResponse `json:"list"`
	}{List: list}))
}

// nodeHandler returns one node from the imported extract.
func (api *RestAPI) nodeHandler(w http.ResponseWriter, r *http.Request) {
	if api.OSMDB == nil {
		api.errorResponse(w, http.StatusServiceUnavailable, "no OSM database configured")
		return
	}

	raw := utils.ExtractIDFromParams(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		api.validationErrorResponse(w, r, map[string][]string{"id": {"id must be a positive integer"}})
		return
	}

	node, err := api.OSMDB.Node(r.Context(), osm.NodeID(id))
	if errors.Is(err, sql.ErrNoRows) {
		api.sendNotFound(w, r)
		return
	}
	if err != nil {
		api.serverErrorResponse(w, r, err)
		return
	}

	api.writeJSON(w, http.StatusOK, models.NewOKResponse(newNodeResponse(node)))
}
