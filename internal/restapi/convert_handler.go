package restapi

import (
	"io"
	"net/http"
	"net/url"

	"gtfstoosm.onebusaway.org/internal/convert"
	"gtfstoosm.onebusaway.org/internal/gtfs"
	"gtfstoosm.onebusaway.org/internal/logging"
	"gtfstoosm.onebusaway.org/internal/osmchange"
	"gtfstoosm.onebusaway.org/internal/utils"
)

// convertHandler converts the GTFS archive in the request body. The
// response is an osmChange document, or the run report with format=report.
func (api *RestAPI) convertHandler(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()

	format := params.Get("format")
	if format != "" && format != "osc" && format != "report" {
		api.validationErrorResponse(w, r, map[string][]string{"format": {`format must be "osc" or "report"`}})
		return
	}

	opts, fieldErrors := api.requestOptions(params)
	if len(fieldErrors) > 0 {
		api.validationErrorResponse(w, r, fieldErrors)
		return
	}
	// Reject bad options before reading a potentially large body.
	if err := opts.Validate(); err != nil {
		api.conversionErrorResponse(w, r, err)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, api.Config.MaxUploadBytes))
	if err != nil {
		api.conversionErrorResponse(w, r, err)
		return
	}
	if len(body) == 0 {
		api.validationErrorResponse(w, r, map[string][]string{"body": {"request body must be a GTFS zip archive"}})
		return
	}

	logger := logging.FromContext(r.Context())
	feed, err := gtfs.Parse(body, logger)
	if err != nil {
		api.conversionErrorResponse(w, r, err)
		return
	}

	doc, err := convert.Convert(r.Context(), feed, api.Source, opts, logger)
	if err != nil {
		api.conversionErrorResponse(w, r, err)
		return
	}

	w.Header().Set("X-Run-ID", doc.RunID)
	if format == "report" {
		w.Header().Set("Content-Type", "application/yaml")
		w.WriteHeader(http.StatusOK)
		if err := doc.Report.WriteYAML(w); err != nil {
			logging.LogError(logger, "failed to write report", err)
		}
		return
	}

	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(http.StatusOK)
	if err := osmchange.Write(w, doc); err != nil {
		logging.LogError(logger, "failed to write osmChange", err)
	}
}

// requestOptions starts from the configured options and applies the query
// parameters that are present.
func (api *RestAPI) requestOptions(params url.Values) (convert.Options, map[string][]string) {
	opts := api.Config.ConvertOptions()
	fieldErrors := make(map[string][]string)

	boolParams := map[string]*bool{
		"exclude_stops":       &opts.ExcludeStops,
		"exclude_routes":      &opts.ExcludeRoutes,
		"add_missing_stops":   &opts.AddMissingStops,
		"add_route_direction": &opts.AddRouteDirection,
	}
	for key, dst := range boolParams {
		if params.Has(key) {
			*dst = utils.ParseBoolParam(params, key, fieldErrors)
		}
	}

	if params.Has("stop_search_radius") {
		opts.StopSearchRadiusMeters = utils.ParseFloatParam(params, "stop_search_radius", opts.StopSearchRadiusMeters, fieldErrors)
	}
	if params.Has("route_types") {
		opts.RouteTypes = utils.ParseIntListParam(params, "route_types", fieldErrors)
	}
	if params.Has("agency_id") {
		opts.AgencyID = params.Get("agency_id")
		if err := utils.ValidateID(opts.AgencyID); err != nil {
			fieldErrors["agency_id"] = append(fieldErrors["agency_id"], err.Error())
		}
	}
	if params.Has("route_ref_pattern") {
		opts.RouteRefPattern = params.Get("route_ref_pattern")
	}
	if params.Has("relation_tags") {
		opts.RelationTags = utils.ParseTagString(params.Get("relation_tags"))
	}

	return opts, fieldErrors
}
