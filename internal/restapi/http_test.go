package restapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"gtfstoosm.onebusaway.org/internal/app"
	"gtfstoosm.onebusaway.org/internal/appconf"
	"gtfstoosm.onebusaway.org/internal/convert"
	"gtfstoosm.onebusaway.org/internal/logging"
	"gtfstoosm.onebusaway.org/osmdb"
)

const testExtract = `<?xml version="1.0" encoding="UTF-8"?>
<osm version="0.6" generator="test">
  <node id="10" lat="47.6062" lon="-122.3321" version="4">
    <tag k="highway" v="bus_stop"/>
    <tag k="name" v="First Ave"/>
  </node>
  <node id="11" lat="47.60625" lon="-122.3321" version="1">
    <tag k="public_transport" v="platform"/>
  </node>
  <node id="12" lat="47.6062" lon="-122.3322" version="1">
    <tag k="amenity" v="bench"/>
  </node>
</osm>`

func testConfig() appconf.Config {
	return appconf.Config{
		Env:            appconf.Test,
		ApiKeys:        []string{"test"},
		RateLimit:      100,
		MaxUploadBytes: 1 << 20,
		Convert:        convert.DefaultOptions(),
	}
}

// createTestApi builds a RestAPI without a node source. Pass a modifier to
// adjust the configuration first.
func createTestApi(t *testing.T, modify ...func(*appconf.Config)) *RestAPI {
	t.Helper()

	cfg := testConfig()
	for _, m := range modify {
		m(&cfg)
	}

	application, err := app.New(cfg, logging.NewStructuredLogger(io.Discard, slog.LevelError))
	require.NoError(t, err)
	t.Cleanup(func() { _ = application.Close() })

	api := NewRestAPI(application)
	t.Cleanup(api.Shutdown)
	return api
}

// createTestApiWithDB builds a RestAPI backed by an in-memory OSM database
// holding testExtract.
func createTestApiWithDB(t *testing.T) *RestAPI {
	t.Helper()

	api := createTestApi(t, func(c *appconf.Config) { c.OSMDBPath = ":memory:" })
	_, err := api.OSMDB.Import(context.Background(), strings.NewReader(testExtract), osmdb.FormatXML, "test")
	require.NoError(t, err)
	return api
}

func serveRequest(t *testing.T, api *RestAPI, method, target string, body []byte) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	rec := httptest.NewRecorder()
	api.Routes().ServeHTTP(rec, req)
	return rec
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("test response"))
	})
}
