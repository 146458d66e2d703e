package webui

import (
	"embed"
	"html/template"
	"net/http"

	"github.com/davecgh/go-spew/spew"
)

//go:embed debug_index.html
var templateFS embed.FS

var debugTemplate = template.Must(template.ParseFS(templateFS, "debug_index.html"))

type debugData struct {
	Title string
	Pre   string
}

func writeDebugData(w http.ResponseWriter, title string, data interface{}) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err := debugTemplate.Execute(w, debugData{
		Title: title,
		Pre:   spew.Sdump(data),
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (webUI *WebUI) debugIndexHandler(w http.ResponseWriter, r *http.Request) {
	dataType := r.URL.Query().Get("dataType")

	var data interface{}
	var title string

	switch dataType {
	case "config":
		cfg := webUI.Config
		cfg.ApiKeys = nil
		data = cfg
		title = "Configuration"
	case "source":
		data = map[string]string{"nodeSource": webUI.SourceName()}
		title = "Node Source"
	case "tables":
		if webUI.OSMDB == nil {
			data = map[string]string{"error": "no OSM database configured"}
		} else {
			counts, err := webUI.OSMDB.TableCounts(r.Context())
			if err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			data = counts
		}
		title = "OSM Database - Table Counts"
	default:
		data = map[string]string{
			"error": "Please use one of the following: config, source, tables.",
		}
		title = "Choose a data type"
	}

	writeDebugData(w, title, data)
}
