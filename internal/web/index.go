package web

import (
	_ "embed"
	"html/template"
	"log/slog"
	"net/http"

	"sysmon/internal/netx"
)

//go:embed index.html.tmpl
var indexTemplate string

var indexTmpl = template.Must(template.New("index").Parse(indexTemplate))

// PageInfo carries the static identity rendered into the dashboard
// page. It is built once at startup from the construction-time probes;
// live values arrive through /data polling.
type PageInfo struct {
	Hostname       string
	CPUName        string
	PhysicalCores  int
	LogicalCores   int
	IntelName      string
	IntelPresent   bool
	NvidiaName     string
	NvidiaPresent  bool
	RefreshSeconds int
}

// StartIndex registers the dashboard page route with the given mux
func StartIndex(mux *http.ServeMux, info PageInfo) {
	mux.HandleFunc("/", handleIndex(info))
}

// handleIndex serves the rendered dashboard page
func handleIndex(info PageInfo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			netx.WriteMethodNotAllowed(w)
			return
		}
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := indexTmpl.Execute(w, info); err != nil {
			slog.Error("failed to render index page", "error", err)
		}
	}
}
