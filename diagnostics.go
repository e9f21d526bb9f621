package vatrace

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
)

// EntryReport is the serializable view of a ResolvedEntry.
type EntryReport struct {
	Name    string `json:"name" yaml:"name"`
	Version string `json:"version,omitempty" yaml:"version,omitempty"`
	State   string `json:"state" yaml:"state"`
	Error   string `json:"error,omitempty" yaml:"error,omitempty"`
}

// NewEntryReport converts e for output.
func NewEntryReport(e ResolvedEntry) EntryReport {
	r := EntryReport{
		Name:    e.EntryPoint.Name,
		Version: e.EntryPoint.Version,
		State:   e.State.String(),
	}
	if e.Err != nil {
		r.Error = e.Err.Error()
	}
	return r
}

type entryPointsResponse struct {
	Calls       uint64        `json:"calls"`
	EntryPoints []EntryReport `json:"entry_points"`
}

// NewDiagnosticsHandler serves:
//
//	GET /metrics             Prometheus metrics
//	GET /entrypoints         resolution state of every entry point
//	GET /entrypoints/{name}  resolution state of one entry point
func NewDiagnosticsHandler(ip *Interposer, m *Metrics) http.Handler {
	r := mux.NewRouter()
	r.Handle("/metrics", m.Handler()).Methods("GET")
	r.HandleFunc("/entrypoints", func(w http.ResponseWriter, req *http.Request) {
		entries := ip.Registry().Entries()
		resp := entryPointsResponse{
			Calls:       ip.Calls(),
			EntryPoints: make([]EntryReport, 0, len(entries)),
		}
		for _, e := range entries {
			resp.EntryPoints = append(resp.EntryPoints, NewEntryReport(e))
		}
		writeJSON(w, http.StatusOK, resp)
	}).Methods("GET")
	r.HandleFunc("/entrypoints/{name}", func(w http.ResponseWriter, req *http.Request) {
		name := mux.Vars(req)["name"]
		e, ok := ip.Registry().Get(name)
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown entry point " + name})
			return
		}
		writeJSON(w, http.StatusOK, NewEntryReport(e))
	}).Methods("GET")
	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
