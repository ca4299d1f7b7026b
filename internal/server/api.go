package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/pinmap/internal/formatter"
	"github.com/desertthunder/pinmap/internal/geo"
	"github.com/desertthunder/pinmap/internal/models"
	"github.com/desertthunder/pinmap/internal/shared"
	"github.com/desertthunder/pinmap/internal/store"
	"github.com/desertthunder/pinmap/internal/tasks"
)

// Options configures the JSON API.
type Options struct {
	Store    *store.MarkerStore
	Pipeline *tasks.Pipeline
	Map      shared.MapConfig
	Server   shared.ServerConfig
	Static   Handler // serves the page routes it reports when set
	Logger   *log.Logger
}

// API exposes the marker store and the resolution pipeline over HTTP.
type API struct {
	store    *store.MarkerStore
	pipeline *tasks.Pipeline
	mapCfg   shared.MapConfig
	server   shared.ServerConfig
	logger   *log.Logger
	now      func() time.Time
}

// NewAPI creates the API handlers.
func NewAPI(opts Options) *API {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	return &API{
		store:    opts.Store,
		pipeline: opts.Pipeline,
		mapCfg:   opts.Map,
		server:   opts.Server,
		logger:   opts.Logger,
		now:      time.Now,
	}
}

// NewHandler builds the router with the middleware stack and every API route.
func NewHandler(opts Options) http.Handler {
	api := NewAPI(opts)

	r := NewBasicRouter()
	r.Use(RequestID(), Logging(api.logger), Recover(), CORS(opts.Server.AllowedOrigins))
	api.Routes(r)

	if opts.Static != nil {
		r.Handler(opts.Static)
	}
	return r
}

// NewServer creates an [http.Server] for handler on the configured address.
func NewServer(cfg shared.ServerConfig, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
}

// Routes registers every endpoint on r.
func (a *API) Routes(r Router) {
	r.HandleFunc(http.MethodGet, "/health", a.health)

	r.HandleFunc(http.MethodGet, "/api/markers", a.listMarkers)
	r.HandleFunc(http.MethodPost, "/api/markers", a.addMarker)
	r.HandleFunc(http.MethodDelete, "/api/markers", a.clearMarkers)
	r.HandleFunc(http.MethodDelete, "/api/markers/{id}", a.removeMarker)

	r.HandleFunc(http.MethodPost, "/api/ask", a.ask)
	r.HandleFunc(http.MethodPost, "/api/extract", a.extract)
	r.HandleFunc(http.MethodPost, "/api/search", a.search)
	r.HandleFunc(http.MethodPost, "/api/inbound", a.inbound)

	r.HandleFunc(http.MethodGet, "/api/lists", a.listLists)
	r.HandleFunc(http.MethodPost, "/api/lists", a.saveList)
	r.HandleFunc(http.MethodGet, "/api/lists/{name}", a.getList)
	r.HandleFunc(http.MethodDelete, "/api/lists/{name}", a.deleteList)
	r.HandleFunc(http.MethodPost, "/api/lists/{name}/load", a.loadList)
	r.HandleFunc(http.MethodGet, "/api/lists/{name}/export", a.exportList)

	r.HandleFunc(http.MethodGet, "/api/viewport", a.viewport)
	r.HandleFunc(http.MethodGet, "/api/export", a.exportMarkers)
}

type failedView struct {
	Query string `json:"query"`
	Error string `json:"error"`
}

// RunView is the JSON form of a pipeline run.
type RunView struct {
	Added      []models.Marker `json:"added"`
	Unresolved []string        `json:"unresolved"`
	Failed     []failedView    `json:"failed"`
	Total      int             `json:"total"`
	Notice     string          `json:"notice,omitempty"`
}

// NewRunView converts a pipeline result for JSON output.
func NewRunView(r *tasks.RunResult) RunView {
	v := RunView{
		Added:      r.Added,
		Unresolved: r.Unresolved,
		Failed:     make([]failedView, 0, len(r.Failed)),
		Total:      r.Total,
		Notice:     r.Notice(),
	}
	for _, f := range r.Failed {
		v.Failed = append(v.Failed, failedView{Query: f.Query, Error: shared.UserMessage(f.Err)})
	}
	return v
}

func (a *API) health(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]any{"status": "ok", "markers": a.store.Len()})
}

func (a *API) listMarkers(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]any{"markers": a.store.Markers()})
}

type addMarkerRequest struct {
	Lat   *float64 `json:"lat"`
	Lng   *float64 `json:"lng"`
	Query string   `json:"query"`
}

// addMarker places a marker either by free-text query or by coordinates.
func (a *API) addMarker(w http.ResponseWriter, r *http.Request) {
	var req addMarkerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, r, err)
		return
	}

	if req.Query != "" {
		result, err := a.pipeline.Run(r.Context(), []string{req.Query}, nil)
		switch {
		case err != nil:
			WriteError(w, r, err)
		case len(result.Added) == 1:
			WriteJSON(w, http.StatusCreated, result.Added[0])
		case len(result.Failed) == 1:
			WriteError(w, r, result.Failed[0].Err)
		default:
			WriteError(w, r, fmt.Errorf("%w: no place matches %q", shared.ErrNotFound, req.Query))
		}
		return
	}

	if req.Lat == nil || req.Lng == nil {
		WriteError(w, r, fmt.Errorf("%w: either query or lat and lng are required", shared.ErrMissingArgument))
		return
	}
	coords := models.Coordinates{Lat: *req.Lat, Lng: *req.Lng}
	if err := coords.Validate(); err != nil {
		WriteError(w, r, err)
		return
	}

	m, err := a.pipeline.AddPoint(r.Context(), coords)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, m)
}

func (a *API) removeMarker(w http.ResponseWriter, r *http.Request) {
	if err := a.store.Remove(r.PathValue("id")); err != nil {
		WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) clearMarkers(w http.ResponseWriter, r *http.Request) {
	if err := a.store.Clear(); err != nil {
		WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type askRequest struct {
	Question string `json:"question"`
}

func (a *API) ask(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, r, err)
		return
	}
	a.writeRun(w, r)(a.pipeline.Ask(r.Context(), req.Question, nil))
}

type extractRequest struct {
	Text string `json:"text"`
}

func (a *API) extract(w http.ResponseWriter, r *http.Request) {
	var req extractRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, r, err)
		return
	}
	a.writeRun(w, r)(a.pipeline.ExtractAndRun(r.Context(), req.Text, nil))
}

type searchRequest struct {
	Query string `json:"query"`
}

func (a *API) search(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, r, err)
		return
	}
	if req.Query == "" {
		WriteError(w, r, fmt.Errorf("%w: query is required", shared.ErrMissingArgument))
		return
	}
	a.writeRun(w, r)(a.pipeline.Run(r.Context(), []string{req.Query}, nil))
}

// writeRun returns a sink for a pipeline call's results.
func (a *API) writeRun(w http.ResponseWriter, r *http.Request) func(*tasks.RunResult, error) {
	return func(result *tasks.RunResult, err error) {
		if err != nil {
			WriteError(w, r, err)
			return
		}
		WriteJSON(w, http.StatusOK, NewRunView(result))
	}
}

func (a *API) listLists(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]any{"lists": a.store.Lists()})
}

type saveListRequest struct {
	Name string `json:"name"`
}

func (a *API) saveList(w http.ResponseWriter, r *http.Request) {
	var req saveListRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, r, err)
		return
	}

	list, err := a.store.SaveAsList(req.Name)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, list.Summary())
}

func (a *API) getList(w http.ResponseWriter, r *http.Request) {
	list, err := a.store.List(r.PathValue("name"))
	if err != nil {
		WriteError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, list)
}

func (a *API) loadList(w http.ResponseWriter, r *http.Request) {
	markers, err := a.store.LoadList(r.PathValue("name"))
	if err != nil {
		WriteError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"markers": markers})
}

func (a *API) deleteList(w http.ResponseWriter, r *http.Request) {
	if err := a.store.DeleteList(r.PathValue("name")); err != nil {
		WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) viewport(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, geo.Fit(a.store.Markers(), a.mapCfg))
}

func (a *API) exportMarkers(w http.ResponseWriter, r *http.Request) {
	a.writeExport(w, r, models.NewPlaceList("markers", a.store.Markers(), a.now()))
}

func (a *API) exportList(w http.ResponseWriter, r *http.Request) {
	list, err := a.store.List(r.PathValue("name"))
	if err != nil {
		WriteError(w, r, err)
		return
	}
	a.writeExport(w, r, list)
}

var exportContentTypes = map[string]string{
	formatter.FormatJSON:     "application/json",
	formatter.FormatCSV:      "text/csv; charset=utf-8",
	formatter.FormatMarkdown: "text/markdown; charset=utf-8",
	formatter.FormatText:     "text/plain; charset=utf-8",
	formatter.FormatGeoJSON:  "application/geo+json",
}

// writeExport renders list in the ?format= query parameter, defaulting to GeoJSON.
func (a *API) writeExport(w http.ResponseWriter, r *http.Request, list *models.PlaceList) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = formatter.FormatGeoJSON
	}

	data, err := formatter.Render(list, format)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", exportContentTypes[format])
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", formatter.Slug(list.Name)+formatter.Extension(format)))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
