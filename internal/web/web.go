// Package web serves the static map page.
//
// The page is a single embedded index.html that draws markers with Leaflet and talks to the JSON API
// served by internal/server:
//
//	GET    /api/markers          → marker list
//	GET    /api/viewport         → centre and zoom that frame every marker
//	POST   /api/ask              → question answered by the language model
//	POST   /api/extract          → places pulled out of pasted text
//	POST   /api/search           → single place search
//	POST   /api/markers          → marker from a map click (lat, lng)
//	DELETE /api/markers/{id}     → remove one marker
//	GET    /api/lists            → saved lists
//	POST   /api/lists            → save the current markers
//	POST   /api/lists/{name}/load → replace the markers with a saved list
//
// Tile rendering is left to the browser library.
package web

import (
	"bytes"
	"embed"
	"io/fs"
	"net/http"
	"time"
)

//go:embed static/index.html
var staticFiles embed.FS

// Index returns the embedded page.
func Index() []byte {
	data, err := fs.ReadFile(staticFiles, "static/index.html")
	if err != nil {
		panic("web: embedded index.html missing: " + err.Error())
	}
	return data
}

// Page serves the embedded index page on "/" and "/index.html".
type Page struct {
	body    []byte
	modTime time.Time
}

// Handler returns the page handler.
func Handler() *Page {
	return &Page{body: Index(), modTime: time.Now()}
}

// Routes returns the paths the page is served on.
func (p *Page) Routes() []string {
	return []string{"/{$}", "/index.html"}
}

func (p *Page) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	http.ServeContent(w, r, "index.html", p.modTime, bytes.NewReader(p.body))
}
