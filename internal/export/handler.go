package export

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"path/filepath"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/inamate/infomap/internal/document"
	"github.com/inamate/infomap/internal/project"
)

// Source yields a snapshot of a project that the caller may keep.
type Source interface {
	Snapshot(name string) (*document.Project, error)
}

type Handler struct {
	source    Source
	store     *project.Store
	outputDir string
}

// NewHandler serves exports of projects from source. Files written by the
// export endpoint go to <outputDir>/<project>/index.html.
func NewHandler(source Source, store *project.Store, outputDir string) *Handler {
	return &Handler{source: source, store: store, outputDir: outputDir}
}

func (h *Handler) Routes(r *mux.Router) {
	r.HandleFunc("/projects/{name}/export.html", h.Page).Methods("GET")
	r.HandleFunc("/projects/{name}/export", h.Export).Methods("POST")
	r.HandleFunc("/projects/{name}/preview.png", h.Preview).Methods("GET")
}

// Page returns the exported page with image sources pointing at the API.
func (h *Handler) Page(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	doc, err := h.source.Snapshot(name)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	page, err := RenderHTML(doc, Options{ImageBase: "/api/projects/" + url.PathEscape(name) + "/images/"})
	if err != nil {
		handleServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(page))
}

func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	doc, err := h.source.Snapshot(name)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	out := filepath.Join(h.outputDir, name, "index.html")
	if err := ExportHTML(doc, h.store.ImagesDir(name), out); err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"path": out})
}

func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	doc, err := h.source.Snapshot(name)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	opts := PreviewOptions{ShowAll: r.URL.Query().Get("all") == "true"}
	if v := r.URL.Query().Get("width"); v != "" {
		width, err := strconv.Atoi(v)
		if err != nil || width <= 0 || width > 8192 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid width"})
			return
		}
		opts.Width = width
	}

	var buf bytes.Buffer
	if err := WritePreviewPNG(&buf, doc, h.store.ImagesDir(name), opts); err != nil {
		handleServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

func handleServiceError(w http.ResponseWriter, err error) {
	status := project.StatusOf(err)
	if status == http.StatusInternalServerError {
		slog.Error("export failed", "error", err)
		msg := "internal error"
		if errors.Is(err, ErrCreateDir) || errors.Is(err, ErrWrite) {
			msg = fmt.Sprint(err)
		}
		writeJSON(w, status, map[string]string{"error": msg})
		return
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
