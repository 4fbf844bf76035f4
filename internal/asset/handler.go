package asset

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"path/filepath"

	"github.com/gorilla/mux"

	"github.com/inamate/infomap/internal/document"
	"github.com/inamate/infomap/internal/project"
)

// UploadResponse is returned from the upload endpoint. Image is ready to be
// placed with an add_image operation.
type UploadResponse struct {
	Image document.ImageConfig `json:"image"`
	URL   string               `json:"url"`
	Name  string               `json:"name"`
}

// Handler serves the images stored inside projects.
type Handler struct {
	store *project.Store
}

func NewHandler(store *project.Store) *Handler {
	return &Handler{store: store}
}

func (h *Handler) Routes(r *mux.Router) {
	r.HandleFunc("/projects/{name}/images", h.Upload).Methods("POST")
	r.HandleFunc("/projects/{name}/images/{file}", h.Serve).Methods("GET")
}

// Upload handles POST /projects/{name}/images (multipart form with "file" field).
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	r.Body = http.MaxBytesReader(w, r.Body, project.MaxImageBytes+1<<20)
	if err := r.ParseMultipartForm(project.MaxImageBytes); err != nil {
		http.Error(w, "file too large (max 32MB)", http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "missing file field", http.StatusBadRequest)
		return
	}
	defer file.Close()

	img, err := h.store.AddImage(name, header.Filename, file)
	if err != nil {
		status := project.StatusOf(err)
		if status == http.StatusInternalServerError {
			slog.Error("store image", "project", name, "error", err)
			http.Error(w, "failed to save file", status)
			return
		}
		http.Error(w, err.Error(), status)
		return
	}

	resp := UploadResponse{
		Image: img,
		URL:   "/api/projects/" + name + "/images/" + img.Path,
		Name:  header.Filename,
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(resp)
}

// Serve handles GET /projects/{name}/images/{file}.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := project.ValidateName(vars["name"]); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	file := filepath.Base(vars["file"])
	if file == "." || file == ".." {
		http.NotFound(w, r)
		return
	}
	// Files can be replaced by an upload of the same name after a delete.
	w.Header().Set("Cache-Control", "no-cache")
	http.ServeFile(w, r, h.store.ImagePath(vars["name"], file))
}
