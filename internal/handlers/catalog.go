package handlers

import (
	"errors"
	"net/http"
	"path/filepath"

	"media-catalog/internal/catalog"
	"media-catalog/internal/logging"
	"media-catalog/internal/storage"
)

// FolderResponse is a folder with its asset count.
type FolderResponse struct {
	catalog.Folder
	AssetCount int `json:"assetCount"`
}

// ListFolders returns all catalogued folders in discovery order.
func (h *Handlers) ListFolders(w http.ResponseWriter, _ *http.Request) {
	folders := h.store.GetFolders()
	response := make([]FolderResponse, len(folders))
	for i, f := range folders {
		response[i] = FolderResponse{
			Folder:     f,
			AssetCount: len(h.store.GetAssetsByFolderID(f.ID)),
		}
	}
	writeJSONResponse(w, http.StatusOK, response)
}

// ListAssets returns the assets of the folder given by the path query
// parameter, or every asset when path is empty.
func (h *Handlers) ListAssets(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		writeJSONResponse(w, http.StatusOK, h.store.GetAllAssets())
		return
	}
	if !filepath.IsAbs(path) {
		writeJSONError(w, "path must be absolute", http.StatusBadRequest)
		return
	}
	if h.store.GetFolderByPath(path) == nil {
		writeJSONError(w, "folder not found", http.StatusNotFound)
		return
	}
	writeJSONResponse(w, http.StatusOK, h.store.GetAssetsByPath(path))
}

// GetThumbnail serves the stored JPEG thumbnail of one asset.
func (h *Handlers) GetThumbnail(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	name := r.URL.Query().Get("name")
	if path == "" || name == "" {
		writeJSONError(w, "path and name are required", http.StatusBadRequest)
		return
	}

	folder := h.store.GetFolderByPath(path)
	if folder == nil {
		writeJSONError(w, "folder not found", http.StatusNotFound)
		return
	}

	data, ok, err := h.store.GetThumbnail(folder.ID, name)
	if err != nil {
		if errors.Is(err, storage.ErrFolderNotFound) {
			writeJSONError(w, "folder not found", http.StatusNotFound)
			return
		}
		logging.Error("Failed to read thumbnail %s/%s: %v", path, name, err)
		writeJSONError(w, "failed to read thumbnail", http.StatusInternalServerError)
		return
	}
	if !ok {
		writeJSONError(w, "thumbnail not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "private, max-age=300")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		logging.Debug("Failed to write thumbnail response: %v", err)
	}
}
