package api

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/erazemk/zaloga/internal/imaging"
	"github.com/erazemk/zaloga/internal/ledger"
	"github.com/erazemk/zaloga/internal/model"
	"github.com/erazemk/zaloga/internal/storage"
	"github.com/erazemk/zaloga/internal/store"
)

// ItemsHandler handles catalog CRUD and item photos.
type ItemsHandler struct {
	DB         *sql.DB
	Ledger     *ledger.Service
	Objects    storage.ObjectStore
	PresignTTL time.Duration
}

type photoResponse struct {
	Key   string `json:"key"`
	URL   string `json:"url"`
	Cover bool   `json:"cover"`
}

// List handles GET /api/items?category=.
func (h *ItemsHandler) List(w http.ResponseWriter, r *http.Request) {
	category := model.Category(r.URL.Query().Get("category"))
	if category != "" && !category.Valid() {
		jsonError(w, http.StatusBadRequest, "invalid category")
		return
	}

	items, err := store.ListItems(r.Context(), h.DB, category)
	if err != nil {
		storeError(w, err, "list items")
		return
	}
	if items == nil {
		items = []model.Item{}
	}
	jsonResponse(w, http.StatusOK, items)
}

// Create handles POST /api/items. The body is an item with its category detail.
func (h *ItemsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.ItemWithDetail
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := h.Ledger.CreateItem(r.Context(), &req)
	if err != nil {
		storeError(w, err, "create item")
		return
	}

	slog.Info("item created", "user", GetClaims(r.Context()).Username, "item_id", item.Item.ID,
		"category", item.Item.Category)
	jsonResponse(w, http.StatusCreated, item)
}

// Get handles GET /api/items/{id}.
func (h *ItemsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "item")
	if !ok {
		return
	}

	item, err := store.GetItemWithDetail(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, err, "get item")
		return
	}
	if item == nil {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// Update handles PUT /api/items/{id}.
func (h *ItemsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "item")
	if !ok {
		return
	}

	var req model.ItemWithDetail
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Item.ID = id

	item, err := h.Ledger.UpdateItem(r.Context(), &req)
	if err != nil {
		storeError(w, err, "update item")
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// Delete handles DELETE /api/items/{id}. Photos are removed from object
// storage after the rows are gone; a failed object delete is only logged.
func (h *ItemsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "item")
	if !ok {
		return
	}

	keys, err := h.Ledger.DeleteItem(r.Context(), id)
	if err != nil {
		storeError(w, err, "delete item")
		return
	}

	for _, key := range keys {
		if err := h.Objects.Delete(r.Context(), key); err != nil {
			slog.Warn("failed to delete photo object", "item_id", id, "key", key, "error", err)
		}
	}

	slog.Info("item deleted", "user", GetClaims(r.Context()).Username, "item_id", id, "photos", len(keys))
	jsonResponse(w, http.StatusOK, map[string]string{"message": "item deleted"})
}

// UploadPhoto handles POST /api/items/{id}/photos.
func (h *ItemsHandler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "item")
	if !ok {
		return
	}

	item, err := store.GetItem(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, err, "get item")
		return
	}
	if item == nil {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, imaging.MaxUploadBytes+1<<20)
	if err := r.ParseMultipartForm(imaging.MaxUploadBytes); err != nil {
		jsonError(w, http.StatusBadRequest, "file too large or invalid multipart form")
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "image file required")
		return
	}
	defer file.Close()

	processed, err := imaging.Process(file)
	if err != nil {
		if errors.Is(err, imaging.ErrTooLarge) {
			jsonError(w, http.StatusRequestEntityTooLarge, err.Error())
			return
		}
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	key := storage.PhotoKey(id, imaging.Ext)
	if err := h.Objects.Put(r.Context(), key, processed.Data, processed.MIME); err != nil {
		slog.Error("failed to store photo", "item_id", id, "key", key, "error", err)
		jsonError(w, http.StatusBadGateway, "failed to store photo")
		return
	}

	if err := store.AddItemImage(r.Context(), h.DB, id, key); err != nil {
		h.Objects.Delete(r.Context(), key)
		storeError(w, err, "save photo")
		return
	}

	url, err := h.Objects.PresignGet(r.Context(), key, h.ttl())
	if err != nil {
		slog.Warn("failed to presign photo", "key", key, "error", err)
	}

	slog.Info("photo uploaded", "item_id", id, "key", key, "width", processed.Width, "height", processed.Height)
	jsonResponse(w, http.StatusCreated, photoResponse{Key: key, URL: url, Cover: len(item.ImageKeys) == 0})
}

// ListPhotos handles GET /api/items/{id}/photos and returns short-lived
// download links, cover first.
func (h *ItemsHandler) ListPhotos(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "item")
	if !ok {
		return
	}

	item, err := store.GetItem(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, err, "get item")
		return
	}
	if item == nil {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}

	photos := make([]photoResponse, 0, len(item.ImageKeys))
	for i, key := range item.ImageKeys {
		url, err := h.Objects.PresignGet(r.Context(), key, h.ttl())
		if err != nil {
			slog.Error("failed to presign photo", "key", key, "error", err)
			jsonError(w, http.StatusBadGateway, "failed to sign photo links")
			return
		}
		photos = append(photos, photoResponse{Key: key, URL: url, Cover: i == 0})
	}
	jsonResponse(w, http.StatusOK, photos)
}

// DeletePhoto handles DELETE /api/items/{id}/photos?key=.
func (h *ItemsHandler) DeletePhoto(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "item")
	if !ok {
		return
	}
	key := r.URL.Query().Get("key")
	if key == "" {
		jsonError(w, http.StatusBadRequest, "key required")
		return
	}

	if err := store.RemoveItemImage(r.Context(), h.DB, id, key); err != nil {
		storeError(w, err, "delete photo")
		return
	}
	if err := h.Objects.Delete(r.Context(), key); err != nil && !errors.Is(err, storage.ErrNotFound) {
		slog.Warn("failed to delete photo object", "item_id", id, "key", key, "error", err)
	}

	slog.Info("photo deleted", "item_id", id, "key", key)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "photo deleted"})
}

func (h *ItemsHandler) ttl() time.Duration {
	if h.PresignTTL <= 0 {
		return storage.DefaultPresignTTL
	}
	return h.PresignTTL
}
