package web

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/erazemk/zaloga/internal/imaging"
	"github.com/erazemk/zaloga/internal/model"
	"github.com/erazemk/zaloga/internal/storage"
	"github.com/erazemk/zaloga/internal/store"
)

// photoLink is a presigned photo shown on the detail page.
type photoLink struct {
	Key string
	URL string
}

// ItemsPage handles GET /items?category=.
func (s *Server) ItemsPage(w http.ResponseWriter, r *http.Request) {
	category := model.Category(r.URL.Query().Get("category"))
	if !category.Valid() {
		category = ""
	}

	items, err := store.ListItems(r.Context(), s.DB, category)
	if err != nil {
		slog.Error("failed to list items", "error", err)
	}

	s.Templates.Render(w, "items.html", &struct {
		PageData
		Items      []model.Item
		Category   model.Category
		Categories []model.Category
	}{
		PageData:   s.page(r, "Inventory"),
		Items:      items,
		Category:   category,
		Categories: model.Categories,
	})
}

// ItemDetailPage handles GET /items/{id}.
func (s *Server) ItemDetailPage(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	item, err := store.GetItemWithDetail(r.Context(), s.DB, id)
	if err != nil {
		slog.Error("failed to get item", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if item == nil {
		http.Error(w, "item not found", http.StatusNotFound)
		return
	}

	var photos []photoLink
	for _, key := range item.Item.ImageKeys {
		u, err := s.Objects.PresignGet(r.Context(), key, s.PresignTTL)
		if err != nil {
			slog.Warn("failed to presign photo", "key", key, "error", err)
			continue
		}
		photos = append(photos, photoLink{Key: key, URL: u})
	}

	s.Templates.Render(w, "item_detail.html", &struct {
		PageData
		Item   *model.ItemWithDetail
		Photos []photoLink
	}{
		PageData: s.page(r, item.Item.Name),
		Item:     item,
		Photos:   photos,
	})
}

// ItemCreateSubmit handles POST /items.
func (s *Server) ItemCreateSubmit(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())
	category := model.Category(r.FormValue("category"))

	in, err := itemFromForm(r, category)
	if err == nil {
		in, err = s.Ledger.CreateItem(r.Context(), in)
	}
	if err != nil {
		s.formError(w, r, "/items", "create item", err)
		return
	}

	slog.Info("item created", "user", claims.Username, "item", in.Item.Name, "category", category)
	http.Redirect(w, r, fmt.Sprintf("/items/%d", in.Item.ID), http.StatusSeeOther)
}

// ItemUpdateSubmit handles POST /items/{id}.
func (s *Server) ItemUpdateSubmit(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	path := fmt.Sprintf("/items/%d", id)

	current, err := store.GetItem(r.Context(), s.DB, id)
	if err != nil || current == nil {
		http.Error(w, "item not found", http.StatusNotFound)
		return
	}

	in, err := itemFromForm(r, current.Category)
	if err == nil {
		in.Item.ID = id
		_, err = s.Ledger.UpdateItem(r.Context(), in)
	}
	if err != nil {
		s.formError(w, r, path, "update item", err)
		return
	}

	slog.Info("item updated", "user", claims.Username, "item", in.Item.Name)
	backOK(w, r, path, "Saved.")
}

// ItemDeleteSubmit handles POST /items/{id}/delete.
func (s *Server) ItemDeleteSubmit(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	keys, err := s.Ledger.DeleteItem(r.Context(), id)
	if err != nil {
		s.formError(w, r, "/items", "delete item", err)
		return
	}
	for _, key := range keys {
		if err := s.Objects.Delete(r.Context(), key); err != nil {
			slog.Warn("failed to delete photo object", "key", key, "error", err)
		}
	}

	slog.Info("item deleted", "user", claims.Username, "item_id", id)
	backOK(w, r, "/items", "Item deleted.")
}

// ItemPhotoSubmit handles POST /items/{id}/photos.
func (s *Server) ItemPhotoSubmit(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	path := fmt.Sprintf("/items/%d", id)

	r.Body = http.MaxBytesReader(w, r.Body, imaging.MaxUploadBytes+1<<20)
	if err := r.ParseMultipartForm(imaging.MaxUploadBytes); err != nil {
		backErr(w, r, path, "File too large.")
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		backErr(w, r, path, "Choose an image to upload.")
		return
	}
	defer file.Close()

	// Process the image: validate format by sniffing bytes, downscale, compress.
	result, err := imaging.Process(file)
	if err != nil {
		backErr(w, r, path, err.Error())
		return
	}

	key := storage.PhotoKey(id, imaging.Ext)
	if err := s.Objects.Put(r.Context(), key, result.Data, result.MIME); err != nil {
		slog.Error("failed to store photo", "key", key, "error", err)
		backErr(w, r, path, "Could not store the photo.")
		return
	}
	if err := store.AddItemImage(r.Context(), s.DB, id, key); err != nil {
		s.Objects.Delete(r.Context(), key)
		s.formError(w, r, path, "save photo", err)
		return
	}

	slog.Info("item photo uploaded", "user", claims.Username, "item_id", id, "key", key)
	backOK(w, r, path, "Photo uploaded.")
}

// ItemPhotoDeleteSubmit handles POST /items/{id}/photos/delete.
func (s *Server) ItemPhotoDeleteSubmit(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	path := fmt.Sprintf("/items/%d", id)
	key := r.FormValue("key")

	if err := store.RemoveItemImage(r.Context(), s.DB, id, key); err != nil {
		s.formError(w, r, path, "delete photo", err)
		return
	}
	if err := s.Objects.Delete(r.Context(), key); err != nil {
		slog.Warn("failed to delete photo object", "key", key, "error", err)
	}
	backOK(w, r, path, "Photo removed.")
}

// formError sends validation problems back to the form and logs the rest.
func (s *Server) formError(w http.ResponseWriter, r *http.Request, path, action string, err error) {
	switch {
	case errors.Is(err, model.ErrInvalid), errors.Is(err, store.ErrInvalidRounds):
		backErr(w, r, path, err.Error())
	case errors.Is(err, store.ErrNotFound):
		backErr(w, r, path, "Not found.")
	default:
		slog.Error("failed to "+action, "error", err)
		backErr(w, r, path, "Failed to "+action+".")
	}
}
