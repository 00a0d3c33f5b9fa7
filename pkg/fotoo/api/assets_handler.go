package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/fotoo-app/fotoo/pkg/fotoo"
)

const maxListLimit = 200

// AssetsHandler exposes the media asset API endpoints
type AssetsHandler struct {
	svc       fotoo.Service
	tokenAuth *jwtauth.JWTAuth
}

// NewAssetsHandler creates a new assets handler
func NewAssetsHandler(svc fotoo.Service, tokenAuth *jwtauth.JWTAuth) *AssetsHandler {
	return &AssetsHandler{svc: svc, tokenAuth: tokenAuth}
}

// Routes returns the router for asset endpoints. All routes require a
// verified JWT.
func (h *AssetsHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(jwtauth.Verifier(h.tokenAuth))
	r.Use(jwtauth.Authenticator)

	r.Post("/upload-slot", h.CreateUploadSlot)
	r.Get("/", h.ListAssets)
	r.Get("/{asset_id}", h.GetAsset)
	r.Post("/{asset_id}/uploaded", h.MarkUploaded)
	r.Post("/{asset_id}/reprocess", h.Reprocess)
	r.Get("/{asset_id}/download", h.GetDownloadURL)
	r.Get("/{asset_id}/thumbnail", h.GetThumbnail)
	r.Delete("/{asset_id}", h.DeleteAsset)
	return r
}

// CreateUploadSlotRequest represents the request to reserve an upload slot
type CreateUploadSlotRequest struct {
	Filename   string     `json:"filename"`
	MimeType   string     `json:"mime_type"`
	Size       int64      `json:"size,omitempty"`
	CapturedAt *time.Time `json:"captured_at,omitempty"`
}

// CreateUploadSlot reserves a pending asset record and returns a presigned
// upload URL for the original bytes
func (h *AssetsHandler) CreateUploadSlot(w http.ResponseWriter, r *http.Request) {
	ident, err := identityFromRequest(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req CreateUploadSlotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Fail to decode request", "error", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Filename == "" {
		http.Error(w, "filename is required", http.StatusBadRequest)
		return
	}

	slot, err := h.svc.CreateUploadSlot(r.Context(), fotoo.CreateUploadSlotRequest{
		OwnerID:    ident.UserID,
		Owner:      ident.Login,
		Filename:   req.Filename,
		MimeType:   req.MimeType,
		Size:       req.Size,
		CapturedAt: req.CapturedAt,
	})
	if err != nil {
		h.renderError(w, r, "create upload slot", err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, slot)
}

// MarkUploaded signals that the client finished its direct upload and the
// asset should enter the processing pipeline
func (h *AssetsHandler) MarkUploaded(w http.ResponseWriter, r *http.Request) {
	h.enqueue(w, r, "mark uploaded")
}

// Reprocess re-enqueues a failed asset
func (h *AssetsHandler) Reprocess(w http.ResponseWriter, r *http.Request) {
	h.enqueue(w, r, "reprocess")
}

func (h *AssetsHandler) enqueue(w http.ResponseWriter, r *http.Request, op string) {
	ident, assetID, ok := h.authAndAssetID(w, r)
	if !ok {
		return
	}

	if err := h.svc.EnqueueProcessing(r.Context(), assetID, ident.UserID); err != nil {
		h.renderError(w, r, op, err)
		return
	}
	render.Status(r, http.StatusAccepted)
	render.JSON(w, r, map[string]string{"status": "queued"})
}

// GetAsset returns one asset record
func (h *AssetsHandler) GetAsset(w http.ResponseWriter, r *http.Request) {
	ident, assetID, ok := h.authAndAssetID(w, r)
	if !ok {
		return
	}

	asset, err := h.svc.GetAsset(r.Context(), assetID, ident.UserID)
	if err != nil {
		h.renderError(w, r, "get asset", err)
		return
	}
	render.JSON(w, r, asset)
}

// ListAssets returns the caller's assets, newest capture first
func (h *AssetsHandler) ListAssets(w http.ResponseWriter, r *http.Request) {
	ident, err := identityFromRequest(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 0 {
			http.Error(w, "Invalid limit", http.StatusBadRequest)
			return
		}
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	assets, err := h.svc.ListAssets(r.Context(), ident.UserID, limit)
	if err != nil {
		h.renderError(w, r, "list assets", err)
		return
	}
	if assets == nil {
		assets = []*fotoo.Asset{}
	}
	render.JSON(w, r, assets)
}

// GetDownloadURL returns a presigned URL for the processed derivative
func (h *AssetsHandler) GetDownloadURL(w http.ResponseWriter, r *http.Request) {
	ident, assetID, ok := h.authAndAssetID(w, r)
	if !ok {
		return
	}

	url, err := h.svc.GetDownloadURL(r.Context(), assetID, ident.UserID)
	if err != nil {
		h.renderError(w, r, "get download url", err)
		return
	}
	render.JSON(w, r, map[string]string{"download_url": url})
}

// GetThumbnail streams the thumbnail bytes
func (h *AssetsHandler) GetThumbnail(w http.ResponseWriter, r *http.Request) {
	ident, assetID, ok := h.authAndAssetID(w, r)
	if !ok {
		return
	}

	rc, mimeType, err := h.svc.OpenThumbnail(r.Context(), assetID, ident.UserID)
	if err != nil {
		h.renderError(w, r, "get thumbnail", err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", mimeType)
	w.Header().Set("Cache-Control", "private, max-age=86400")
	if _, err := io.Copy(w, rc); err != nil {
		slog.Warn("Fail to stream thumbnail", "asset_id", assetID, "error", err)
	}
}

// DeleteAsset removes the asset record and its stored objects
func (h *AssetsHandler) DeleteAsset(w http.ResponseWriter, r *http.Request) {
	ident, assetID, ok := h.authAndAssetID(w, r)
	if !ok {
		return
	}

	if err := h.svc.DeleteAsset(r.Context(), assetID, ident.UserID); err != nil {
		h.renderError(w, r, "delete asset", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AssetsHandler) authAndAssetID(w http.ResponseWriter, r *http.Request) (*Identity, uuid.UUID, bool) {
	ident, err := identityFromRequest(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return nil, uuid.Nil, false
	}

	idStr := chi.URLParam(r, "asset_id")
	assetID, err := uuid.Parse(idStr)
	if err != nil {
		slog.Error("Invalid asset ID", "asset_id", idStr, "error", err)
		http.Error(w, "Invalid asset ID", http.StatusBadRequest)
		return nil, uuid.Nil, false
	}
	return ident, assetID, true
}

func (h *AssetsHandler) renderError(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case errors.Is(err, fotoo.ErrAssetNotFound):
		http.Error(w, "Asset not found", http.StatusNotFound)
	case errors.Is(err, fotoo.ErrForbidden):
		http.Error(w, "Forbidden", http.StatusForbidden)
	case errors.Is(err, fotoo.ErrAssetNotReady):
		http.Error(w, "Asset not processed yet", http.StatusConflict)
	case errors.Is(err, fotoo.ErrAlreadyProcessing):
		http.Error(w, "Asset is already processing", http.StatusConflict)
	default:
		slog.Error("Request failed", "op", op, "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
