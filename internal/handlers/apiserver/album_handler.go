package apiserver

import (
	"encoding/json"
	"net/http"

	"trailbook/internal/apperrors"
	"trailbook/internal/models"
	"trailbook/internal/services"
)

// AlbumHandler exposes album, media, favorite and reflection endpoints.
type AlbumHandler struct {
	albumService services.AlbumService
}

func NewAlbumHandler(albumService services.AlbumService) *AlbumHandler {
	return &AlbumHandler{albumService: albumService}
}

type createAlbumRequest struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	CoverURL    string `json:"coverUrl,omitempty"`
	IsPublic    bool   `json:"isPublic"`
}

func (h *AlbumHandler) CreateAlbumHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	var req createAlbumRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, apperrors.InvalidArgument("invalid request body"))
		return
	}
	defer r.Body.Close()

	album, err := h.albumService.CreateAlbum(r.Context(), userID, req.Title, req.Description, req.CoverURL, req.IsPublic)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondSuccess(w, http.StatusCreated, "album created", album)
}

func (h *AlbumHandler) GetAlbumHandler(w http.ResponseWriter, r *http.Request) {
	albumID, err := pathUserID(r, "albumId")
	if err != nil {
		respondError(w, r, err)
		return
	}
	album, err := h.albumService.GetAlbum(r.Context(), albumID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondSuccess(w, http.StatusOK, "", album)
}

func (h *AlbumHandler) ListMyAlbumsHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	albums, err := h.albumService.ListAlbums(r.Context(), userID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondSuccess(w, http.StatusOK, "", albums)
}

func (h *AlbumHandler) DeleteAlbumHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	albumID, err := pathUserID(r, "albumId")
	if err != nil {
		respondError(w, r, err)
		return
	}
	if err := h.albumService.DeleteAlbum(r.Context(), userID, albumID); err != nil {
		respondError(w, r, err)
		return
	}
	respondSuccess(w, http.StatusOK, "album deleted", nil)
}

type addMediaRequest struct {
	FileKey  string `json:"fileKey"`
	FileURL  string `json:"fileUrl,omitempty"`
	MimeType string `json:"mimeType,omitempty"`
	Caption  string `json:"caption,omitempty"`
}

func (h *AlbumHandler) AddMediaHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	albumID, err := pathUserID(r, "albumId")
	if err != nil {
		respondError(w, r, err)
		return
	}
	var req addMediaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, apperrors.InvalidArgument("invalid request body"))
		return
	}
	defer r.Body.Close()
	if req.FileKey == "" {
		respondError(w, r, apperrors.InvalidArgument("fileKey is required"))
		return
	}

	media, err := h.albumService.AddMedia(r.Context(), userID, albumID, req.FileKey, req.FileURL, req.MimeType, req.Caption)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondSuccess(w, http.StatusCreated, "media added", media)
}

func (h *AlbumHandler) DeleteMediaHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	mediaID, err := pathUserID(r, "mediaId")
	if err != nil {
		respondError(w, r, err)
		return
	}
	if err := h.albumService.DeleteMedia(r.Context(), userID, mediaID); err != nil {
		respondError(w, r, err)
		return
	}
	respondSuccess(w, http.StatusOK, "media deleted", nil)
}

func (h *AlbumHandler) FavoriteHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	albumID, err := pathUserID(r, "albumId")
	if err != nil {
		respondError(w, r, err)
		return
	}
	if err := h.albumService.FavoriteAlbum(r.Context(), userID, albumID); err != nil {
		respondError(w, r, err)
		return
	}
	respondSuccess(w, http.StatusOK, "album favorited", nil)
}

func (h *AlbumHandler) UnfavoriteHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	albumID, err := pathUserID(r, "albumId")
	if err != nil {
		respondError(w, r, err)
		return
	}
	if err := h.albumService.UnfavoriteAlbum(r.Context(), userID, albumID); err != nil {
		respondError(w, r, err)
		return
	}
	respondSuccess(w, http.StatusOK, "album unfavorited", nil)
}

type reflectRequest struct {
	Reason      string `json:"reason"`
	IsAnonymous bool   `json:"isAnonymous"`
	Note        string `json:"note,omitempty"`
}

func (h *AlbumHandler) ReflectHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	mediaID, err := pathUserID(r, "mediaId")
	if err != nil {
		respondError(w, r, err)
		return
	}
	var req reflectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, apperrors.InvalidArgument("invalid request body"))
		return
	}
	defer r.Body.Close()

	reflection, err := h.albumService.Reflect(r.Context(), userID, mediaID, models.ReflectionReason(req.Reason), req.IsAnonymous, req.Note)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondSuccess(w, http.StatusCreated, "reflection added", reflection)
}

func (h *AlbumHandler) DeleteReflectionHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	reflectionID, err := pathUserID(r, "reflectionId")
	if err != nil {
		respondError(w, r, err)
		return
	}
	if err := h.albumService.DeleteReflection(r.Context(), userID, reflectionID); err != nil {
		respondError(w, r, err)
		return
	}
	respondSuccess(w, http.StatusOK, "reflection deleted", nil)
}
