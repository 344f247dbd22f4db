package http

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/aussiebroadwan/explorer/internal/explorer/service"
	"github.com/aussiebroadwan/explorer/pkg/httpx"
	"github.com/aussiebroadwan/explorer/pkg/slogx"
)

// multipartSlack covers form fields and part headers on top of the file.
const multipartSlack = 64 << 10

type UploadHandler struct {
	MediaService *service.MediaService
}

type uploadResponse struct {
	ID      string `json:"id,omitempty"`
	URL     string `json:"url"`
	Message string `json:"message"`
}

// HandleIcon stores or replaces an app's icon.
//
//	@Summary		Upload icon
//	@Description	PNG, JPG, WebP or SVG up to 200KB. Replaces the current icon.
//	@Tags			Media
//	@Accept			mpfd
//	@Produce		json
//	@Param			file	formData	file	true	"Image"
//	@Param			app_id	formData	string	true	"App ID"
//	@Success		200		{object}	uploadResponse
//	@Failure		400		{object}	httpx.ErrorBody
//	@Failure		403		{object}	httpx.ErrorBody	"Not authorized"
//	@Failure		404		{object}	httpx.ErrorBody	"App not found"
//	@Security		BearerAuth
//	@Router			/api/upload/icon [post].
func (h *UploadHandler) HandleIcon(w http.ResponseWriter, r *http.Request) {
	up, closeFile, ok := readUpload(w, r, service.IconMaxSize, "Icon max size is 200KB")
	if !ok {
		return
	}
	defer closeFile()

	res, err := h.MediaService.UploadIcon(r.Context(), callerFrom(r), up)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, uploadResponse{URL: res.URL, Message: "Icon uploaded"})
}

// HandleScreenshot appends a screenshot to an app.
//
//	@Summary		Upload screenshot
//	@Description	PNG, JPG or WebP up to 2MB, at most 5 per app.
//	@Tags			Media
//	@Accept			mpfd
//	@Produce		json
//	@Param			file	formData	file	true	"Image"
//	@Param			app_id	formData	string	true	"App ID"
//	@Param			caption	formData	string	false	"Caption"
//	@Success		200		{object}	uploadResponse
//	@Failure		400		{object}	httpx.ErrorBody
//	@Failure		403		{object}	httpx.ErrorBody	"Not authorized"
//	@Failure		404		{object}	httpx.ErrorBody	"App not found"
//	@Security		BearerAuth
//	@Router			/api/upload/screenshot [post].
func (h *UploadHandler) HandleScreenshot(w http.ResponseWriter, r *http.Request) {
	up, closeFile, ok := readUpload(w, r, service.ScreenshotMaxSize, "Screenshot max size is 2MB")
	if !ok {
		return
	}
	defer closeFile()

	if caption := strings.TrimSpace(r.FormValue("caption")); caption != "" {
		up.Caption = &caption
	}

	res, err := h.MediaService.UploadScreenshot(r.Context(), callerFrom(r), up)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, uploadResponse{ID: res.ID, URL: res.URL, Message: "Screenshot uploaded"})
}

// HandleDelete removes a stored icon or screenshot.
//
//	@Summary		Delete media
//	@Tags			Media
//	@Produce		json
//	@Param			id	path		string	true	"Media ID"
//	@Success		200	{object}	httpx.MessageBody
//	@Failure		403	{object}	httpx.ErrorBody	"Not authorized"
//	@Failure		404	{object}	httpx.ErrorBody	"Media not found"
//	@Security		BearerAuth
//	@Router			/api/upload/{id} [delete].
func (h *UploadHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.MediaService.Delete(r.Context(), callerFrom(r), r.PathValue("id")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteMessage(w, http.StatusOK, "Media deleted")
}

// HandleServe streams a stored object.
//
//	@Summary		Media file
//	@Tags			Media
//	@Produce		octet-stream
//	@Param			key	path	string	true	"Object key"
//	@Success		200
//	@Failure		404	{object}	httpx.ErrorBody	"File not found"
//	@Router			/r2/{key} [get].
func (h *UploadHandler) HandleServe(w http.ResponseWriter, r *http.Request) {
	obj, err := h.MediaService.Open(r.Context(), r.PathValue("key"))
	if err != nil {
		if errors.Is(err, service.ErrMediaNotFound) {
			httpx.WriteError(w, http.StatusNotFound, "File not found")
			return
		}
		writeServiceError(w, r, err)
		return
	}
	defer obj.Body.Close()

	ct := obj.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}
	w.Header().Set("Content-Type", ct)
	w.Header().Set("Cache-Control", "public, max-age=3600")
	if obj.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(obj.Size, 10))
	}
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, obj.Body); err != nil {
		slogx.FromContext(r.Context()).Warn("media stream interrupted", "key", obj.Key, "error", err)
	}
}

// readUpload parses the multipart form and pulls out the file and app_id.
// On failure it has already answered the request.
func readUpload(w http.ResponseWriter, r *http.Request, maxSize int64, tooLarge string) (service.Upload, func(), bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+multipartSlack)
	if err := r.ParseMultipartForm(maxSize + multipartSlack); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			httpx.WriteError(w, http.StatusBadRequest, tooLarge)
			return service.Upload{}, nil, false
		}
		httpx.WriteError(w, http.StatusBadRequest, "File and app_id required")
		return service.Upload{}, nil, false
	}

	appID := strings.TrimSpace(r.FormValue("app_id"))
	file, header, err := r.FormFile("file")
	if err != nil || appID == "" {
		if file != nil {
			_ = file.Close()
		}
		httpx.WriteError(w, http.StatusBadRequest, "File and app_id required")
		return service.Upload{}, nil, false
	}

	return service.Upload{
		AppID:       appID,
		ContentType: partContentType(header),
		Size:        header.Size,
		Body:        file,
	}, func() { _ = file.Close() }, true
}

func partContentType(h *multipart.FileHeader) string {
	ct := h.Header.Get("Content-Type")
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	return strings.ToLower(strings.TrimSpace(ct))
}
