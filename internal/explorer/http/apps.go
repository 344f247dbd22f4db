package http

import (
	"net/http"
	"strconv"

	"github.com/aussiebroadwan/explorer/internal/explorer/service"
	"github.com/aussiebroadwan/explorer/pkg/httpx"
)

type AppsHandler struct {
	AppService *service.AppService
}

type createAppResponse struct {
	ID      string `json:"id"`
	Slug    string `json:"slug"`
	Message string `json:"message"`
}

type flagRequest struct {
	Featured *bool `json:"featured,omitempty"`
	Verified *bool `json:"verified,omitempty"`
}

// HandleList returns one page of the catalogue.
//
//	@Summary		List apps
//	@Tags			Apps
//	@Produce		json
//	@Param			q			query		string	false	"Search in name and short descriptions"
//	@Param			category	query		string	false	"Category slug"
//	@Param			tag			query		string	false	"Tag"
//	@Param			featured	query		bool	false	"Only featured apps"
//	@Param			sort		query		string	false	"newest, top-rated, most-reviewed, az or trending"
//	@Param			page		query		int		false	"Page number, from 1"
//	@Param			limit		query		int		false	"Page size, at most 50"
//	@Success		200			{object}	domain.AppPage
//	@Router			/api/apps [get].
func (h *AppsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))
	featured := q.Get("featured")

	res, err := h.AppService.List(r.Context(), service.ListQuery{
		Q:        q.Get("q"),
		Category: q.Get("category"),
		Tag:      q.Get("tag"),
		Featured: featured == "1" || featured == "true",
		Sort:     q.Get("sort"),
		Page:     page,
		Limit:    limit,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, res)
}

// HandleGet returns the detail document of one app, reviews included.
//
//	@Summary		App detail
//	@Tags			Apps
//	@Produce		json
//	@Param			slug	path		string	true	"App slug"
//	@Success		200		{object}	domain.AppDetail
//	@Failure		404		{object}	httpx.ErrorBody	"App not found"
//	@Router			/api/apps/{slug} [get].
func (h *AppsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	raw, err := h.AppService.Get(r.Context(), r.PathValue("slug"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteRawJSON(w, http.StatusOK, raw)
}

// HandleCreate submits a new app owned by the caller.
//
//	@Summary		Create app
//	@Tags			Apps
//	@Accept			json
//	@Produce		json
//	@Param			request	body		service.AppInput	true	"App"
//	@Success		201		{object}	createAppResponse
//	@Failure		400		{object}	httpx.ErrorBody	"Invalid input"
//	@Failure		401		{object}	httpx.ErrorBody
//	@Failure		409		{object}	httpx.ErrorBody	"An app with a similar name already exists"
//	@Security		BearerAuth
//	@Router			/api/apps [post].
func (h *AppsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var in service.AppInput
	if !decodeBody(w, r, &in) {
		return
	}

	created, err := h.AppService.Create(r.Context(), callerFrom(r), in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, createAppResponse{
		ID:      created.ID,
		Slug:    created.Slug,
		Message: "App created",
	})
}

// HandleUpdate edits an app. Owner or admin only.
//
//	@Summary		Update app
//	@Tags			Apps
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string					true	"App ID"
//	@Param			request	body		service.AppUpdateInput	true	"Fields to change"
//	@Success		200		{object}	httpx.MessageBody
//	@Failure		400		{object}	httpx.ErrorBody	"Invalid input"
//	@Failure		403		{object}	httpx.ErrorBody	"Not authorized"
//	@Failure		404		{object}	httpx.ErrorBody	"App not found"
//	@Security		BearerAuth
//	@Router			/api/apps/{id} [put].
func (h *AppsHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var in service.AppUpdateInput
	if !decodeBody(w, r, &in) {
		return
	}

	if err := h.AppService.Update(r.Context(), callerFrom(r), r.PathValue("id"), in); err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteMessage(w, http.StatusOK, "App updated")
}

// HandleDelete removes an app with its reviews and media. Owner or admin only.
//
//	@Summary		Delete app
//	@Tags			Apps
//	@Produce		json
//	@Param			id	path		string	true	"App ID"
//	@Success		200	{object}	httpx.MessageBody
//	@Failure		403	{object}	httpx.ErrorBody	"Not authorized"
//	@Failure		404	{object}	httpx.ErrorBody	"App not found"
//	@Security		BearerAuth
//	@Router			/api/apps/{id} [delete].
func (h *AppsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.AppService.Delete(r.Context(), callerFrom(r), r.PathValue("id")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteMessage(w, http.StatusOK, "App deleted")
}

// HandleSetFeatured sets or clears the featured flag.
//
//	@Summary		Feature app
//	@Tags			Moderation
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string		true	"App ID"
//	@Param			request	body		flagRequest	true	"{\"featured\": true}"
//	@Success		200		{object}	httpx.MessageBody
//	@Failure		403		{object}	httpx.ErrorBody	"Admin access required"
//	@Failure		404		{object}	httpx.ErrorBody	"App not found"
//	@Security		BearerAuth
//	@Router			/api/apps/{id}/featured [post].
func (h *AppsHandler) HandleSetFeatured(w http.ResponseWriter, r *http.Request) {
	var req flagRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Featured == nil {
		httpx.WriteErrorDetails(w, http.StatusBadRequest, msgInvalidInput, map[string]string{"featured": "is required"})
		return
	}

	if err := h.AppService.SetFeatured(r.Context(), r.PathValue("id"), *req.Featured); err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteMessage(w, http.StatusOK, "App updated")
}

// HandleSetVerified sets or clears the verified badge.
//
//	@Summary		Verify app
//	@Tags			Moderation
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string		true	"App ID"
//	@Param			request	body		flagRequest	true	"{\"verified\": true}"
//	@Success		200		{object}	httpx.MessageBody
//	@Failure		403		{object}	httpx.ErrorBody	"Admin access required"
//	@Failure		404		{object}	httpx.ErrorBody	"App not found"
//	@Security		BearerAuth
//	@Router			/api/apps/{id}/verified [post].
func (h *AppsHandler) HandleSetVerified(w http.ResponseWriter, r *http.Request) {
	var req flagRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Verified == nil {
		httpx.WriteErrorDetails(w, http.StatusBadRequest, msgInvalidInput, map[string]string{"verified": "is required"})
		return
	}

	if err := h.AppService.SetVerified(r.Context(), r.PathValue("id"), *req.Verified); err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteMessage(w, http.StatusOK, "App updated")
}
