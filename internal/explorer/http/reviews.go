package http

import (
	"net/http"

	"github.com/aussiebroadwan/explorer/internal/explorer/service"
	"github.com/aussiebroadwan/explorer/pkg/httpx"
)

type ReviewsHandler struct {
	ReviewService *service.ReviewService
}

type createdResponse struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

type helpfulResponse struct {
	Message string `json:"message"`
	Helpful bool   `json:"helpful"`
}

// HandleCreate posts the caller's review of an app.
//
//	@Summary		Create review
//	@Tags			Reviews
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string				true	"App ID"
//	@Param			request	body		service.ReviewInput	true	"Review"
//	@Success		201		{object}	createdResponse
//	@Failure		400		{object}	httpx.ErrorBody	"Invalid input"
//	@Failure		404		{object}	httpx.ErrorBody	"App not found"
//	@Failure		409		{object}	httpx.ErrorBody	"You already reviewed this app"
//	@Security		BearerAuth
//	@Router			/api/apps/{id}/reviews [post].
func (h *ReviewsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var in service.ReviewInput
	if !decodeBody(w, r, &in) {
		return
	}

	id, err := h.ReviewService.Create(r.Context(), callerFrom(r), r.PathValue("id"), in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, createdResponse{ID: id, Message: "Review created"})
}

// HandleReply answers a review.
//
//	@Summary		Reply to review
//	@Tags			Reviews
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string				true	"Review ID"
//	@Param			request	body		service.ReplyInput	true	"Reply"
//	@Success		201		{object}	createdResponse
//	@Failure		400		{object}	httpx.ErrorBody	"Invalid input"
//	@Failure		404		{object}	httpx.ErrorBody	"Review not found"
//	@Security		BearerAuth
//	@Router			/api/reviews/{id}/reply [post].
func (h *ReviewsHandler) HandleReply(w http.ResponseWriter, r *http.Request) {
	var in service.ReplyInput
	if !decodeBody(w, r, &in) {
		return
	}

	id, err := h.ReviewService.Reply(r.Context(), callerFrom(r), r.PathValue("id"), in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, createdResponse{ID: id, Message: "Reply created"})
}

// HandleHelpful toggles the caller's helpful vote on a review.
//
//	@Summary		Toggle helpful vote
//	@Tags			Reviews
//	@Produce		json
//	@Param			id	path		string	true	"Review ID"
//	@Success		200	{object}	helpfulResponse
//	@Failure		404	{object}	httpx.ErrorBody	"Review not found"
//	@Security		BearerAuth
//	@Router			/api/reviews/{id}/helpful [post].
func (h *ReviewsHandler) HandleHelpful(w http.ResponseWriter, r *http.Request) {
	helpful, err := h.ReviewService.ToggleHelpful(r.Context(), callerFrom(r), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	msg := "Helpful removed"
	if helpful {
		msg = "Helpful added"
	}
	httpx.WriteJSON(w, http.StatusOK, helpfulResponse{Message: msg, Helpful: helpful})
}

// HandleDelete removes a review. Author or admin only.
//
//	@Summary		Delete review
//	@Tags			Reviews
//	@Produce		json
//	@Param			id	path		string	true	"Review ID"
//	@Success		200	{object}	httpx.MessageBody
//	@Failure		403	{object}	httpx.ErrorBody	"Not authorized"
//	@Failure		404	{object}	httpx.ErrorBody	"Review not found"
//	@Security		BearerAuth
//	@Router			/api/reviews/{id} [delete].
func (h *ReviewsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.ReviewService.Delete(r.Context(), callerFrom(r), r.PathValue("id")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteMessage(w, http.StatusOK, "Review deleted")
}

// HandleDeleteReply removes a reply. Author or admin only.
//
//	@Summary		Delete reply
//	@Tags			Reviews
//	@Produce		json
//	@Param			id	path		string	true	"Reply ID"
//	@Success		200	{object}	httpx.MessageBody
//	@Failure		403	{object}	httpx.ErrorBody	"Not authorized"
//	@Failure		404	{object}	httpx.ErrorBody	"Reply not found"
//	@Security		BearerAuth
//	@Router			/api/replies/{id} [delete].
func (h *ReviewsHandler) HandleDeleteReply(w http.ResponseWriter, r *http.Request) {
	if err := h.ReviewService.DeleteReply(r.Context(), callerFrom(r), r.PathValue("id")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteMessage(w, http.StatusOK, "Reply deleted")
}
