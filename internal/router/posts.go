package router

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/patric-chuzhbe/twitterapi/internal/models"
)

// PostPost handles POST /post.
func (rtr *Router) PostPost(response http.ResponseWriter, request *http.Request) {
	var createRequest models.CreatePostRequest
	if err := decodeJSON(request, &createRequest); err != nil {
		rtr.writeError(response, request, err)
		return
	}

	if err := rtr.validator.Struct(createRequest); err != nil {
		rtr.writeError(response, request, err)
		return
	}

	newPost, err := createRequest.ToNewPost()
	if err != nil {
		rtr.writeError(response, request, fmt.Errorf("%w: %s", errMalformedBody, err.Error()))
		return
	}

	created, err := rtr.svc.CreatePost(request.Context(), newPost)
	if err != nil {
		rtr.writeError(response, request, err)
		return
	}

	writeJSON(response, http.StatusCreated, created)
}

// GetPosts handles GET /, the feed of all posts in creation order.
func (rtr *Router) GetPosts(response http.ResponseWriter, request *http.Request) {
	posts, err := rtr.svc.ListPosts(request.Context())
	if err != nil {
		rtr.writeError(response, request, err)
		return
	}

	writeJSON(response, http.StatusOK, posts)
}

// GetPost handles GET /posts/{post_id}.
func (rtr *Router) GetPost(response http.ResponseWriter, request *http.Request) {
	postID, err := rtr.validator.UUID("post_id", chi.URLParam(request, "post_id"))
	if err != nil {
		rtr.writeError(response, request, err)
		return
	}

	post, err := rtr.svc.GetPost(request.Context(), postID)
	if err != nil {
		rtr.writeError(response, request, err)
		return
	}

	writeJSON(response, http.StatusOK, post)
}

// PutPost handles PUT /posts/{post_id}/update. The author snapshot is kept.
func (rtr *Router) PutPost(response http.ResponseWriter, request *http.Request) {
	postID, err := rtr.validator.UUID("post_id", chi.URLParam(request, "post_id"))
	if err != nil {
		rtr.writeError(response, request, err)
		return
	}

	var updateRequest models.UpdatePostRequest
	if err = decodeJSON(request, &updateRequest); err != nil {
		rtr.writeError(response, request, err)
		return
	}

	if err = rtr.validator.Struct(updateRequest); err != nil {
		rtr.writeError(response, request, err)
		return
	}

	changes, err := updateRequest.ToPostChanges()
	if err != nil {
		rtr.writeError(response, request, fmt.Errorf("%w: %s", errMalformedBody, err.Error()))
		return
	}

	updated, err := rtr.svc.UpdatePost(request.Context(), postID, changes)
	if err != nil {
		rtr.writeError(response, request, err)
		return
	}

	writeJSON(response, http.StatusOK, updated)
}

// DeletePost handles DELETE /posts/{post_id}/delete.
func (rtr *Router) DeletePost(response http.ResponseWriter, request *http.Request) {
	postID, err := rtr.validator.UUID("post_id", chi.URLParam(request, "post_id"))
	if err != nil {
		rtr.writeError(response, request, err)
		return
	}

	removed, err := rtr.svc.DeletePost(request.Context(), postID)
	if err != nil {
		rtr.writeError(response, request, err)
		return
	}

	writeJSON(response, http.StatusOK, removed)
}
