package router

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/patric-chuzhbe/twitterapi/internal/models"
)

// PostSignup handles POST /signup.
func (rtr *Router) PostSignup(response http.ResponseWriter, request *http.Request) {
	var signupRequest models.SignupRequest
	if err := decodeJSON(request, &signupRequest); err != nil {
		rtr.writeError(response, request, err)
		return
	}

	if err := rtr.validator.Struct(signupRequest); err != nil {
		rtr.writeError(response, request, err)
		return
	}

	usr, err := signupRequest.ToUser()
	if err != nil {
		rtr.writeError(response, request, fmt.Errorf("%w: %s", errMalformedBody, err.Error()))
		return
	}

	created, err := rtr.svc.Signup(request.Context(), usr)
	if err != nil {
		rtr.writeError(response, request, err)
		return
	}

	writeJSON(response, http.StatusCreated, created)
}

// PostLogin handles POST /login. The credentials come form-encoded; wrong
// credentials are not an HTTP error, the result tells the client what happened.
func (rtr *Router) PostLogin(response http.ResponseWriter, request *http.Request) {
	if err := request.ParseForm(); err != nil {
		rtr.writeError(response, request, fmt.Errorf("%w: %s", errMalformedBody, err.Error()))
		return
	}

	loginRequest := models.LoginRequest{
		Email:    request.PostForm.Get("email"),
		Password: request.PostForm.Get("password"),
	}
	if err := rtr.validator.Struct(loginRequest); err != nil {
		rtr.writeError(response, request, err)
		return
	}

	result, err := rtr.svc.Login(request.Context(), loginRequest.Email, loginRequest.Password)
	if err != nil {
		rtr.writeError(response, request, err)
		return
	}

	if result.Success && result.Token != "" {
		rtr.auth.SetAuthCookie(response, result.Token)
	}

	writeJSON(response, http.StatusOK, result)
}

// GetUsers handles GET /users.
func (rtr *Router) GetUsers(response http.ResponseWriter, request *http.Request) {
	users, err := rtr.svc.ListUsers(request.Context())
	if err != nil {
		rtr.writeError(response, request, err)
		return
	}

	writeJSON(response, http.StatusOK, users)
}

// GetUser handles GET /users/{user_id}.
func (rtr *Router) GetUser(response http.ResponseWriter, request *http.Request) {
	userID, err := rtr.validator.UUID("user_id", chi.URLParam(request, "user_id"))
	if err != nil {
		rtr.writeError(response, request, err)
		return
	}

	usr, err := rtr.svc.GetUser(request.Context(), userID)
	if err != nil {
		rtr.writeError(response, request, err)
		return
	}

	writeJSON(response, http.StatusOK, usr)
}

// PutUser handles PUT /users/{user_id}/update.
func (rtr *Router) PutUser(response http.ResponseWriter, request *http.Request) {
	userID, err := rtr.validator.UUID("user_id", chi.URLParam(request, "user_id"))
	if err != nil {
		rtr.writeError(response, request, err)
		return
	}

	var updateRequest models.UpdateUserRequest
	if err = decodeJSON(request, &updateRequest); err != nil {
		rtr.writeError(response, request, err)
		return
	}

	if err = rtr.validator.Struct(updateRequest); err != nil {
		rtr.writeError(response, request, err)
		return
	}

	changes, err := updateRequest.ToUser()
	if err != nil {
		rtr.writeError(response, request, fmt.Errorf("%w: %s", errMalformedBody, err.Error()))
		return
	}

	updated, err := rtr.svc.UpdateUser(request.Context(), userID, changes)
	if err != nil {
		rtr.writeError(response, request, err)
		return
	}

	writeJSON(response, http.StatusOK, updated)
}

// DeleteUser handles DELETE /users/{user_id}/delete and answers with the
// removed user.
func (rtr *Router) DeleteUser(response http.ResponseWriter, request *http.Request) {
	userID, err := rtr.validator.UUID("user_id", chi.URLParam(request, "user_id"))
	if err != nil {
		rtr.writeError(response, request, err)
		return
	}

	removed, err := rtr.svc.DeleteUser(request.Context(), userID)
	if err != nil {
		rtr.writeError(response, request, err)
		return
	}

	writeJSON(response, http.StatusAccepted, removed)
}
