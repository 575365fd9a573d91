// Package router maps HTTP requests onto service calls: it decodes and
// validates the payload, calls the service and turns the result, or the
// error, into a JSON response.
package router

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/patric-chuzhbe/twitterapi/internal/authenticator"
	"github.com/patric-chuzhbe/twitterapi/internal/gzippedhttp"
	"github.com/patric-chuzhbe/twitterapi/internal/ipchecker"
	"github.com/patric-chuzhbe/twitterapi/internal/logger"
	"github.com/patric-chuzhbe/twitterapi/internal/models"
	"github.com/patric-chuzhbe/twitterapi/internal/validation"
)

type userService interface {
	Signup(ctx context.Context, usr models.User) (models.User, error)
	Login(ctx context.Context, email, password string) (models.LoginResult, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	GetUser(ctx context.Context, userID uuid.UUID) (models.User, error)
	UpdateUser(ctx context.Context, userID uuid.UUID, changes models.User) (models.User, error)
	DeleteUser(ctx context.Context, userID uuid.UUID) (models.User, error)
}

type postService interface {
	CreatePost(ctx context.Context, newPost models.NewPost) (models.Post, error)
	ListPosts(ctx context.Context) ([]models.Post, error)
	GetPost(ctx context.Context, postID uuid.UUID) (models.Post, error)
	UpdatePost(ctx context.Context, postID uuid.UUID, changes models.PostChanges) (models.Post, error)
	DeletePost(ctx context.Context, postID uuid.UUID) (models.Post, error)
}

type maintenanceService interface {
	GetInternalStats(ctx context.Context) (models.InternalStatsResponse, error)
	Ping(ctx context.Context) error
}

type appService interface {
	userService
	postService
	maintenanceService
}

// Router holds the dependencies of the HTTP handlers.
type Router struct {
	svc       appService
	validator *validation.Validator
	auth      authenticator.Authenticator
	ipChecker *ipchecker.IPChecker
}

type initOptions struct {
	enableGzip bool
}

// InitOption configures New.
type InitOption func(*initOptions)

// WithGzip enables gzip compression of responses for clients that accept it.
// Gzipped request bodies are always understood.
func WithGzip(enable bool) InitOption {
	return func(options *initOptions) {
		options.enableGzip = enable
	}
}

// New builds the HTTP handler of the service.
func New(
	svc appService,
	validator *validation.Validator,
	auth authenticator.Authenticator,
	ipChecker *ipchecker.IPChecker,
	optionsProto ...InitOption,
) http.Handler {
	options := &initOptions{}
	for _, protoOption := range optionsProto {
		protoOption(options)
	}

	myRouter := &Router{
		svc:       svc,
		validator: validator,
		auth:      auth,
		ipChecker: ipChecker,
	}

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		logger.WithLoggingHTTPMiddleware,
		middleware.Recoverer,
		gzippedhttp.UngzipRequest,
	)
	if options.enableGzip {
		router.Use(gzippedhttp.GzipResponse)
	}

	router.Get(`/ping`, myRouter.GetPing)
	router.With(myRouter.trustedSubnetOnly).Get(`/api/internal/stats`, myRouter.GetInternalStats)

	router.Post(`/signup`, myRouter.PostSignup)
	router.Post(`/login`, myRouter.PostLogin)
	router.Get(`/users`, myRouter.GetUsers)
	router.Get(`/users/{user_id}`, myRouter.GetUser)

	router.Get(`/`, myRouter.GetPosts)
	router.Get(`/posts/{post_id}`, myRouter.GetPost)

	router.Group(func(protected chi.Router) {
		protected.Use(auth.AuthenticateUser)

		protected.Put(`/users/{user_id}/update`, myRouter.PutUser)
		protected.Delete(`/users/{user_id}/delete`, myRouter.DeleteUser)

		protected.Post(`/post`, myRouter.PostPost)
		protected.Put(`/posts/{post_id}/update`, myRouter.PutPost)
		protected.Delete(`/posts/{post_id}/delete`, myRouter.DeletePost)
	})

	return router
}

func (rtr *Router) trustedSubnetOnly(h http.Handler) http.Handler {
	guard := func(response http.ResponseWriter, request *http.Request) {
		if rtr.ipChecker == nil || rtr.ipChecker.IsTrustedSubnetEmpty() {
			writeJSON(response, http.StatusForbidden, errorResponse{Error: "trusted subnet is not configured"})
			return
		}

		clientIP, err := rtr.ipChecker.GetClientIP(request)
		if err != nil || !rtr.ipChecker.Check(clientIP) {
			writeJSON(response, http.StatusForbidden, errorResponse{Error: "access denied"})
			return
		}

		h.ServeHTTP(response, request)
	}

	return http.HandlerFunc(guard)
}

// GetPing reports whether the storage is reachable.
func (rtr *Router) GetPing(response http.ResponseWriter, request *http.Request) {
	if err := rtr.svc.Ping(request.Context()); err != nil {
		rtr.writeError(response, request, err)
		return
	}

	response.WriteHeader(http.StatusOK)
}

// GetInternalStats returns the number of users and posts.
func (rtr *Router) GetInternalStats(response http.ResponseWriter, request *http.Request) {
	stats, err := rtr.svc.GetInternalStats(request.Context())
	if err != nil {
		rtr.writeError(response, request, err)
		return
	}

	writeJSON(response, http.StatusOK, stats)
}
