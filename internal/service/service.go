package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/thoas/go-funk"

	"github.com/patric-chuzhbe/twitterapi/internal/db/storage"
	"github.com/patric-chuzhbe/twitterapi/internal/models"
)

type userKeeper interface {
	CreateUser(ctx context.Context, usr models.User) (models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	GetUser(ctx context.Context, userID uuid.UUID) (models.User, error)
	FindUserByEmail(ctx context.Context, email string) (models.User, error)
	UpdateUser(ctx context.Context, userID uuid.UUID, usr models.User) (models.User, error)
	DeleteUser(ctx context.Context, userID uuid.UUID) (models.User, error)
	CountUsers(ctx context.Context) (int64, error)
}

type postKeeper interface {
	CreatePost(ctx context.Context, post models.Post) (models.Post, error)
	ListPosts(ctx context.Context) ([]models.Post, error)
	GetPost(ctx context.Context, postID uuid.UUID) (models.Post, error)
	UpdatePost(ctx context.Context, postID uuid.UUID, post models.Post) (models.Post, error)
	DeletePost(ctx context.Context, postID uuid.UUID) (models.Post, error)
	CountPosts(ctx context.Context) (int64, error)
}

type pinger interface {
	Ping(ctx context.Context) error
}

type dataKeeper interface {
	userKeeper
	postKeeper
	pinger
}

type passwordHasher interface {
	Hash(password string) (string, error)
	Verify(hash, password string) bool
}

type tokenIssuer interface {
	BuildJWTString(userID uuid.UUID, email string) (string, error)
}

// ErrAuthorNotFound is returned when a new post names a user that does not exist.
var ErrAuthorNotFound = errors.New("post author not found")

const (
	loginSucceeded = "Login successful"
	loginFailed    = "Login failed: wrong email or password"
)

type Service struct {
	db     dataKeeper
	hasher passwordHasher
	tokens tokenIssuer
	now    func() time.Time
}

type initOptions struct {
	now func() time.Time
}

// InitOption configures New.
type InitOption func(*initOptions)

// WithClock replaces the source of creation and edit timestamps.
func WithClock(now func() time.Time) InitOption {
	return func(options *initOptions) {
		options.now = now
	}
}

// Timestamps are kept at microsecond precision, the finest every backend can
// store.
func defaultNow() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// New creates the service. tokens may be nil, in which case successful logins
// carry no token.
func New(
	db dataKeeper,
	hasher passwordHasher,
	tokens tokenIssuer,
	optionsProto ...InitOption,
) *Service {
	options := &initOptions{
		now: defaultNow,
	}
	for _, protoOption := range optionsProto {
		protoOption(options)
	}

	return &Service{
		db:     db,
		hasher: hasher,
		tokens: tokens,
		now:    options.now,
	}
}

func publicUsers(users []models.User) []models.User {
	return funk.Map(users, func(usr models.User) models.User { return usr.Public() }).([]models.User)
}

// Signup stores a new user. A missing UserID is generated; usr.Password is
// the plain-text password and is hashed before it is stored.
func (s *Service) Signup(ctx context.Context, usr models.User) (models.User, error) {
	if usr.UserID == uuid.Nil {
		usr.UserID = uuid.New()
	}

	hash, err := s.hasher.Hash(usr.Password)
	if err != nil {
		return models.User{}, err
	}
	usr.Password = hash

	created, err := s.db.CreateUser(ctx, usr)
	if err != nil {
		return models.User{}, err
	}

	return created.Public(), nil
}

// Login checks the credentials. Failure is reported through the result, an
// error means the check itself could not be made.
func (s *Service) Login(ctx context.Context, email, password string) (models.LoginResult, error) {
	failure := models.LoginResult{Success: false, Email: email, Message: loginFailed}

	usr, err := s.db.FindUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return failure, nil
		}
		return models.LoginResult{}, err
	}

	if !s.hasher.Verify(usr.Password, password) {
		return failure, nil
	}

	result := models.LoginResult{Success: true, Email: email, Message: loginSucceeded}
	if s.tokens != nil {
		result.Token, err = s.tokens.BuildJWTString(usr.UserID, usr.Email)
		if err != nil {
			return models.LoginResult{}, err
		}
	}

	return result, nil
}

func (s *Service) ListUsers(ctx context.Context) ([]models.User, error) {
	users, err := s.db.ListUsers(ctx)
	if err != nil {
		return nil, err
	}

	return publicUsers(users), nil
}

func (s *Service) GetUser(ctx context.Context, userID uuid.UUID) (models.User, error) {
	usr, err := s.db.GetUser(ctx, userID)
	if err != nil {
		return models.User{}, err
	}

	return usr.Public(), nil
}

// UpdateUser replaces the user stored under userID. A zero changes.UserID
// keeps the identifier, an empty changes.Password keeps the stored hash.
func (s *Service) UpdateUser(ctx context.Context, userID uuid.UUID, changes models.User) (models.User, error) {
	current, err := s.db.GetUser(ctx, userID)
	if err != nil {
		return models.User{}, err
	}

	if changes.UserID == uuid.Nil {
		changes.UserID = current.UserID
	}

	if changes.Password == "" {
		changes.Password = current.Password
	} else {
		changes.Password, err = s.hasher.Hash(changes.Password)
		if err != nil {
			return models.User{}, err
		}
	}

	updated, err := s.db.UpdateUser(ctx, userID, changes)
	if err != nil {
		return models.User{}, err
	}

	return updated.Public(), nil
}

func (s *Service) DeleteUser(ctx context.Context, userID uuid.UUID) (models.User, error) {
	removed, err := s.db.DeleteUser(ctx, userID)
	if err != nil {
		return models.User{}, err
	}

	return removed.Public(), nil
}

// CreatePost stores a new post with a snapshot of its author as the author
// is right now.
func (s *Service) CreatePost(ctx context.Context, newPost models.NewPost) (models.Post, error) {
	author, err := s.db.GetUser(ctx, newPost.AuthorID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.Post{}, fmt.Errorf("%w: %s", ErrAuthorNotFound, newPost.AuthorID)
		}
		return models.Post{}, err
	}

	post := models.Post{
		PostID:    newPost.PostID,
		Content:   newPost.Content,
		CreatedAt: newPost.CreatedAt.UTC().Truncate(time.Microsecond),
		By:        author.Public(),
	}
	if post.PostID == uuid.Nil {
		post.PostID = uuid.New()
	}
	if newPost.CreatedAt.IsZero() {
		post.CreatedAt = s.now()
	}

	return s.db.CreatePost(ctx, post)
}

func (s *Service) ListPosts(ctx context.Context) ([]models.Post, error) {
	return s.db.ListPosts(ctx)
}

func (s *Service) GetPost(ctx context.Context, postID uuid.UUID) (models.Post, error) {
	return s.db.GetPost(ctx, postID)
}

// UpdatePost edits the content of a post and stamps UpdatedAt. The author
// snapshot and creation time are kept.
func (s *Service) UpdatePost(ctx context.Context, postID uuid.UUID, changes models.PostChanges) (models.Post, error) {
	post, err := s.db.GetPost(ctx, postID)
	if err != nil {
		return models.Post{}, err
	}

	if changes.PostID != uuid.Nil {
		post.PostID = changes.PostID
	}
	post.Content = changes.Content
	updatedAt := s.now()
	post.UpdatedAt = &updatedAt

	return s.db.UpdatePost(ctx, postID, post)
}

func (s *Service) DeletePost(ctx context.Context, postID uuid.UUID) (models.Post, error) {
	return s.db.DeletePost(ctx, postID)
}

// GetInternalStats returns the sizes of both collections.
func (s *Service) GetInternalStats(ctx context.Context) (models.InternalStatsResponse, error) {
	users, err := s.db.CountUsers(ctx)
	if err != nil {
		return models.InternalStatsResponse{}, err
	}

	posts, err := s.db.CountPosts(ctx)
	if err != nil {
		return models.InternalStatsResponse{}, err
	}

	return models.InternalStatsResponse{
		Users: users,
		Posts: posts,
	}, nil
}

// Ping checks the health of the storage layer.
func (s *Service) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}
