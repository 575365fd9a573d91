// Package storage declares the contract every storage backend of the service
// fulfils, and the errors shared between the backends.
package storage

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/patric-chuzhbe/twitterapi/internal/models"
)

// ErrNotFound is returned when the identifier is absent from the collection.
var ErrNotFound = errors.New("record not found")

// ErrConflict is returned when a create or update would duplicate the
// identifier (or, for users, the email) of another record.
var ErrConflict = errors.New("record already exists")

// UserStorage is the user collection.
type UserStorage interface {
	CreateUser(ctx context.Context, usr models.User) (models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	GetUser(ctx context.Context, userID uuid.UUID) (models.User, error)
	FindUserByEmail(ctx context.Context, email string) (models.User, error)
	UpdateUser(ctx context.Context, userID uuid.UUID, usr models.User) (models.User, error)
	DeleteUser(ctx context.Context, userID uuid.UUID) (models.User, error)
	CountUsers(ctx context.Context) (int64, error)
}

// PostStorage is the post collection.
type PostStorage interface {
	CreatePost(ctx context.Context, post models.Post) (models.Post, error)
	ListPosts(ctx context.Context) ([]models.Post, error)
	GetPost(ctx context.Context, postID uuid.UUID) (models.Post, error)
	UpdatePost(ctx context.Context, postID uuid.UUID, post models.Post) (models.Post, error)
	DeletePost(ctx context.Context, postID uuid.UUID) (models.Post, error)
	CountPosts(ctx context.Context) (int64, error)
}

// Storage is a complete backend.
type Storage interface {
	UserStorage
	PostStorage
	Ping(ctx context.Context) error
	Close() error
}
