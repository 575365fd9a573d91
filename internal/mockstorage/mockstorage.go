// Package mockstorage provides a testify-based mock implementation
// of storage.Storage. It is used to drive the service and the router into
// storage failures that the real backends cannot easily produce.
package mockstorage

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/patric-chuzhbe/twitterapi/internal/models"
)

// StorageMock is a testify mock of storage.Storage.
type StorageMock struct {
	mock.Mock
}

// Ping mocks the storage health check.
func (m *StorageMock) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// Close mocks closing the storage and releasing resources.
func (m *StorageMock) Close() error {
	args := m.Called()
	return args.Error(0)
}

func (m *StorageMock) CreateUser(ctx context.Context, usr models.User) (models.User, error) {
	args := m.Called(ctx, usr)
	return args.Get(0).(models.User), args.Error(1)
}

func (m *StorageMock) ListUsers(ctx context.Context) ([]models.User, error) {
	args := m.Called(ctx)
	users, _ := args.Get(0).([]models.User)
	return users, args.Error(1)
}

func (m *StorageMock) GetUser(ctx context.Context, userID uuid.UUID) (models.User, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(models.User), args.Error(1)
}

func (m *StorageMock) FindUserByEmail(ctx context.Context, email string) (models.User, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(models.User), args.Error(1)
}

func (m *StorageMock) UpdateUser(ctx context.Context, userID uuid.UUID, usr models.User) (models.User, error) {
	args := m.Called(ctx, userID, usr)
	return args.Get(0).(models.User), args.Error(1)
}

func (m *StorageMock) DeleteUser(ctx context.Context, userID uuid.UUID) (models.User, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(models.User), args.Error(1)
}

// CountUsers mocks counting the user collection.
func (m *StorageMock) CountUsers(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *StorageMock) CreatePost(ctx context.Context, post models.Post) (models.Post, error) {
	args := m.Called(ctx, post)
	return args.Get(0).(models.Post), args.Error(1)
}

func (m *StorageMock) ListPosts(ctx context.Context) ([]models.Post, error) {
	args := m.Called(ctx)
	posts, _ := args.Get(0).([]models.Post)
	return posts, args.Error(1)
}

func (m *StorageMock) GetPost(ctx context.Context, postID uuid.UUID) (models.Post, error) {
	args := m.Called(ctx, postID)
	return args.Get(0).(models.Post), args.Error(1)
}

func (m *StorageMock) UpdatePost(ctx context.Context, postID uuid.UUID, post models.Post) (models.Post, error) {
	args := m.Called(ctx, postID, post)
	return args.Get(0).(models.Post), args.Error(1)
}

func (m *StorageMock) DeletePost(ctx context.Context, postID uuid.UUID) (models.Post, error) {
	args := m.Called(ctx, postID)
	return args.Get(0).(models.Post), args.Error(1)
}

// CountPosts mocks counting the post collection.
func (m *StorageMock) CountPosts(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}
