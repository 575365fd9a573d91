package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/patric-chuzhbe/twitterapi/internal/auth"
	"github.com/patric-chuzhbe/twitterapi/internal/db/memorystorage"
	"github.com/patric-chuzhbe/twitterapi/internal/db/storage"
	"github.com/patric-chuzhbe/twitterapi/internal/mockstorage"
	"github.com/patric-chuzhbe/twitterapi/internal/models"
	"github.com/patric-chuzhbe/twitterapi/internal/passwords"
)

var fixedNow = time.Date(2024, time.June, 1, 10, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (*Service, *auth.Auth) {
	t.Helper()
	db, err := memorystorage.New()
	require.NoError(t, err)

	theAuth := auth.New("auth", []byte("secret"), time.Hour)

	return New(
		db,
		passwords.New(bcrypt.MinCost),
		theAuth,
		WithClock(func() time.Time { return fixedNow }),
	), theAuth
}

func signupUser(t *testing.T, svc *Service, email, password string) models.User {
	t.Helper()
	usr, err := svc.Signup(context.Background(), models.User{
		Email:     email,
		FirstName: "Ada",
		LastName:  "Lovelace",
		Password:  password,
	})
	require.NoError(t, err)

	return usr
}

func TestSignup(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	birthDate := models.Date{Year: 2000, Month: time.January, Day: 2}
	input := models.User{
		UserID:    uuid.New(),
		Email:     "a@b.com",
		FirstName: "Ada",
		LastName:  "Lovelace",
		BirthDate: &birthDate,
		Password:  "password1",
	}

	created, err := svc.Signup(ctx, input)
	require.NoError(t, err)
	assert.Empty(t, created.Password)

	got, err := svc.GetUser(ctx, input.UserID)
	require.NoError(t, err)
	assert.Equal(t, input.Public(), got)

	stored, err := svc.db.GetUser(ctx, input.UserID)
	require.NoError(t, err)
	assert.NotEqual(t, "password1", stored.Password)
	assert.True(t, svc.hasher.Verify(stored.Password, "password1"))

	_, err = svc.Signup(ctx, models.User{Email: "A@B.com", FirstName: "X", LastName: "Y", Password: "password2"})
	assert.ErrorIs(t, err, storage.ErrConflict)
}

func TestSignupGeneratesID(t *testing.T) {
	svc, _ := newTestService(t)

	usr := signupUser(t, svc, "a@b.com", "password1")
	assert.NotEqual(t, uuid.Nil, usr.UserID)
}

func TestLogin(t *testing.T) {
	svc, theAuth := newTestService(t)
	ctx := context.Background()
	usr := signupUser(t, svc, "a@b.com", "password1")

	result, err := svc.Login(ctx, "a@b.com", "password1")
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "a@b.com", result.Email)
	userID, err := theAuth.GetUserIDFromToken(result.Token)
	require.NoError(t, err)
	assert.Equal(t, usr.UserID.String(), userID)

	result, err = svc.Login(ctx, "a@b.com", "wrong")
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, "a@b.com", result.Email)
	assert.Empty(t, result.Token)

	result, err = svc.Login(ctx, "nobody@x.com", "x")
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, "nobody@x.com", result.Email)
}

func TestLoginWithoutTokens(t *testing.T) {
	db, err := memorystorage.New()
	require.NoError(t, err)
	svc := New(db, passwords.New(bcrypt.MinCost), nil)
	signupUser(t, svc, "a@b.com", "password1")

	result, err := svc.Login(context.Background(), "a@b.com", "password1")
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Empty(t, result.Token)
}

func TestLoginStorageFailure(t *testing.T) {
	db := &mockstorage.StorageMock{}
	brokenDisk := errors.New("disk is on fire")
	db.On("FindUserByEmail", mock.Anything, "a@b.com").Return(models.User{}, brokenDisk)
	svc := New(db, passwords.New(bcrypt.MinCost), nil)

	_, err := svc.Login(context.Background(), "a@b.com", "password1")
	assert.ErrorIs(t, err, brokenDisk)
	db.AssertExpectations(t)
}

func TestUpdateUser(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	usr := signupUser(t, svc, "a@b.com", "password1")

	changes := usr
	changes.FirstName = "Grace"
	updated, err := svc.UpdateUser(ctx, usr.UserID, changes)
	require.NoError(t, err)
	assert.Equal(t, "Grace", updated.FirstName)
	assert.Empty(t, updated.Password)

	result, err := svc.Login(ctx, "a@b.com", "password1")
	require.NoError(t, err)
	assert.True(t, result.Success, "an empty password keeps the stored one")

	changes.Password = "new-password"
	_, err = svc.UpdateUser(ctx, usr.UserID, changes)
	require.NoError(t, err)
	result, err = svc.Login(ctx, "a@b.com", "new-password")
	require.NoError(t, err)
	assert.True(t, result.Success)

	users, err := svc.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)
	for _, listed := range users {
		assert.Empty(t, listed.Password)
	}
}

func TestUpdateUserKeepsIDWhenNoneGiven(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	usr := signupUser(t, svc, "a@b.com", "password1")

	changes := usr
	changes.UserID = uuid.Nil
	updated, err := svc.UpdateUser(ctx, usr.UserID, changes)
	require.NoError(t, err)
	assert.Equal(t, usr.UserID, updated.UserID)
}

func TestUpdateUserReassignsID(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	usr := signupUser(t, svc, "a@b.com", "password1")

	changes := usr
	changes.UserID = uuid.New()
	_, err := svc.UpdateUser(ctx, usr.UserID, changes)
	require.NoError(t, err)

	_, err = svc.GetUser(ctx, usr.UserID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = svc.GetUser(ctx, changes.UserID)
	assert.NoError(t, err)
}

func TestUserNotFound(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.GetUser(ctx, uuid.New())
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = svc.UpdateUser(ctx, uuid.New(), models.User{Email: "a@b.com"})
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = svc.DeleteUser(ctx, uuid.New())
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestDeleteUser(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	first := signupUser(t, svc, "first@example.com", "password1")
	signupUser(t, svc, "second@example.com", "password1")

	removed, err := svc.DeleteUser(ctx, first.UserID)
	require.NoError(t, err)
	assert.Equal(t, first, removed)

	users, err := svc.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestPostEmbedsAuthorSnapshot(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	author := signupUser(t, svc, "a@b.com", "password1")

	post, err := svc.CreatePost(ctx, models.NewPost{Content: "first!", AuthorID: author.UserID})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, post.PostID)
	assert.Equal(t, fixedNow, post.CreatedAt)
	assert.Nil(t, post.UpdatedAt)
	assert.Equal(t, author, post.By)
	assert.Empty(t, post.By.Password)

	renamed := author
	renamed.FirstName = "Grace"
	_, err = svc.UpdateUser(ctx, author.UserID, renamed)
	require.NoError(t, err)

	got, err := svc.GetPost(ctx, post.PostID)
	require.NoError(t, err)
	assert.Equal(t, "Ada", got.By.FirstName)
}

func TestCreatePostKeepsGivenFields(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	author := signupUser(t, svc, "a@b.com", "password1")

	postID := uuid.New()
	createdAt := time.Date(2023, time.February, 3, 4, 5, 6, 0, time.UTC)
	post, err := svc.CreatePost(ctx, models.NewPost{
		PostID:    postID,
		Content:   "hello",
		CreatedAt: createdAt,
		AuthorID:  author.UserID,
	})
	require.NoError(t, err)
	assert.Equal(t, postID, post.PostID)
	assert.Equal(t, createdAt, post.CreatedAt)

	_, err = svc.CreatePost(ctx, models.NewPost{PostID: postID, Content: "again", AuthorID: author.UserID})
	assert.ErrorIs(t, err, storage.ErrConflict)
}

func TestCreatePostTruncatesCreatedAt(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	author := signupUser(t, svc, "a@b.com", "password1")

	offset := time.FixedZone("UTC+3", 3*60*60)
	createdAt := time.Date(2023, time.February, 3, 7, 5, 6, 123456789, offset)
	post, err := svc.CreatePost(ctx, models.NewPost{Content: "hello", CreatedAt: createdAt, AuthorID: author.UserID})
	require.NoError(t, err)

	want := time.Date(2023, time.February, 3, 4, 5, 6, 123456000, time.UTC)
	assert.Equal(t, want, post.CreatedAt)

	stored, err := svc.GetPost(ctx, post.PostID)
	require.NoError(t, err)
	assert.Equal(t, want, stored.CreatedAt)
}

func TestCreatePostWithUnknownAuthor(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.CreatePost(context.Background(), models.NewPost{Content: "hello", AuthorID: uuid.New()})
	assert.ErrorIs(t, err, ErrAuthorNotFound)
}

func TestUpdatePost(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	author := signupUser(t, svc, "a@b.com", "password1")
	createdAt := time.Date(2023, time.February, 3, 4, 5, 6, 0, time.UTC)
	post, err := svc.CreatePost(ctx, models.NewPost{Content: "hello", CreatedAt: createdAt, AuthorID: author.UserID})
	require.NoError(t, err)

	updated, err := svc.UpdatePost(ctx, post.PostID, models.PostChanges{Content: "edited"})
	require.NoError(t, err)
	assert.Equal(t, "edited", updated.Content)
	assert.Equal(t, post.PostID, updated.PostID)
	assert.Equal(t, createdAt, updated.CreatedAt)
	assert.Equal(t, post.By, updated.By)
	require.NotNil(t, updated.UpdatedAt)
	assert.Equal(t, fixedNow, *updated.UpdatedAt)

	posts, err := svc.ListPosts(ctx)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, updated, posts[0])

	_, err = svc.UpdatePost(ctx, uuid.New(), models.PostChanges{Content: "nope"})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestDeletePost(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	author := signupUser(t, svc, "a@b.com", "password1")
	post, err := svc.CreatePost(ctx, models.NewPost{Content: "hello", AuthorID: author.UserID})
	require.NoError(t, err)

	_, err = svc.DeletePost(ctx, post.PostID)
	require.NoError(t, err)

	_, err = svc.GetPost(ctx, post.PostID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = svc.DeletePost(ctx, post.PostID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestGetInternalStats(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	author := signupUser(t, svc, "a@b.com", "password1")
	signupUser(t, svc, "c@d.com", "password1")
	_, err := svc.CreatePost(ctx, models.NewPost{Content: "hello", AuthorID: author.UserID})
	require.NoError(t, err)

	stats, err := svc.GetInternalStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.InternalStatsResponse{Users: 2, Posts: 1}, stats)

	assert.NoError(t, svc.Ping(ctx))
}

func TestGetInternalStatsStorageFailure(t *testing.T) {
	db := &mockstorage.StorageMock{}
	brokenDisk := errors.New("disk is on fire")
	db.On("CountUsers", mock.Anything).Return(int64(3), nil)
	db.On("CountPosts", mock.Anything).Return(int64(0), brokenDisk)
	svc := New(db, passwords.New(bcrypt.MinCost), nil)

	_, err := svc.GetInternalStats(context.Background())
	assert.ErrorIs(t, err, brokenDisk)
	db.AssertExpectations(t)
}
