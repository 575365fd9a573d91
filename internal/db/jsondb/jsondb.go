// Package jsondb stores users and posts as two JSON arrays, one per file.
// Every operation reads the whole array, scans it and, when mutating, rewrites
// it. Operations on the same collection are serialized inside the process.
package jsondb

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/patric-chuzhbe/twitterapi/internal/db/storage"
	"github.com/patric-chuzhbe/twitterapi/internal/models"
)

// ErrSameFile is returned when users and posts are pointed at one file.
var ErrSameFile = errors.New("users and posts must be stored in different files")

// JSONDB is a storage.Storage over two Blobs.
type JSONDB struct {
	users *collection[models.User]
	posts *collection[models.Post]
}

// New opens the file-backed store, creating each file holding an empty array
// when it does not exist yet.
func New(usersFileName, postsFileName string) (*JSONDB, error) {
	same, err := samePath(usersFileName, postsFileName)
	if err != nil {
		return nil, fmt.Errorf("in internal/db/jsondb/jsondb.go/New(): error while `samePath()` calling: %w", err)
	}
	if same {
		return nil, fmt.Errorf("%w: %q", ErrSameFile, usersFileName)
	}

	for _, fileName := range []string{usersFileName, postsFileName} {
		if err := initDBFile(fileName); err != nil {
			return nil, fmt.Errorf(
				"in internal/db/jsondb/jsondb.go/New(): error while `initDBFile(%q)` calling: %w",
				fileName,
				err,
			)
		}
	}

	return NewWithBlobs(
		&fileBlob{fileName: usersFileName},
		&fileBlob{fileName: postsFileName},
	), nil
}

func samePath(first, second string) (bool, error) {
	firstAbs, err := filepath.Abs(first)
	if err != nil {
		return false, err
	}
	secondAbs, err := filepath.Abs(second)
	if err != nil {
		return false, err
	}

	return firstAbs == secondAbs, nil
}

// NewWithBlobs builds a store over arbitrary Blobs.
func NewWithBlobs(users, posts Blob) *JSONDB {
	return &JSONDB{
		users: newCollection[models.User]("users", users),
		posts: newCollection[models.Post]("posts", posts),
	}
}

func userByID(userID uuid.UUID) func(models.User) bool {
	return func(usr models.User) bool { return usr.UserID == userID }
}

func postByID(postID uuid.UUID) func(models.Post) bool {
	return func(post models.Post) bool { return post.PostID == postID }
}

// userCollides reports whether candidate shares its id or email with any
// user other than the one at index skip.
func userCollides(users []models.User, candidate models.User, skip int) bool {
	for i, usr := range users {
		if i == skip {
			continue
		}
		if usr.UserID == candidate.UserID || strings.EqualFold(usr.Email, candidate.Email) {
			return true
		}
	}

	return false
}

func postCollides(posts []models.Post, candidate models.Post, skip int) bool {
	for i, post := range posts {
		if i != skip && post.PostID == candidate.PostID {
			return true
		}
	}

	return false
}

func (db *JSONDB) CreateUser(ctx context.Context, usr models.User) (models.User, error) {
	err := db.users.update(ctx, func(users []models.User) ([]models.User, error) {
		if userCollides(users, usr, -1) {
			return nil, fmt.Errorf("user %s <%s>: %w", usr.UserID, usr.Email, storage.ErrConflict)
		}
		return append(users, usr), nil
	})
	if err != nil {
		return models.User{}, err
	}

	return usr, nil
}

func (db *JSONDB) ListUsers(ctx context.Context) ([]models.User, error) {
	return db.users.read(ctx)
}

func (db *JSONDB) GetUser(ctx context.Context, userID uuid.UUID) (models.User, error) {
	users, err := db.users.read(ctx)
	if err != nil {
		return models.User{}, err
	}

	i := slices.IndexFunc(users, userByID(userID))
	if i < 0 {
		return models.User{}, fmt.Errorf("user %s: %w", userID, storage.ErrNotFound)
	}

	return users[i], nil
}

func (db *JSONDB) FindUserByEmail(ctx context.Context, email string) (models.User, error) {
	users, err := db.users.read(ctx)
	if err != nil {
		return models.User{}, err
	}

	i := slices.IndexFunc(users, func(usr models.User) bool { return strings.EqualFold(usr.Email, email) })
	if i < 0 {
		return models.User{}, fmt.Errorf("user <%s>: %w", email, storage.ErrNotFound)
	}

	return users[i], nil
}

// UpdateUser replaces the user stored under userID with usr. usr may carry a
// different UserID, which moves the record to the new identifier.
func (db *JSONDB) UpdateUser(ctx context.Context, userID uuid.UUID, usr models.User) (models.User, error) {
	err := db.users.update(ctx, func(users []models.User) ([]models.User, error) {
		i := slices.IndexFunc(users, userByID(userID))
		if i < 0 {
			return nil, fmt.Errorf("user %s: %w", userID, storage.ErrNotFound)
		}
		if userCollides(users, usr, i) {
			return nil, fmt.Errorf("user %s <%s>: %w", usr.UserID, usr.Email, storage.ErrConflict)
		}
		users[i] = usr
		return users, nil
	})
	if err != nil {
		return models.User{}, err
	}

	return usr, nil
}

func (db *JSONDB) DeleteUser(ctx context.Context, userID uuid.UUID) (models.User, error) {
	var removed models.User
	err := db.users.update(ctx, func(users []models.User) ([]models.User, error) {
		i := slices.IndexFunc(users, userByID(userID))
		if i < 0 {
			return nil, fmt.Errorf("user %s: %w", userID, storage.ErrNotFound)
		}
		removed = users[i]
		return slices.Delete(users, i, i+1), nil
	})
	if err != nil {
		return models.User{}, err
	}

	return removed, nil
}

func (db *JSONDB) CountUsers(ctx context.Context) (int64, error) {
	users, err := db.users.read(ctx)
	if err != nil {
		return 0, err
	}

	return int64(len(users)), nil
}

func (db *JSONDB) CreatePost(ctx context.Context, post models.Post) (models.Post, error) {
	err := db.posts.update(ctx, func(posts []models.Post) ([]models.Post, error) {
		if postCollides(posts, post, -1) {
			return nil, fmt.Errorf("post %s: %w", post.PostID, storage.ErrConflict)
		}
		return append(posts, post), nil
	})
	if err != nil {
		return models.Post{}, err
	}

	return post, nil
}

func (db *JSONDB) ListPosts(ctx context.Context) ([]models.Post, error) {
	return db.posts.read(ctx)
}

func (db *JSONDB) GetPost(ctx context.Context, postID uuid.UUID) (models.Post, error) {
	posts, err := db.posts.read(ctx)
	if err != nil {
		return models.Post{}, err
	}

	i := slices.IndexFunc(posts, postByID(postID))
	if i < 0 {
		return models.Post{}, fmt.Errorf("post %s: %w", postID, storage.ErrNotFound)
	}

	return posts[i], nil
}

func (db *JSONDB) UpdatePost(ctx context.Context, postID uuid.UUID, post models.Post) (models.Post, error) {
	err := db.posts.update(ctx, func(posts []models.Post) ([]models.Post, error) {
		i := slices.IndexFunc(posts, postByID(postID))
		if i < 0 {
			return nil, fmt.Errorf("post %s: %w", postID, storage.ErrNotFound)
		}
		if postCollides(posts, post, i) {
			return nil, fmt.Errorf("post %s: %w", post.PostID, storage.ErrConflict)
		}
		posts[i] = post
		return posts, nil
	})
	if err != nil {
		return models.Post{}, err
	}

	return post, nil
}

func (db *JSONDB) DeletePost(ctx context.Context, postID uuid.UUID) (models.Post, error) {
	var removed models.Post
	err := db.posts.update(ctx, func(posts []models.Post) ([]models.Post, error) {
		i := slices.IndexFunc(posts, postByID(postID))
		if i < 0 {
			return nil, fmt.Errorf("post %s: %w", postID, storage.ErrNotFound)
		}
		removed = posts[i]
		return slices.Delete(posts, i, i+1), nil
	})
	if err != nil {
		return models.Post{}, err
	}

	return removed, nil
}

func (db *JSONDB) CountPosts(ctx context.Context) (int64, error) {
	posts, err := db.posts.read(ctx)
	if err != nil {
		return 0, err
	}

	return int64(len(posts)), nil
}

// Ping checks that both collections can be read and decoded.
func (db *JSONDB) Ping(ctx context.Context) error {
	if _, err := db.users.read(ctx); err != nil {
		return err
	}
	_, err := db.posts.read(ctx)

	return err
}

// Close is a no-op: nothing is held open between operations.
func (db *JSONDB) Close() error {
	return nil
}
