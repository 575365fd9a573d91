package models

import (
	"time"

	"github.com/google/uuid"
)

// Post is a short text message. By is a snapshot of the author taken when the
// post was created; later edits of the author do not reach it.
type Post struct {
	PostID    uuid.UUID  `json:"post_id"`
	Content   string     `json:"content"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
	By        User       `json:"by"`
}

// PostAuthorRef identifies the author of a new post. Any other author fields
// sent by the client are ignored, the snapshot is taken from storage.
type PostAuthorRef struct {
	UserID string `json:"user_id" validate:"required,uuid"`
}

// CreatePostRequest is the body of POST /post.
type CreatePostRequest struct {
	PostID    string        `json:"post_id" validate:"omitempty,uuid"`
	Content   string        `json:"content" validate:"required,min=1,max=256"`
	CreatedAt string        `json:"created_at" validate:"omitempty,rfc3339"`
	By        PostAuthorRef `json:"by"`
}

// UpdatePostRequest is the body of PUT /posts/{post_id}/update. A non-empty
// PostID reassigns the post's identifier.
type UpdatePostRequest struct {
	PostID  string `json:"post_id" validate:"omitempty,uuid"`
	Content string `json:"content" validate:"required,min=1,max=256"`
}

// NewPost holds the parsed fields of a CreatePostRequest.
type NewPost struct {
	PostID    uuid.UUID
	Content   string
	CreatedAt time.Time
	AuthorID  uuid.UUID
}

// PostChanges holds the parsed fields of an UpdatePostRequest.
type PostChanges struct {
	PostID  uuid.UUID
	Content string
}

// ToNewPost maps a validated create request. Zero values of PostID and
// CreatedAt mean the caller did not supply them.
func (r CreatePostRequest) ToNewPost() (NewPost, error) {
	postID, err := parseOptionalUUID(r.PostID)
	if err != nil {
		return NewPost{}, err
	}
	authorID, err := uuid.Parse(r.By.UserID)
	if err != nil {
		return NewPost{}, err
	}
	var createdAt time.Time
	if r.CreatedAt != "" {
		createdAt, err = time.Parse(time.RFC3339, r.CreatedAt)
		if err != nil {
			return NewPost{}, err
		}
	}

	return NewPost{
		PostID:    postID,
		Content:   r.Content,
		CreatedAt: createdAt,
		AuthorID:  authorID,
	}, nil
}

// ToPostChanges maps a validated update request.
func (r UpdatePostRequest) ToPostChanges() (PostChanges, error) {
	postID, err := parseOptionalUUID(r.PostID)
	if err != nil {
		return PostChanges{}, err
	}

	return PostChanges{PostID: postID, Content: r.Content}, nil
}
