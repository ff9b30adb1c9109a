package dto

import (
	"time"

	"github.com/noah-isme/school-portal-api/internal/models"
)

// CreatePostRequest is the text part of the multipart POST /posts form.
type CreatePostRequest struct {
	Text string `form:"text" validate:"max=5000"`
}

// UpdatePostRequest captures PUT /posts/{postId}.
type UpdatePostRequest struct {
	Text string `json:"text" validate:"max=5000"`
}

// PostResponse is a post enriched with its author.
type PostResponse struct {
	PostID      string          `json:"postId"`
	AuthorID    string          `json:"authorId"`
	AuthorRole  models.UserRole `json:"authorRole"`
	AuthorName  string          `json:"authorName"`
	AuthorImage string          `json:"authorImage,omitempty"`
	Message     string          `json:"message"`
	MediaURL    string          `json:"postUrl,omitempty"`
	LikeCount   int             `json:"likeCount"`
	LikedByMe   bool            `json:"likedByMe"`
	Edited      bool            `json:"edited"`
	CreatedAt   time.Time       `json:"time"`
	UpdatedAt   *time.Time      `json:"updatedAt,omitempty"`
}

// LikeResponse is returned by the like toggle.
type LikeResponse struct {
	PostID    string `json:"postId"`
	Liked     bool   `json:"liked"`
	LikeCount int    `json:"likeCount"`
}
