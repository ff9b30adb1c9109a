package models

import "time"

// Post is a feed entry authored by a school admin or teacher.
type Post struct {
	ID         string          `json:"postId"`
	AuthorID   string          `json:"authorId"`
	AuthorRole UserRole        `json:"authorRole"`
	Message    string          `json:"message"`
	MediaURL   string          `json:"postUrl,omitempty"`
	Likes      map[string]bool `json:"likes,omitempty"`
	LikeCount  int             `json:"likeCount"`
	Edited     bool            `json:"edited,omitempty"`
	CreatedAt  time.Time       `json:"time"`
	UpdatedAt  *time.Time      `json:"updatedAt,omitempty"`
}
