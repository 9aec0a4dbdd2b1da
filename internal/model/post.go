package model

import "time"

// MaxTextLen is the hard bound on post text, in runes.
const MaxTextLen = 280

// Post is a single user-authored entry: text plus an optional image.
// Display order is created_at DESC with id DESC breaking ties, so
// same-timestamp posts list in reverse insertion order.
type Post struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	AuthorID  uint      `gorm:"index:idx_post_author;not null" json:"author_id"`
	Author    User      `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE" json:"author"`
	Text      string    `gorm:"size:280;not null" json:"text"`
	ImagePath string    `gorm:"size:255" json:"image_path,omitempty"`
	CreatedAt time.Time `gorm:"index:idx_post_created" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Post) TableName() string { return "posts" }

func (p *Post) HasImage() bool { return p.ImagePath != "" }
