package models

import "time"

// AnonymousAuthor replaces the owner's name on poems published anonymously.
const AnonymousAuthor = "Anonymous"

// Sort orders accepted by the feed. Anything that is not SortOldest lists newest first.
const (
	SortOldest = "oldest"
	SortNewest = "newest"
)

type Poem struct {
	ID        int64     `bson:"_id" json:"id"`
	UserID    int64     `bson:"user_id" json:"user_id"`
	Title     string    `bson:"title" json:"title"`
	Content   string    `bson:"content" json:"content"`
	Tags      *string   `bson:"tags" json:"tags"` // free text, null when not given
	Anonymous bool      `bson:"anonymous" json:"anonymous"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	// Author is computed at read time and never stored.
	Author string `bson:"-" json:"author,omitempty"`
}

// AuthorName is the display name shown for a poem owned by ownerName.
func AuthorName(anonymous bool, ownerName string) string {
	if anonymous {
		return AnonymousAuthor
	}
	return ownerName
}

// PoemQuery filters and orders the public feed.
type PoemQuery struct {
	Search string
	Sort   string
}

func (q PoemQuery) Ascending() bool {
	return q.Sort == SortOldest
}
