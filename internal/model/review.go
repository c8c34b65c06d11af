package model

import "time"

const (
	MinRating = 1
	MaxRating = 5
)

// Review is one user's star rating and text for one book.
// A user has at most one review per book.
type Review struct {
	ID          string    `json:"id"`
	BookID      string    `json:"bookId"`
	UserID      string    `json:"userId"`
	Rating      int       `json:"rating"`
	Content     string    `json:"content"`
	Recommended bool      `json:"isRecommended"`
	ReviewDate  time.Time `json:"reviewDate"`
}

// ReviewPatch is a partial update of the mutable review fields.
type ReviewPatch struct {
	Rating      *int    `json:"rating,omitempty"`
	Content     *string `json:"content,omitempty"`
	Recommended *bool   `json:"isRecommended,omitempty"`
}

// ReviewView is a review annotated for activity feeds. BookTitle and
// ReviewerName fall back to placeholders when the referenced record is gone.
type ReviewView struct {
	Review
	BookTitle    string `json:"bookTitle"`
	BookAuthor   string `json:"bookAuthor"`
	ReviewerName string `json:"reviewerName"`
}
