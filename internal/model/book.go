package model

import "time"

// Book is a catalog entry. AddedBy is the ID of the user who created it;
// only that user may edit or delete it.
type Book struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Author      string    `json:"author"`
	Publisher   string    `json:"publisher"`
	Genre       string    `json:"genre"`
	PublishDate string    `json:"publishDate,omitempty"`
	Description string    `json:"description"`
	CoverImage  string    `json:"coverImage,omitempty"`
	AddedBy     string    `json:"addedBy"`
	CreatedAt   time.Time `json:"createdAt"`
}

// BookInput carries the fields accepted when adding a book.
// Title and Author are required after trimming; everything else is optional.
type BookInput struct {
	Title       string `json:"title"       validate:"required"`
	Author      string `json:"author"      validate:"required"`
	Publisher   string `json:"publisher"`
	Genre       string `json:"genre"`
	PublishDate string `json:"publishDate"`
	Description string `json:"description"`
	CoverImage  string `json:"coverImage"`
}

// BookPatch is a partial update. Nil fields are left untouched.
type BookPatch struct {
	Title       *string `json:"title,omitempty"`
	Author      *string `json:"author,omitempty"`
	Publisher   *string `json:"publisher,omitempty"`
	Genre       *string `json:"genre,omitempty"`
	PublishDate *string `json:"publishDate,omitempty"`
	Description *string `json:"description,omitempty"`
	CoverImage  *string `json:"coverImage,omitempty"`
}

// IsEmpty reports whether the patch would change nothing.
func (p BookPatch) IsEmpty() bool {
	return p.Title == nil && p.Author == nil && p.Publisher == nil &&
		p.Genre == nil && p.PublishDate == nil && p.Description == nil &&
		p.CoverImage == nil
}

// RankedBook is a book annotated with its computed aggregates.
type RankedBook struct {
	Book
	ReviewCount   int     `json:"reviewCount"`
	AverageRating float64 `json:"averageRating"`
}

// BookDetail is everything a detail view needs about one book.
type BookDetail struct {
	Book          Book     `json:"book"`
	Reviews       []Review `json:"reviews"`
	ReviewCount   int      `json:"reviewCount"`
	AverageRating float64  `json:"averageRating"`
}
