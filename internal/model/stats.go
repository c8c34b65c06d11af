package model

// GenreCount is how many of a user's reviewed books fall in one genre.
type GenreCount struct {
	Genre string `json:"genre"`
	Count int    `json:"count"`
}

// UserStats summarizes one reader's reviews.
type UserStats struct {
	TotalReviews     int          `json:"totalReviews"`
	AverageRating    float64      `json:"averageRating"`
	RecommendedCount int          `json:"recommendedBooks"`
	FavoriteGenres   []GenreCount `json:"favoriteGenres"`
}

// OverallStats holds catalog-wide totals.
type OverallStats struct {
	TotalBooks    int     `json:"totalBooks"`
	TotalReviews  int     `json:"totalReviews"`
	TotalUsers    int     `json:"totalUsers"`
	AverageRating float64 `json:"averageRating"`
}

// Snapshot is the whole persisted catalog in one document, laid out the way
// the key-value store holds it.
type Snapshot struct {
	Users       []User   `json:"users"`
	Books       []Book   `json:"books"`
	Reviews     []Review `json:"reviews"`
	CurrentUser *User    `json:"currentUser,omitempty"`
}
