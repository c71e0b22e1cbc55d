package domain

// Card is a single question-answer fact under spaced-repetition scheduling.
// Stage counts consecutive successful reviews since the last failure (or
// creation); 0 means brand new or just failed. NextReviewDate is a local
// calendar date in YYYY-MM-DD form, so lexicographic comparison of two
// dates is calendar comparison.
type Card struct {
	ID             string `json:"id"`
	Question       string `json:"question"`
	Answer         string `json:"answer"`
	Stage          int    `json:"stage"`
	NextReviewDate string `json:"nextReviewDate"`
	LastReviewed   string `json:"lastReviewed,omitempty"`
}

// Due reports whether the card's review date has arrived as of the given
// YYYY-MM-DD date.
func (c Card) Due(asOf string) bool {
	return c.NextReviewDate <= asOf
}
