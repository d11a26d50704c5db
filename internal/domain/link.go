package domain

// Link is a stored mapping from a short code to its target URL.
// Once created, LongURL and ShortCode never change; Clicks only grows,
// and only through a resolve.
type Link struct {
	ID        int64  `json:"id"`         // Surrogate key assigned by the storage layer
	LongURL   string `json:"long_url"`   // Redirect target, stored as given
	ShortCode string `json:"short_code"` // Unique across all links
	Clicks    int64  `json:"clicks"`     // Number of completed resolves
}

// NewLink creates a link that has not been persisted yet
func NewLink(longURL, shortCode string) *Link {
	return &Link{
		LongURL:   longURL,
		ShortCode: shortCode,
		Clicks:    0,
	}
}
