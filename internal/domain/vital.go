package domain

// Vital is a single web-vitals measurement reported by a browser
type Vital struct {
	Name           string  `json:"name"`
	Value          float64 `json:"value"`
	Rating         string  `json:"rating,omitempty"`
	ID             string  `json:"id,omitempty"`
	NavigationType string  `json:"navigationType,omitempty"`
	URL            string  `json:"url,omitempty"`
}

// NormalizedRating returns the rating, or "unknown" when the browser sent none
func (v Vital) NormalizedRating() string {
	switch v.Rating {
	case "good", "needs-improvement", "poor":
		return v.Rating
	default:
		return "unknown"
	}
}
