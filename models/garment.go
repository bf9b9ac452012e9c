package models

// Garment is what the garment scraper extracts from a product page.
type Garment struct {
	SourceURL string `json:"source_url"`
	Title     string `json:"title,omitempty"`
	ImageURL  string `json:"image_url"`
}
