package models

// TryOnBody is the wire body of a try-on invocation.
// Image1 is the person photo, Image2 the garment photo.
type TryOnBody struct {
	Image1 string `json:"image1"`
	Image2 string `json:"image2"`
}

// TryOnRequest is built per invocation from a verified caller and a validated
// body. It is never persisted.
type TryOnRequest struct {
	CallerID     string
	PersonImage  AssetReference
	GarmentImage AssetReference
}

// TryOnResponse is returned once the result has a durable copy.
type TryOnResponse struct {
	ResultImage string `json:"resultImage"`
	Message     string `json:"message"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// ProviderResult is the successful outcome of a provider call.
type ProviderResult struct {
	ResultURL string
}
