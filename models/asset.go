package models

// AssetReference identifies one stored image. StoragePath is unique within the
// object store namespace and is never reused for different bytes.
type AssetReference struct {
	StoragePath string `json:"storagePath,omitempty"`
	PublicURL   string `json:"publicUrl"`
}

// UploadPayload is one local image handed to the upload orchestrator.
type UploadPayload struct {
	Filename    string
	ContentType string
	Data        []byte
}
