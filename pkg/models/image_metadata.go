package models

// ImageMetadata describes the uploaded image a result was produced from.
// Stored alongside the result slot so the results view can render the
// preview header without re-uploading.
type ImageMetadata struct {
	Filename   string `json:"filename"`
	Size       string `json:"size"`
	Dimensions string `json:"dimensions"`
	Format     string `json:"format"`
	UploadedAt string `json:"uploadedAt"`
	// Source is the preview reference: an inline data URL for uploads, or
	// the remote URL the image was fetched from.
	Source string `json:"source,omitempty"`
}
