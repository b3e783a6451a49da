package models

// UploadTask instructs the client to upload a vault file using a presigned URL.
type UploadTask struct {
	// RecordID identifies which vault file the blob belongs to.
	RecordID string
	// URL is a temporary presigned HTTP URL for the client to PUT the content.
	URL string
}
