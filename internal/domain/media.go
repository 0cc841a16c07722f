package domain

import "fmt"

// MediaKind classifies an accepted file by its declared media type.
type MediaKind string

const (
	MediaImage MediaKind = "image"
	MediaVideo MediaKind = "video"
)

// MediaStatus enumerates the states of an item in the upload pipeline.
type MediaStatus string

const (
	MediaUploading MediaStatus = "uploading"
	MediaComplete  MediaStatus = "complete"
	MediaError     MediaStatus = "error"
)

// MediaItem is a read-only snapshot of one pipeline item.
// Exactly one of {FinalRef set, ErrorMessage set, Status == Uploading} holds.
type MediaItem struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	Kind         MediaKind   `json:"kind"`
	PreviewRef   string      `json:"preview_ref"`
	Progress     int         `json:"progress"` // 0–100
	Status       MediaStatus `json:"status"`
	FinalRef     string      `json:"final_ref,omitempty"`
	ErrorMessage string      `json:"error_message,omitempty"`
	SizeBytes    int64       `json:"size_bytes"`
}

// Validation messages surfaced on per-item ingestion failures.
const (
	MsgUnsupportedFileType = "Unsupported file type"
	MsgUploadFailed        = "Upload failed"
)

// OversizeMessage names the configured cap in whole megabytes.
func OversizeMessage(maxBytes int64) string {
	return fmt.Sprintf("File too large (max %d MB)", maxBytes/(1024*1024))
}

// CapacityError reports that a batch overflowed the gallery limit. Files
// beyond capacity are dropped, not queued.
type CapacityError struct {
	Max     int
	Dropped int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("gallery is limited to %d files; %d dropped", e.Max, e.Dropped)
}
