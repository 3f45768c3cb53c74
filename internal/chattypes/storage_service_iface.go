package chattypes

import (
	"context"
	"io"
)

// FileInfo describes a stored object and how to reach it.
type FileInfo struct {
	URL      string `json:"url"`      // publicly reachable URL
	Key      string `json:"key"`      // object key in the backing store
	Size     int64  `json:"size"`     // size in bytes
	MimeType string `json:"mimeType"` // MIME type
	FileName string `json:"fileName"` // original file name
}

// ObjectStore is the storage boundary for media bytes. The interface lives in
// chattypes to break the cycle between storage and services.
//
// Upload is the byte path used by the upload handler. ObjectURL derives the
// durable URL for an object that is already in the store; the file-attach
// consumer calls it to record completion without touching bytes.
type ObjectStore interface {
	Upload(ctx context.Context, reader io.Reader, fileSize int64, fileName string, mimeType string) (*FileInfo, error)
	ObjectURL(key string) string
}
