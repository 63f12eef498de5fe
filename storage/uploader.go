package storage

import (
	"context"
	"io"
)

// UploadResult описывает объект после успешной загрузки в хранилище.
type UploadResult struct {
	Key      string
	Location string
	ETag     string
}

// FileUploader абстрагирует объектное хранилище для картинок респаунов.
type FileUploader interface {
	Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*UploadResult, error)

	Delete(ctx context.Context, key string) error

	GetPublicURL(key string) string
}
