package domain

import "context"

// FileCategory selects the subdirectory an upload is stored under.
type FileCategory string

const (
	FileCategoryImage       FileCategory = "image"
	FileCategoryPDF         FileCategory = "pdf"
	FileCategoryAudio       FileCategory = "audio"
	FileCategoryInscription FileCategory = "inscription"
)

// Valid reports whether c is a known category.
func (c FileCategory) Valid() bool {
	switch c {
	case FileCategoryImage, FileCategoryPDF, FileCategoryAudio, FileCategoryInscription:
		return true
	}
	return false
}

// FileStore abstracts raw file byte storage under relative keys such as
// "inscription/<name>". Keys that escape the store root are rejected.
type FileStore interface {
	Save(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}
