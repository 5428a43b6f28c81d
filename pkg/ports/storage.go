package ports

import (
	"context"
	"errors"
	"image"
)

// Storage persists artifacts and frames.
type Storage interface {
	// Write stores data under name and returns its reference.
	// The write is atomic: readers never observe a partially written artifact.
	Write(ctx context.Context, name string, data []byte) (string, error)

	// Read returns the data behind a reference.
	Read(ctx context.Context, ref string) ([]byte, error)

	// Exists reports whether a reference resolves to stored data.
	Exists(ctx context.Context, ref string) (bool, error)

	// Remove deletes the data behind a reference.
	Remove(ctx context.Context, ref string) error
}

// ImageGetter resolves an image reference (path, URL or data URI) to pixels.
type ImageGetter interface {
	// GetImage loads the image behind ref, downscaled to fit maxSize when non-zero.
	GetImage(ctx context.Context, ref string, maxSize Size) (image.Image, error)
}

// ErrNoImage is returned by an HTMLImageParser when a document references no image.
var ErrNoImage = errors.New("no image in document")

// HTMLImageParser finds the representative image of an HTML document.
type HTMLImageParser interface {
	// ImageURL returns the absolute URL of the document's image, or ErrNoImage.
	ImageURL(doc []byte, baseURL string) (string, error)
}

// Strings resolves user-facing messages.
type Strings interface {
	// Message returns a localized, human-readable description of err.
	Message(err error) string
}
