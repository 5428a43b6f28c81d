package ports

import (
	"image"
	"image/color"
)

// Renderer abstracts raster drawing operations.
type Renderer interface {
	// CreateCanvas creates a new drawing canvas with the specified dimensions and background color.
	CreateCanvas(width, height int, bg color.Color) Canvas

	// ResizeImage resizes an image to the specified dimensions.
	ResizeImage(img image.Image, width, height int) image.Image

	// RotateImage rotates an image clockwise by degrees around its center.
	// The result is expanded to the rotated bounding box and the uncovered
	// area is filled with bg.
	RotateImage(img image.Image, degrees float64, bg color.Color) image.Image
}

// Canvas provides drawing operations for compositing images.
type Canvas interface {
	// DrawImage draws an image at the specified position.
	DrawImage(img image.Image, x, y int)

	// DrawImageScaled draws an image scaled to the specified dimensions.
	DrawImageScaled(img image.Image, x, y, width, height int)

	// DrawRect draws a filled rectangle.
	DrawRect(x, y, w, h int, c color.Color)

	// ToImage returns the canvas as an image.Image.
	ToImage() image.Image
}
