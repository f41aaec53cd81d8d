// Package storage holds the types shared by photo storage backends.
package storage

import (
	"io"
	"strings"
)

// File is one photo to upload.
type File struct {
	Name        string
	ContentType string
	Size        int64
	Content     io.Reader
}

// Asset is a stored photo.
type Asset struct {
	PublicID     string
	URL          string
	ThumbnailURL string
}

const thumbnailTransform = "c_fill,h_300,w_300"

// Thumbnail derives a 300x300 fill-cropped variant from a delivery URL.
func Thumbnail(url string) string {
	return strings.Replace(url, "/upload/", "/upload/"+thumbnailTransform+"/", 1)
}
