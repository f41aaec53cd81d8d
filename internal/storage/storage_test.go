package storage_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/MrJamesThe3rd/photobox/internal/storage"
)

func TestThumbnail(t *testing.T) {
	got := storage.Thumbnail("https://res.cloudinary.com/demo/image/upload/v1/photobox/TRX-1/photo_1.jpg")
	assert.Equal(t, "https://res.cloudinary.com/demo/image/upload/c_fill,h_300,w_300/v1/photobox/TRX-1/photo_1.jpg", got)

	assert.Equal(t, "https://example.com/raw.jpg", storage.Thumbnail("https://example.com/raw.jpg"))
}
