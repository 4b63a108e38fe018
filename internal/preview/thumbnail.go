package preview

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif" // Register GIF decoder
	"image/jpeg"
	_ "image/png" // Register PNG decoder
	"os"

	"github.com/nfnt/resize"

	"github.com/aliveriver/ConvertAgent/internal/models"
)

const thumbnailWidth uint = 480
const thumbnailHeight uint = 640

// imagePreview produces a resized data-URI thumbnail of an uploaded image.
func imagePreview(path string) (*models.PreviewResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}

	uri, err := thumbnailDataURI(data)
	if err != nil {
		return nil, err
	}
	return &models.PreviewResult{Type: "image", Content: uri}, nil
}

// thumbnailDataURI takes raw image data, resizes it, encodes it as a
// Base64 JPEG, and returns it as a data URI string.
func thumbnailDataURI(imageData []byte) (string, error) {
	img, _, err := image.Decode(bytes.NewReader(imageData))
	if err != nil {
		return "", fmt.Errorf("failed to decode image: %w", err)
	}

	imgHeight := img.Bounds().Dy()
	imgWidth := img.Bounds().Dx()

	var resizedImg image.Image
	if imgHeight > imgWidth {
		resizedImg = resize.Resize(thumbnailWidth, 0, img, resize.Lanczos3)
	} else {
		resizedImg = resize.Resize(0, thumbnailHeight, img, resize.Lanczos3)
	}

	var buf bytes.Buffer
	// Quality 75 is a good balance for a preview pane.
	if err := jpeg.Encode(&buf, resizedImg, &jpeg.Options{Quality: 75}); err != nil {
		return "", fmt.Errorf("failed to encode jpeg: %w", err)
	}

	base64Str := base64.StdEncoding.EncodeToString(buf.Bytes())
	return fmt.Sprintf("data:image/jpeg;base64,%s", base64Str), nil
}
