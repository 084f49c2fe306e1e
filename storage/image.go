package storage

import (
	"bytes"
	"errors"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"
	_ "golang.org/x/image/webp" // WebP decoder
)

var ErrUnsupportedImage = errors.New("unsupported image type")

// allowed upload types and the extension they are stored with
var imageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// Image is an uploaded image ready to be stored.
type Image struct {
	Data     []byte
	MimeType string
	Ext      string
	Width    int
	Height   int
}

// ProcessImage sniffs data, checks that it decodes as an image and shrinks
// JPEG and PNG images wider than maxWidth. GIF and WebP are kept as is.
func ProcessImage(data []byte, maxWidth int) (*Image, error) {
	mime := mimetype.Detect(data).String()
	ext, ok := imageTypes[mime]
	if !ok {
		return nil, fmt.Errorf("%w (detected: %s)", ErrUnsupportedImage, mime)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}

	img := &Image{Data: data, MimeType: mime, Ext: ext, Width: cfg.Width, Height: cfg.Height}

	resizable := mime == "image/jpeg" || mime == "image/png"
	if !resizable || maxWidth <= 0 || cfg.Width <= maxWidth {
		return img, nil
	}

	decoded, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}
	resized := imaging.Resize(decoded, maxWidth, 0, imaging.Lanczos)

	format := imaging.PNG
	if mime == "image/jpeg" {
		format = imaging.JPEG
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, resized, format, imaging.JPEGQuality(85)); err != nil {
		return nil, fmt.Errorf("encoding resized image: %w", err)
	}

	bounds := resized.Bounds()
	img.Data = buf.Bytes()
	img.Width = bounds.Dx()
	img.Height = bounds.Dy()
	return img, nil
}
