package forms

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"
	"mime/multipart"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	// Decoders accepted for uploads.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// MaxImageSize caps uploaded images at 5 MiB.
const MaxImageSize = 5 << 20

var (
	ErrEmptyImage    = errors.New("empty image")
	ErrImageTooLarge = errors.New("image too large")
	ErrNotAnImage    = errors.New("not an image")
)

// ImageUpload is an uploaded file that decoded as an image.
type ImageUpload struct {
	Filename    string
	ContentType string
	Ext         string
	Format      string
	Width       int
	Height      int
	Data        []byte
}

// ReadImage reads and checks a multipart upload.
func ReadImage(fh *multipart.FileHeader) (*ImageUpload, error) {
	if fh.Size > MaxImageSize {
		return nil, ErrImageTooLarge
	}
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, MaxImageSize+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	return DecodeImage(fh.Filename, data)
}

// DecodeImage accepts data only if its content sniffs as an image and its
// header decodes with one of the registered decoders.
func DecodeImage(filename string, data []byte) (*ImageUpload, error) {
	if len(data) == 0 {
		return nil, ErrEmptyImage
	}
	if len(data) > MaxImageSize {
		return nil, ErrImageTooLarge
	}

	mt := mimetype.Detect(data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return nil, fmt.Errorf("%w: detected %s", ErrNotAnImage, mt.String())
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotAnImage, err)
	}

	return &ImageUpload{
		Filename:    filename,
		ContentType: mt.String(),
		Ext:         mt.Extension(),
		Format:      format,
		Width:       cfg.Width,
		Height:      cfg.Height,
		Data:        data,
	}, nil
}

func imageMessage(err error) string {
	switch {
	case errors.Is(err, ErrEmptyImage):
		return msgEmptyImage
	case errors.Is(err, ErrImageTooLarge):
		return fmt.Sprintf("Ensure the image is at most %d MiB.", MaxImageSize>>20)
	default:
		return msgInvalidImage
	}
}
