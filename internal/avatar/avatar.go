package avatar

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
)

// Uploads are capped at 1MB before decoding.
const MaxUploadBytes = 1 << 20

const sideLength = 250

var (
	ErrTooLarge          = errors.New("avatar exceeds 1MB limit")
	ErrUnsupportedFormat = errors.New("avatar must be a .jpg, .jpeg or .png")
)

var allowedExts = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
}

func AllowedFilename(name string) bool {
	_, ok := allowedExts[strings.ToLower(filepath.Ext(name))]
	return ok
}

// Normalize decodes an uploaded image and re-encodes it as a
// 250x250 PNG, cropping to cover when the aspect ratio differs.
func Normalize(data []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data))

	if err != nil {
		return nil, ErrUnsupportedFormat
	}

	img = imaging.Fill(img, sideLength, sideLength, imaging.Center, imaging.Lanczos)

	var buf bytes.Buffer

	err = imaging.Encode(&buf, img, imaging.PNG)

	if err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
