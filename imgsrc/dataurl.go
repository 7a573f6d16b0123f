package imgsrc

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"net/url"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

var (
	ErrNotDataURL  = errors.New("not a data URL")
	ErrNotAnImage  = errors.New("data URL is not an image")
	ErrUnsupported = errors.New("unsupported image format")
)

// DataURL - a parsed RFC 2397 data URL
type DataURL struct {
	MediaType string
	Data      []byte
}

// IsSelfContained reports whether src embeds its data instead of pointing at
// a resource only the browser can reach (blob:, object URLs, ...)
func IsSelfContained(src string) bool {
	return strings.HasPrefix(src, "data:") && strings.Contains(src, ",")
}

func Parse(src string) (DataURL, error) {
	rest, ok := strings.CutPrefix(src, "data:")
	if !ok {
		return DataURL{}, ErrNotDataURL
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return DataURL{}, ErrNotDataURL
	}
	isBase64 := false
	if m, found := strings.CutSuffix(meta, ";base64"); found {
		meta, isBase64 = m, true
	}
	mediaType, _, _ := strings.Cut(meta, ";")
	if mediaType == "" {
		mediaType = "text/plain"
	}
	var data []byte
	if isBase64 {
		d, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			if d, err = base64.RawStdEncoding.DecodeString(payload); err != nil {
				return DataURL{}, fmt.Errorf("decode data URL: %w", err)
			}
		}
		data = d
	} else {
		s, err := url.PathUnescape(payload)
		if err != nil {
			return DataURL{}, fmt.Errorf("decode data URL: %w", err)
		}
		data = []byte(s)
	}
	return DataURL{MediaType: strings.ToLower(mediaType), Data: data}, nil
}

func Encode(mediaType string, data []byte) string {
	return "data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// Dimensions decodes only the image header of an image data URL
func Dimensions(src string) (width, height int, format string, err error) {
	d, err := Parse(src)
	if err != nil {
		return 0, 0, "", err
	}
	if !strings.HasPrefix(d.MediaType, "image/") {
		return 0, 0, "", ErrNotAnImage
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(d.Data))
	if err != nil {
		return 0, 0, "", fmt.Errorf("%w: %s: %v", ErrUnsupported, d.MediaType, err)
	}
	return cfg.Width, cfg.Height, format, nil
}
