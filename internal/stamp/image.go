package stamp

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// EncodeImage wraps raw image bytes in a data URI.
func EncodeImage(data []byte, mimeType string) string {
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// DecodeImage splits a data URI into its bytes and MIME type. A bare base64
// payload without the data: prefix is accepted and assumed to be JPEG.
func DecodeImage(uri string) ([]byte, string, error) {
	mimeType := "image/jpeg"
	payload := uri
	if strings.HasPrefix(uri, "data:") {
		header, rest, ok := strings.Cut(uri, ",")
		if !ok {
			return nil, "", fmt.Errorf("malformed data uri")
		}
		header = strings.TrimPrefix(header, "data:")
		if !strings.HasSuffix(header, ";base64") {
			return nil, "", fmt.Errorf("data uri is not base64 encoded")
		}
		if mt := strings.TrimSuffix(header, ";base64"); mt != "" {
			mimeType = mt
		}
		payload = rest
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode image: %w", err)
	}
	return data, mimeType, nil
}

// ImageExtension returns the file extension for an image MIME type,
// including the dot. Unknown types get ".jpg".
func ImageExtension(mimeType string) string {
	switch strings.ToLower(mimeType) {
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	case "image/heic":
		return ".heic"
	default:
		return ".jpg"
	}
}
