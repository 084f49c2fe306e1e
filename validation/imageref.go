package validation

import (
	"net/url"
	"strings"
)

// UploadsPrefix is the public path under which stored uploads are served.
const UploadsPrefix = "/uploads/"

// IsImageRef reports whether s can be used as an image field value: an
// absolute http(s) URL, an image data URI, or a stored upload path.
func IsImageRef(s string) bool {
	switch {
	case strings.HasPrefix(s, "http://"), strings.HasPrefix(s, "https://"):
		u, err := url.Parse(s)
		return err == nil && u.Host != ""
	case strings.HasPrefix(s, "data:"):
		return isImageDataURI(s)
	case strings.HasPrefix(s, UploadsPrefix):
		name := strings.TrimPrefix(s, UploadsPrefix)
		return name != "" && !strings.Contains(name, "..") && !strings.ContainsAny(name, "\\?#")
	}
	return false
}

// isImageDataURI accepts data:image/<type>;base64,<payload>.
func isImageDataURI(s string) bool {
	meta, payload, ok := strings.Cut(strings.TrimPrefix(s, "data:"), ",")
	if !ok || payload == "" {
		return false
	}
	mime, encoding, ok := strings.Cut(meta, ";")
	if !ok || encoding != "base64" {
		return false
	}
	return strings.HasPrefix(mime, "image/") && len(mime) > len("image/")
}
