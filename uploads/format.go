package uploads

import (
	"bytes"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/webp"
)

var formatTypes = map[string]struct {
	ext         string
	contentType string
}{
	"jpeg": {"jpg", "image/jpeg"},
	"png":  {"png", "image/png"},
	"gif":  {"gif", "image/gif"},
	"webp": {"webp", "image/webp"},
}

// sniff returns the file extension and content type for an upload. The
// filename extension wins; decoded image format and declared type fill gaps.
func sniff(filename, declared string, data []byte) (ext, contentType string) {
	ext = strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))

	if _, format, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
		if ft, ok := formatTypes[format]; ok {
			if ext == "" {
				ext = ft.ext
			}
			contentType = ft.contentType
		}
	}
	if contentType == "" {
		contentType = declared
	}
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	if ext == "" {
		ext = "bin"
	}
	return ext, contentType
}

func resultExt(contentType string) string {
	mediaType, _, _ := strings.Cut(contentType, ";")
	mediaType = strings.ToLower(strings.TrimSpace(mediaType))
	for _, ft := range formatTypes {
		if ft.contentType == mediaType {
			return ft.ext
		}
	}
	return "jpg"
}
