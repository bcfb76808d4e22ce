package utils

import (
	"net/url"
	"path"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
)

// GetFileExtension returns the file extension without the dot
func GetFileExtension(filename string) string {
	ext := filepath.Ext(filename)
	if len(ext) > 0 {
		return strings.ToLower(ext[1:])
	}
	return ""
}

// IsSupportedFile checks if a file name carries one of the allowed extensions
func IsSupportedFile(filename string, formats []string) bool {
	ext := GetFileExtension(filename)
	if ext == "" {
		return false
	}
	for _, f := range formats {
		if strings.EqualFold(ext, strings.TrimPrefix(f, ".")) {
			return true
		}
	}
	return false
}

// NameFromURL returns the last path segment of a URL, or the host when the
// path is empty
func NameFromURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	base := path.Base(u.Path)
	if base == "." || base == "/" {
		return u.Host
	}
	return base
}

// FormatFileSize formats file size in human-readable format
func FormatFileSize(size int64) string {
	if size < 0 {
		return "unknown"
	}
	return humanize.Bytes(uint64(size))
}
