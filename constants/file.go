package constants

import "strings"

// Document formats handled by the text extraction stage.
const (
	Spreadsheet = "SPREADSHEET"
	PDF         = "PDF"
	Image       = "IMAGE"
	Text        = "TEXT"
)

// AllowedExtensions holds the default allowed file extensions for uploads.
var AllowedExtensions = map[string]struct{}{
	"pdf":  {},
	"xls":  {},
	"xlsx": {},
	"jpg":  {},
	"jpeg": {},
	"png":  {},
	"txt":  {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// MapExtToFormat maps a file extension to a document format.
// Returns "" for unsupported extensions.
func MapExtToFormat(ext string) string {
	switch NormalizeExt(ext) {
	case "xls", "xlsx":
		return Spreadsheet
	case "pdf":
		return PDF
	case "jpg", "jpeg", "png":
		return Image
	case "txt":
		return Text
	default:
		return ""
	}
}

// IsAllowedExt reports whether the extension passes the upload allow-list.
func IsAllowedExt(ext string) bool {
	_, ok := AllowedExtensions[NormalizeExt(ext)]
	return ok
}
