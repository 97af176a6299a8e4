package constants

import "strings"

// Extension and MIME types the service accepts or produces.
const (
	PDFExt   = "pdf"
	XLSXExt  = "xlsx"
	XLSXMime = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	PDFMime  = "application/pdf"
)

// DefaultRawFileName is used when a stored document has no name.
const DefaultRawFileName = "document.pdf"

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// IsPDFName reports whether name carries a .pdf extension.
func IsPDFName(name string) bool {
	return strings.HasSuffix(strings.ToLower(strings.TrimSpace(name)), "."+PDFExt)
}
