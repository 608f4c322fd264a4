// Package mimetype maps content types to canonical extensions and back.
// The table is closed: only types listed here are thumbnail-capable.
package mimetype

// mapping relates one MIME type to its canonical extension (no dot).
type mapping struct {
	mime string
	ext  string
}

var table = []mapping{
	{"image/png", "png"},
	{"image/jpeg", "jpeg"},
	{"image/gif", "gif"},
}

// ExtensionFor returns the canonical extension for a content type and
// whether files of that type can be thumbnailed. Unrecognized types
// return ok=false; such uploads are stored but never previewed.
func ExtensionFor(contentType string) (ext string, ok bool) {
	for _, m := range table {
		if m.mime == contentType {
			return m.ext, true
		}
	}
	return "", false
}

// MimeFor returns the content type for a canonical extension.
func MimeFor(ext string) (mime string, ok bool) {
	for _, m := range table {
		if m.ext == ext {
			return m.mime, true
		}
	}
	return "", false
}

// Known reports whether the content type is in the closed table.
func Known(contentType string) bool {
	_, ok := ExtensionFor(contentType)
	return ok
}
