// Package casefold normalizes file names so that comparisons ignore case.
package casefold

import (
	"path"
	"strings"
)

// Name folds a single path segment to its canonical case form. Folding is
// Unicode simple lowercasing, so e.g. "Straße" and "STRASSE" do not fold
// equal but "Image.PNG" and "image.png" do.
func Name(name string) string {
	return strings.ToLower(name)
}

// Path folds every segment of a slash-separated relative path.
func Path(rel string) string {
	segments := strings.Split(path.Clean(rel), "/")
	for i, s := range segments {
		segments[i] = Name(s)
	}
	return strings.Join(segments, "/")
}
