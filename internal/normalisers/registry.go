package normalisers

import (
	"path/filepath"
	"strings"
)

// Text is the searchable content of a file.
type Text struct {
	Title string
	Body  string
}

// Normaliser extracts text from one family of file formats.
type Normaliser interface {
	// Extensions returns the lower-case file extensions handled, with dot.
	Extensions() []string

	// Normalise extracts the title and body of the file at path.
	Normalise(path string, content []byte) Text
}

// Registry selects a normaliser by file extension.
type Registry struct {
	byExt    map[string]Normaliser
	fallback Normaliser
}

// NewRegistry returns a registry with the markdown and HTML normalisers
// registered and plain text as the fallback.
func NewRegistry() *Registry {
	r := &Registry{byExt: make(map[string]Normaliser), fallback: PlainText{}}
	r.Register(Markdown{})
	r.Register(HTML{})
	return r
}

// Register adds n for its extensions, replacing earlier registrations.
func (r *Registry) Register(n Normaliser) {
	for _, ext := range n.Extensions() {
		r.byExt[ext] = n
	}
}

// For returns the normaliser for path.
func (r *Registry) For(path string) Normaliser {
	if n, ok := r.byExt[strings.ToLower(filepath.Ext(path))]; ok {
		return n
	}
	return r.fallback
}

// Normalise extracts the text of the file at path.
func (r *Registry) Normalise(path string, content []byte) Text {
	return r.For(path).Normalise(path, content)
}

// titleFromPath turns a file name into a readable title.
func titleFromPath(path string) string {
	name := filepath.Base(path)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	name = strings.ReplaceAll(name, "_", " ")
	return strings.ReplaceAll(name, "-", " ")
}
