package normalisers

// PlainText indexes content verbatim, titled by file name.
type PlainText struct{}

// Extensions returns the extensions handled.
func (PlainText) Extensions() []string {
	return []string{".txt", ".text", ".log"}
}

// Normalise returns content as the body.
func (PlainText) Normalise(path string, content []byte) Text {
	return Text{Title: titleFromPath(path), Body: string(content)}
}
