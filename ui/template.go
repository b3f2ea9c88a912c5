// Package ui holds the template values exchanged between the fresco
// watcher and running applications.
package ui

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
)

// Template is one reloadable UI definition: a stable name identifying
// where it came from and the compiled body the renderer consumes. The
// body is opaque to the reload machinery.
type Template struct {
	Name string `json:"name"`
	Body []byte `json:"body"`
}

// NewTemplate copies body so the caller may reuse its buffer.
func NewTemplate(name string, body []byte) Template {
	return Template{Name: name, Body: append([]byte(nil), body...)}
}

// Key returns a content-derived identity for set membership. Two
// templates with equal name and body always produce the same key.
func (t Template) Key() string {
	h := sha256.New()
	h.Write([]byte(t.Name))
	h.Write([]byte{'\n'})
	h.Write(t.Body)
	return hex.EncodeToString(h.Sum(nil))
}

// Equal reports structural equality of name and body content.
func (t Template) Equal(other Template) bool {
	return t.Name == other.Name && bytes.Equal(t.Body, other.Body)
}

// Clone returns a template with its own copy of the body.
func (t Template) Clone() Template {
	return Template{Name: t.Name, Body: append([]byte(nil), t.Body...)}
}

// Empty reports whether the template carries no name and no body.
func (t Template) Empty() bool {
	return t.Name == "" && len(t.Body) == 0
}
