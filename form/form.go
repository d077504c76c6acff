// Package form builds the multipart/form-data payloads sent to a submit
// endpoint.
//
// A [Form] is an ordered, schema-less collection of text fields and file
// parts. Fields and files are kept in insertion order so the encoded body is
// deterministic apart from the random multipart boundary.
//
//	f := form.New()
//	f.Add("mode", "fast")
//	if err := f.AddFileFromPath("upload", "./proxies.txt"); err != nil {
//	    return err
//	}
//	body, contentType, err := f.Encode()
package form

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Field is a single text field of a [Form].
type Field struct {
	Name  string
	Value string
}

// File is a single file part of a [Form].
type File struct {
	// Field is the form field name the file is attached to.
	Field string

	// Name is the filename reported in the part's Content-Disposition.
	Name string

	// Content is the raw file content.
	Content []byte
}

// Form is an ordered multipart form.
//
// The zero value is an empty form ready to use.
type Form struct {
	fields []Field
	files  []File
}

// New returns an empty [Form].
func New() *Form {
	return &Form{}
}

// Add appends a text field. Repeated names are allowed and are sent in order.
func (f *Form) Add(name, value string) *Form {
	f.fields = append(f.fields, Field{Name: name, Value: value})
	return f
}

// AddFile appends a file part with the given content.
func (f *Form) AddFile(field, filename string, content []byte) *Form {
	f.files = append(f.files, File{
		Field:   field,
		Name:    filename,
		Content: append([]byte(nil), content...),
	})
	return f
}

// AddFileFromPath reads the file at path and appends it under field, using
// the base name of path as the filename.
func (f *Form) AddFileFromPath(field, path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file for field %q: %w", field, err)
	}
	f.AddFile(field, filepath.Base(path), content)
	return nil
}

// Fields returns a copy of the text fields in insertion order.
func (f *Form) Fields() []Field {
	return append([]Field(nil), f.fields...)
}

// Files returns a copy of the file parts in insertion order.
func (f *Form) Files() []File {
	return append([]File(nil), f.files...)
}

// Len returns the total number of parts (fields and files).
func (f *Form) Len() int {
	return len(f.fields) + len(f.files)
}

// Encode writes the form as multipart/form-data.
//
// It returns the body and the Content-Type header value, which carries the
// boundary. Text fields are written before file parts.
func (f *Form) Encode() ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for _, field := range f.fields {
		if err := w.WriteField(field.Name, field.Value); err != nil {
			return nil, "", fmt.Errorf("failed to write field %q: %w", field.Name, err)
		}
	}

	for _, file := range f.files {
		part, err := w.CreateFormFile(file.Field, file.Name)
		if err != nil {
			return nil, "", fmt.Errorf("failed to create file part %q: %w", file.Field, err)
		}
		if _, err := part.Write(file.Content); err != nil {
			return nil, "", fmt.Errorf("failed to write file part %q: %w", file.Field, err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to finish multipart body: %w", err)
	}

	return buf.Bytes(), w.FormDataContentType(), nil
}

// FromMultipart converts a parsed [multipart.Form] back into a [Form].
//
// Field names are visited in sorted order since multipart.Form stores them in
// maps; values of a single field keep their order.
func FromMultipart(mf *multipart.Form) (*Form, error) {
	f := New()
	if mf == nil {
		return f, nil
	}

	for _, name := range sortedKeys(mf.Value) {
		for _, v := range mf.Value[name] {
			f.Add(name, v)
		}
	}

	for _, name := range sortedKeys(mf.File) {
		for _, fh := range mf.File[name] {
			content, err := readFileHeader(fh)
			if err != nil {
				return nil, fmt.Errorf("failed to read uploaded file %q: %w", fh.Filename, err)
			}
			f.AddFile(name, fh.Filename, content)
		}
	}

	return f, nil
}

func readFileHeader(fh *multipart.FileHeader) ([]byte, error) {
	src, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer func() { _ = src.Close() }()
	return io.ReadAll(src)
}

// ParsePairs parses "key=value" strings into text fields.
//
// The value may be empty and may itself contain "=". An entry without "=" or
// with an empty key is an error.
func ParsePairs(pairs []string) ([]Field, error) {
	fields := make([]Field, 0, len(pairs))
	for _, p := range pairs {
		key, value, ok := strings.Cut(p, "=")
		if !ok {
			return nil, fmt.Errorf("invalid field %q: expected key=value", p)
		}
		key = strings.TrimSpace(key)
		if key == "" {
			return nil, errors.New("invalid field: key cannot be empty")
		}
		fields = append(fields, Field{Name: key, Value: value})
	}
	return fields, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
