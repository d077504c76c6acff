// Package dashboard provides the embedded web page for the serve command.
//
// This package uses Go's embed directive to include the page HTML, CSS,
// and JavaScript at compile time. This enables single-binary deployment
// without external asset files.
package dashboard

import "embed"

// Assets is an embedded filesystem containing the results page.
//
// The filesystem structure is:
//
//	assets/
//	  index.html    - Results page with inline CSS and JavaScript
//
// index.html carries placeholders ({{.Title}}, {{.Status}}, {{.Items}},
// {{.InputHidden}}, {{.Seq}}) that the server fills in, escaped, on every
// request.
//
//go:embed assets/*
var Assets embed.FS
