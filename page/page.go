// Package page defines the render targets a watcher draws on.
//
// A [Page] models the three visible parts of a submit-and-poll screen: a
// status line, an input area that is hidden while a submission is being
// processed, and an ordered list of result entries that only ever grows
// until the next [Page.Reset].
//
// Implementations in this package:
//
//   - [Recorder]: in-memory page, useful for tests and embedding
//   - [Terminal]: line-oriented terminal output styled with lipgloss
//   - [Multi]: fans every call out to several pages
//
// [RenderList] renders entries as HTML list items with all text escaped.
package page

import "errors"

// Page is a render target for status text and result entries.
//
// Implementations must be safe for use from a single goroutine at a time;
// the watcher never calls a page concurrently.
type Page interface {
	// SetStatus replaces the status line with text, verbatim.
	SetStatus(text string) error

	// Reset removes every rendered entry.
	Reset() error

	// HideInput hides the input area. Pages without one ignore it.
	HideInput() error

	// Append renders entries after the existing ones, in order.
	Append(entries ...string) error
}

// Multi returns a [Page] that forwards every call to each of pages in order.
//
// All pages are called even if one fails; the errors are joined.
func Multi(pages ...Page) Page {
	cp := make([]Page, 0, len(pages))
	for _, p := range pages {
		if p != nil {
			cp = append(cp, p)
		}
	}
	return multiPage(cp)
}

type multiPage []Page

func (m multiPage) SetStatus(text string) error {
	return m.each(func(p Page) error { return p.SetStatus(text) })
}

func (m multiPage) Reset() error {
	return m.each(Page.Reset)
}

func (m multiPage) HideInput() error {
	return m.each(Page.HideInput)
}

func (m multiPage) Append(entries ...string) error {
	return m.each(func(p Page) error { return p.Append(entries...) })
}

func (m multiPage) each(fn func(Page) error) error {
	var errs []error
	for _, p := range m {
		if err := fn(p); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
