// Package view models the dashboard page as a server-side document.
//
// A Page wraps a goquery document and exposes the handful of mount-point
// operations the controllers and engines need. Every mutation is serialised
// and announced to subscribers as an Update so connected browsers can mirror
// the server-side state.
package view

import (
	"errors"
	"fmt"
	"html"
	"io"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
)

// ErrMountNotFound is returned when an element id does not resolve.
var ErrMountNotFound = errors.New("mount point not found")

// Update describes the state of one element after a mutation. Rev grows with
// every mutation of the page, so a receiver can drop an update older than the
// state it already holds.
type Update struct {
	ID     string `json:"id"`
	Rev    uint64 `json:"rev"`
	HTML   string `json:"html"`
	Hidden bool   `json:"hidden"`
	Busy   bool   `json:"busy"`
}

// Page is a goroutine-safe HTML document with id-addressed mount points.
type Page struct {
	mu        sync.Mutex
	doc       *goquery.Document
	listeners map[int]func(Update)
	nextID    int
	rev       uint64
	revs      map[string]uint64
}

// NewPage parses an HTML document.
func NewPage(r io.Reader) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}
	return &Page{
		doc:       doc,
		listeners: make(map[int]func(Update)),
		revs:      make(map[string]uint64),
	}, nil
}

// NewPageFromHTML parses an HTML document held in a string.
func NewPageFromHTML(s string) (*Page, error) {
	return NewPage(strings.NewReader(s))
}

// Subscribe registers fn to receive every Update. Listeners run while the page
// lock is held, so they must not block or call back into the Page.
func (p *Page) Subscribe(fn func(Update)) (unsubscribe func()) {
	p.mu.Lock()
	defer p.mu.Unlock()

	id := p.nextID
	p.nextID++
	p.listeners[id] = fn
	return func() {
		p.mu.Lock()
		delete(p.listeners, id)
		p.mu.Unlock()
	}
}

// Has reports whether id resolves to an element.
func (p *Page) Has(id string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, err := p.find(id)
	return err == nil
}

// Clear removes all content of the element.
func (p *Page) Clear(id string) error {
	return p.mutate(id, func(sel *goquery.Selection) {
		sel.Empty()
	})
}

// Inject appends an HTML fragment to the element.
func (p *Page) Inject(id, fragment string) error {
	return p.mutate(id, func(sel *goquery.Selection) {
		sel.AppendHtml(fragment)
	})
}

// Replace clears the element and injects fragment as one atomic step.
func (p *Page) Replace(id, fragment string) error {
	return p.mutate(id, func(sel *goquery.Selection) {
		sel.Empty()
		sel.AppendHtml(fragment)
	})
}

// Loading replaces the element content with a loading indicator.
func (p *Page) Loading(id string) error {
	return p.Replace(id, `<div class="loading spinner-border" role="status"><span class="sr-only">Loading...</span></div>`)
}

// Error replaces the element content with an escaped, user-visible message.
func (p *Page) Error(id, msg string) error {
	return p.Replace(id, `<div class="alert alert-danger" role="alert">`+html.EscapeString(msg)+`</div>`)
}

// Show removes the hidden attribute.
func (p *Page) Show(id string) error {
	return p.mutate(id, func(sel *goquery.Selection) {
		sel.RemoveAttr("hidden")
	})
}

// Hide sets the hidden attribute.
func (p *Page) Hide(id string) error {
	return p.mutate(id, func(sel *goquery.Selection) {
		sel.SetAttr("hidden", "")
	})
}

// SetBusy marks a form busy and disables its controls, or re-enables them.
func (p *Page) SetBusy(id string, busy bool) error {
	return p.mutate(id, func(sel *goquery.Selection) {
		controls := sel.Find("input, button, select, textarea")
		if busy {
			sel.SetAttr("aria-busy", "true")
			controls.SetAttr("disabled", "")
			return
		}
		sel.RemoveAttr("aria-busy")
		controls.RemoveAttr("disabled")
	})
}

// InnerHTML returns the element content.
func (p *Page) InnerHTML(id string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	sel, err := p.find(id)
	if err != nil {
		return "", err
	}
	return sel.Html()
}

// State returns the current Update snapshot of an element.
func (p *Page) State(id string) (Update, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	sel, err := p.find(id)
	if err != nil {
		return Update{}, err
	}
	return p.snapshot(id, sel), nil
}

// Query runs fn against the element under the page lock. fn must not retain
// the selection or mutate it.
func (p *Page) Query(id string, fn func(sel *goquery.Selection)) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	sel, err := p.find(id)
	if err != nil {
		return err
	}
	fn(sel)
	return nil
}

// HTML renders the whole document.
func (p *Page) HTML() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return goquery.OuterHtml(p.doc.Selection)
}

// Clone returns an independent copy of the page without subscribers.
func (p *Page) Clone() (*Page, error) {
	doc, err := p.HTML()
	if err != nil {
		return nil, err
	}
	return NewPageFromHTML(doc)
}

func (p *Page) mutate(id string, fn func(sel *goquery.Selection)) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	sel, err := p.find(id)
	if err != nil {
		return err
	}
	fn(sel)
	p.rev++
	p.revs[id] = p.rev

	if len(p.listeners) == 0 {
		return nil
	}
	u := p.snapshot(id, sel)
	for _, l := range p.listeners {
		l(u)
	}
	return nil
}

func (p *Page) find(id string) (*goquery.Selection, error) {
	sel := p.doc.Find("[id]").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return s.AttrOr("id", "") == id
	}).First()
	if id == "" || sel.Length() == 0 {
		return nil, fmt.Errorf("%w: %q", ErrMountNotFound, id)
	}
	return sel, nil
}

func (p *Page) snapshot(id string, sel *goquery.Selection) Update {
	inner, _ := sel.Html()
	_, hidden := sel.Attr("hidden")
	return Update{
		ID:     id,
		Rev:    p.revs[id],
		HTML:   inner,
		Hidden: hidden,
		Busy:   sel.AttrOr("aria-busy", "") == "true",
	}
}
