// Package dom models the slice of the meeting page the tracker needs: a set of
// elements addressed by selector, their attributes and class lists, structural
// mutation notifications and simulated clicks.
package dom

import "errors"

// ClassAttr is the attribute name used to report class list changes.
const ClassAttr = "class"

var ErrNotFound = errors.New("element not found")

type Element interface {
	Attr(name string) (string, bool)
	HasClass(class string) bool
}

// Document is the capability the tracker is given instead of a browser.
type Document interface {
	Path() string
	Query(selector string) (Element, bool)
	// Click simulates a click on the element matched by selector.
	Click(selector string) error
	// OnMutation fires fn after any element appears, disappears or the path changes.
	OnMutation(fn func()) (cancel func())
	// Observe fires fn when one of attrs changes on the element matched by
	// selector. ClassAttr covers class list changes.
	Observe(selector string, attrs []string, fn func(Element)) (cancel func())
}
