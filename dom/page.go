package dom

import (
	"slices"
	"sync"
	"sync/atomic"
)

// Node is the last known state of one element.
type Node struct {
	Attrs   map[string]string
	Classes []string
}

func (n Node) Attr(name string) (string, bool) {
	v, ok := n.Attrs[name]
	return v, ok
}

func (n Node) HasClass(class string) bool {
	return slices.Contains(n.Classes, class)
}

func (n Node) clone() Node {
	c := Node{Attrs: make(map[string]string, len(n.Attrs))}
	for k, v := range n.Attrs {
		c.Attrs[k] = v
	}
	c.Classes = slices.Clone(n.Classes)
	return c
}

// Update is a full report of one element's state, as sent by the page agent.
type Update struct {
	Selector string            `json:"selector"`
	Present  bool              `json:"present"`
	Attrs    map[string]string `json:"attrs,omitempty"`
	Classes  []string          `json:"classes,omitempty"`
}

type subscription struct {
	id        int
	selector  string
	attrs     []string
	onMutate  func()
	onAttr    func(Element)
	cancelled atomic.Bool
}

// Page is an in-memory Document. Callbacks run synchronously on the goroutine
// that applied the change, after the page lock is released.
type Page struct {
	mu        sync.Mutex
	path      string
	nodes     map[string]Node
	mutations []*subscription
	observers []*subscription
	nextID    int
	click     func(selector string) error
}

func NewPage(path string) *Page {
	return &Page{
		path:  path,
		nodes: make(map[string]Node),
	}
}

// SetClickHandler installs the function that performs simulated clicks.
func (p *Page) SetClickHandler(fn func(selector string) error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.click = fn
}

func (p *Page) Path() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.path
}

func (p *Page) Query(selector string) (Element, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	n, ok := p.nodes[selector]
	if !ok {
		return nil, false
	}
	return n.clone(), true
}

// Selectors returns every element currently present.
func (p *Page) Selectors() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.nodes))
	for sel := range p.nodes {
		out = append(out, sel)
	}
	slices.Sort(out)
	return out
}

func (p *Page) Click(selector string) error {
	p.mu.Lock()
	_, ok := p.nodes[selector]
	click := p.click
	p.mu.Unlock()
	if !ok {
		return ErrNotFound
	}
	if click == nil {
		return nil
	}
	return click(selector)
}

func (p *Page) OnMutation(fn func()) func() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.nextID++
	sub := &subscription{id: p.nextID, onMutate: fn}
	p.mutations = append(p.mutations, sub)
	return func() { p.cancel(sub) }
}

func (p *Page) Observe(selector string, attrs []string, fn func(Element)) func() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.nextID++
	sub := &subscription{id: p.nextID, selector: selector, attrs: slices.Clone(attrs), onAttr: fn}
	p.observers = append(p.observers, sub)
	return func() { p.cancel(sub) }
}

func (p *Page) cancel(sub *subscription) {
	sub.cancelled.Store(true)
	p.mu.Lock()
	defer p.mu.Unlock()
	remove := func(s *subscription) bool { return s.id == sub.id }
	p.mutations = slices.DeleteFunc(p.mutations, remove)
	p.observers = slices.DeleteFunc(p.observers, remove)
}

// Subscriptions reports how many mutation and attribute subscriptions are live.
func (p *Page) Subscriptions() (mutations, observers int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.mutations), len(p.observers)
}

// Navigate changes the page path. It counts as a structural mutation.
func (p *Page) Navigate(path string) {
	p.mu.Lock()
	changed := p.path != path
	p.path = path
	subs := slices.Clone(p.mutations)
	p.mu.Unlock()
	if changed {
		notifyMutations(subs)
	}
}

// Insert adds or replaces an element.
func (p *Page) Insert(selector string, attrs map[string]string, classes ...string) {
	p.Apply(Update{Selector: selector, Present: true, Attrs: attrs, Classes: classes})
}

func (p *Page) Remove(selector string) {
	p.Apply(Update{Selector: selector})
}

func (p *Page) SetAttr(selector, name, value string) {
	p.edit(selector, func(n *Node) { n.Attrs[name] = value })
}

func (p *Page) RemoveAttr(selector, name string) {
	p.edit(selector, func(n *Node) { delete(n.Attrs, name) })
}

func (p *Page) AddClass(selector, class string) {
	p.edit(selector, func(n *Node) {
		if !n.HasClass(class) {
			n.Classes = append(n.Classes, class)
		}
	})
}

func (p *Page) RemoveClass(selector, class string) {
	p.edit(selector, func(n *Node) {
		n.Classes = slices.DeleteFunc(n.Classes, func(c string) bool { return c == class })
	})
}

func (p *Page) edit(selector string, fn func(*Node)) {
	p.mu.Lock()
	n, ok := p.nodes[selector]
	p.mu.Unlock()
	if !ok {
		return
	}
	n = n.clone()
	fn(&n)
	p.Apply(Update{Selector: selector, Present: true, Attrs: n.Attrs, Classes: n.Classes})
}

// Apply reconciles one element with a full report of its state and fires the
// matching callbacks.
func (p *Page) Apply(u Update) {
	p.mu.Lock()
	old, existed := p.nodes[u.Selector]
	structural := false
	var changed []string
	var current Node
	if !u.Present {
		if existed {
			delete(p.nodes, u.Selector)
			structural = true
		}
	} else {
		current = Node{Attrs: u.Attrs, Classes: u.Classes}.clone()
		p.nodes[u.Selector] = current
		if existed {
			changed = diff(old, current)
		} else {
			structural = true
		}
	}

	var observers []*subscription
	if len(changed) > 0 {
		for _, sub := range p.observers {
			if sub.selector == u.Selector && overlaps(sub.attrs, changed) {
				observers = append(observers, sub)
			}
		}
	}
	var mutations []*subscription
	if structural {
		mutations = slices.Clone(p.mutations)
	}
	p.mu.Unlock()

	for _, sub := range observers {
		if !sub.cancelled.Load() {
			sub.onAttr(current.clone())
		}
	}
	notifyMutations(mutations)
}

func notifyMutations(subs []*subscription) {
	for _, sub := range subs {
		if !sub.cancelled.Load() {
			sub.onMutate()
		}
	}
}

// diff lists the attribute names whose value changed, with ClassAttr standing
// in for the class list.
func diff(old, cur Node) []string {
	var names []string
	for k, v := range cur.Attrs {
		if ov, ok := old.Attrs[k]; !ok || ov != v {
			names = append(names, k)
		}
	}
	for k := range old.Attrs {
		if _, ok := cur.Attrs[k]; !ok {
			names = append(names, k)
		}
	}
	if !sameClasses(old.Classes, cur.Classes) && !slices.Contains(names, ClassAttr) {
		names = append(names, ClassAttr)
	}
	return names
}

func sameClasses(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for _, c := range a {
		if !slices.Contains(b, c) {
			return false
		}
	}
	return true
}

func overlaps(filter, changed []string) bool {
	for _, name := range changed {
		if slices.Contains(filter, name) {
			return true
		}
	}
	return false
}
