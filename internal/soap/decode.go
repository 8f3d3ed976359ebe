package soap

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"golang.org/x/text/encoding/ianaindex"
)

// maxRefDepth bounds multiRef resolution, guarding against reference cycles.
const maxRefDepth = 32

// ErrEmptyResponse is returned when the response body holds no XML element.
var ErrEmptyResponse = errors.New("empty SOAP response")

// Node is a decoded XML element holding child elements.
//
// Child elements are keyed by their local name, without namespace prefix:
//   - an element holding only text decodes to a string;
//   - an element holding children decodes to a map[string]any;
//   - an empty element decodes to nil, or to a map of its attributes when it has any,
//     which is how absent (xsi:nil) values come back;
//   - repeated elements decode to a []any, in document order.
//
// Attributes are keyed by their local name prefixed with "@".
type Node map[string]any

// Get walks the node along keys and returns the value found.
func (n Node) Get(keys ...string) (any, bool) {
	var cur any = map[string]any(n)
	for _, k := range keys {
		m, ok := asMap(cur)
		if !ok {
			return nil, false
		}
		if cur, ok = m[k]; !ok {
			return nil, false
		}
	}
	return cur, true
}

// Child returns the node found at keys. It returns an empty node if the path does not lead to an element with children.
func (n Node) Child(keys ...string) Node {
	v, ok := n.Get(keys...)
	if !ok {
		return Node{}
	}
	m, ok := asMap(v)
	if !ok {
		return Node{}
	}
	return Node(m)
}

// Scalars returns the text values held at v, in document order.
//
// A string yields itself, a list yields each of its scalar elements and an element with
// children yields the scalars of its non attribute children. Anything else yields nothing.
func Scalars(v any) []string {
	switch t := v.(type) {
	case string:
		return []string{t}
	case []any:
		var r []string
		for _, e := range t {
			r = append(r, Scalars(e)...)
		}
		return r
	case map[string]any, Node:
		m, _ := asMap(t)
		keys := make([]string, 0, len(m))
		for k := range m {
			if strings.HasPrefix(k, "@") {
				continue
			}
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var r []string
		for _, k := range keys {
			r = append(r, Scalars(m[k])...)
		}
		return r
	default:
		return nil
	}
}

func asMap(v any) (map[string]any, bool) {
	switch t := v.(type) {
	case map[string]any:
		return t, true
	case Node:
		return map[string]any(t), true
	default:
		return nil, false
	}
}

type element struct {
	name     string
	attrs    map[string]string
	children []*element
	text     strings.Builder
}

// parse reads the whole document and returns its root element.
func parse(r io.Reader) (*element, error) {
	dec := xml.NewDecoder(r)
	dec.CharsetReader = charsetReader

	var root *element
	var stack []*element
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("invalid SOAP response: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			e := &element{name: t.Name.Local}
			for _, a := range t.Attr {
				if a.Name.Space == "xmlns" || a.Name.Local == "xmlns" {
					continue
				}
				if e.attrs == nil {
					e.attrs = make(map[string]string)
				}
				e.attrs[a.Name.Local] = a.Value
			}
			if len(stack) > 0 {
				parent := stack[len(stack)-1]
				parent.children = append(parent.children, e)
			} else if root == nil {
				root = e
			}
			stack = append(stack, e)
		case xml.EndElement:
			stack = stack[:len(stack)-1]
		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].text.Write(t)
			}
		}
	}

	if root == nil {
		return nil, ErrEmptyResponse
	}
	return root, nil
}

// charsetReader decodes responses declared in any IANA registered charset.
func charsetReader(label string, input io.Reader) (io.Reader, error) {
	enc, err := ianaindex.IANA.Encoding(label)
	if err != nil {
		return nil, fmt.Errorf("unsupported response charset %q: %w", label, err)
	}
	if enc == nil {
		return nil, fmt.Errorf("unsupported response charset %q", label)
	}
	return enc.NewDecoder().Reader(input), nil
}

// child returns the first direct child with the given local name.
func (e *element) child(name string) *element {
	for _, c := range e.children {
		if c.name == name {
			return c
		}
	}
	return nil
}

// refs indexes every element carrying an id attribute, for SOAP encoded multiRef resolution.
func (e *element) refs(index map[string]*element) map[string]*element {
	if index == nil {
		index = make(map[string]*element)
	}
	if id, ok := e.attrs["id"]; ok {
		index[id] = e
	}
	for _, c := range e.children {
		c.refs(index)
	}
	return index
}

// node decodes the children of e, skipping multiRef holders which are only reached by reference.
func (e *element) node(refs map[string]*element) Node {
	n := Node{}
	for _, c := range e.children {
		if c.name == "multiRef" {
			continue
		}
		add(n, c.name, c.value(refs, 0))
	}
	return n
}

func (e *element) value(refs map[string]*element, depth int) any {
	if href, ok := e.attrs["href"]; ok && strings.HasPrefix(href, "#") && depth < maxRefDepth {
		if target, ok := refs[strings.TrimPrefix(href, "#")]; ok {
			return target.value(refs, depth+1)
		}
	}

	if len(e.children) == 0 {
		text := e.text.String()
		if strings.TrimSpace(text) != "" {
			return text
		}
		if len(e.attrs) == 0 {
			return nil
		}
		m := make(map[string]any, len(e.attrs))
		for k, v := range e.attrs {
			m["@"+k] = v
		}
		return m
	}

	m := make(map[string]any, len(e.children)+len(e.attrs))
	for k, v := range e.attrs {
		if k == "href" || k == "id" {
			continue
		}
		m["@"+k] = v
	}
	for _, c := range e.children {
		add(m, c.name, c.value(refs, depth+1))
	}
	return m
}

// add stores v under key, turning repeated keys into a list.
func add(m map[string]any, key string, v any) {
	prev, ok := m[key]
	if !ok {
		m[key] = v
		return
	}
	if l, ok := prev.([]any); ok {
		m[key] = append(l, v)
		return
	}
	m[key] = []any{prev, v}
}
