package metadata

import "encoding/xml"

// element is a generic XML tree node. Searches are namespace-qualified
// and walk descendants in document order, mirroring the export format's
// loose structure: missing elements are tolerated, never fatal.
type element struct {
	XMLName  xml.Name
	Attrs    []xml.Attr `xml:",any,attr"`
	Children []element  `xml:",any"`
	Text     string     `xml:",chardata"`
}

func (e *element) attr(name string) string {
	for _, a := range e.Attrs {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

// child returns the first direct child with the given namespace and
// local name, or nil.
func (e *element) child(space, local string) *element {
	for i := range e.Children {
		c := &e.Children[i]
		if c.XMLName.Space == space && c.XMLName.Local == local {
			return c
		}
	}
	return nil
}

// findFirst returns the first descendant (excluding e itself) with the
// given namespace and local name, in document order.
func (e *element) findFirst(space, local string) *element {
	for i := range e.Children {
		c := &e.Children[i]
		if c.XMLName.Space == space && c.XMLName.Local == local {
			return c
		}
		if found := c.findFirst(space, local); found != nil {
			return found
		}
	}
	return nil
}

// findAll returns every descendant with the given namespace and local
// name, in document order.
func (e *element) findAll(space, local string) []*element {
	var out []*element
	for i := range e.Children {
		c := &e.Children[i]
		if c.XMLName.Space == space && c.XMLName.Local == local {
			out = append(out, c)
		}
		out = append(out, c.findAll(space, local)...)
	}
	return out
}
