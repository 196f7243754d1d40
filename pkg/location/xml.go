// pkg/location/xml.go

package location

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/CodeMonkeyCybersecurity/versio/pkg/config"
)

// xmlLocate walks the element tree by name (key atoms) or child position
// (index atoms); the selected element's character data is the value. The
// root element consumes the first key atom, as in "project.version" for a
// pom file.
func xmlLocate(data []byte, atoms []config.Atom) (span, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))

	sp, found, err := xmlDescendTop(dec, atoms)
	if err != nil && err != io.EOF {
		return span{}, err
	}
	if !found {
		return span{}, fmt.Errorf("selector %s not found", selectorString(atoms))
	}
	return sp, nil
}

func xmlDescendTop(dec *xml.Decoder, atoms []config.Atom) (span, bool, error) {
	idx := 0
	for {
		tok, err := dec.Token()
		if err != nil {
			return span{}, false, err
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		if xmlAtomMatches(atoms[0], start.Name.Local, idx) {
			return xmlInside(dec, atoms[1:])
		}
		idx++
		if err := dec.Skip(); err != nil {
			return span{}, false, err
		}
	}
}

// xmlInside is positioned just after a matched StartElement. With atoms
// left it searches child elements; with none it captures the chardata.
func xmlInside(dec *xml.Decoder, atoms []config.Atom) (span, bool, error) {
	if len(atoms) == 0 {
		contentStart := int(dec.InputOffset())
		tok, err := dec.Token()
		if err != nil {
			return span{}, false, err
		}
		text, ok := tok.(xml.CharData)
		if !ok {
			if _, isEnd := tok.(xml.EndElement); isEnd {
				return span{}, false, fmt.Errorf("selected element is empty")
			}
			return span{}, false, fmt.Errorf("selected element has child elements")
		}
		contentEnd := int(dec.InputOffset())
		value := string(text)
		if strings.ContainsAny(value, "&<") || contentEnd-contentStart != len(value) {
			return span{}, false, fmt.Errorf("selected element contains markup")
		}
		return span{start: contentStart, end: contentEnd, value: value}, true, nil
	}

	idx := 0
	for {
		tok, err := dec.Token()
		if err != nil {
			return span{}, false, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if xmlAtomMatches(atoms[0], t.Name.Local, idx) {
				return xmlInside(dec, atoms[1:])
			}
			idx++
			if err := dec.Skip(); err != nil {
				return span{}, false, err
			}
		case xml.EndElement:
			return span{}, false, nil
		}
	}
}

// xmlAtomMatches matches a key atom by element name, an index atom by
// child position; an ambiguous atom prefers the name, falling back to the
// position.
func xmlAtomMatches(a config.Atom, name string, idx int) bool {
	if a.IsIndex && !a.Ambiguous {
		return idx == a.Index
	}
	if a.Key == name {
		return true
	}
	return a.Ambiguous && idx == a.Index
}
