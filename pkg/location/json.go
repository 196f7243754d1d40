// pkg/location/json.go

package location

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/CodeMonkeyCybersecurity/versio/pkg/config"
)

// jsonLocate walks the token stream so the located span maps onto the raw
// bytes; version values are plain strings, so the quoted token length is
// len(value)+2.
func jsonLocate(data []byte, atoms []config.Atom) (span, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	sp, found, err := jsonDescend(dec, data, atoms)
	if err != nil {
		return span{}, err
	}
	if !found {
		return span{}, fmt.Errorf("selector %s not found", selectorString(atoms))
	}
	return sp, nil
}

func jsonDescend(dec *json.Decoder, data []byte, atoms []config.Atom) (span, bool, error) {
	if len(atoms) == 0 {
		tok, err := dec.Token()
		if err != nil {
			return span{}, false, err
		}
		str, ok := tok.(string)
		if !ok {
			return span{}, false, fmt.Errorf("selected value is not a string")
		}
		end := int(dec.InputOffset())
		start := end - len(str) - 2
		if start < 0 || data[start] != '"' {
			return span{}, false, fmt.Errorf("selected string contains escapes")
		}
		return span{start: start + 1, end: end - 1, value: str}, true, nil
	}

	head := atoms[0]
	tok, err := dec.Token()
	if err != nil {
		return span{}, false, err
	}

	switch tok {
	case json.Delim('{'):
		if head.IsIndex && !head.Ambiguous {
			return jsonDrainObject(dec)
		}
		for dec.More() {
			keyTok, err := dec.Token()
			if err != nil {
				return span{}, false, err
			}
			key, _ := keyTok.(string)
			if key == head.Key {
				sp, found, err := jsonDescend(dec, data, atoms[1:])
				if err != nil || found {
					return sp, found, err
				}
				return jsonDrainObject(dec)
			}
			if err := jsonSkip(dec); err != nil {
				return span{}, false, err
			}
		}
		_, err = dec.Token() // closing }
		return span{}, false, err

	case json.Delim('['):
		if !head.IsIndex && !head.Ambiguous {
			return jsonDrainArray(dec)
		}
		idx := 0
		for dec.More() {
			if idx == head.Index {
				sp, found, err := jsonDescend(dec, data, atoms[1:])
				if err != nil || found {
					return sp, found, err
				}
				return jsonDrainArray(dec)
			}
			if err := jsonSkip(dec); err != nil {
				return span{}, false, err
			}
			idx++
		}
		_, err = dec.Token() // closing ]
		return span{}, false, err
	}

	return span{}, false, nil // scalar mid-path: selector miss
}

// jsonSkip consumes exactly one value, compound or scalar.
func jsonSkip(dec *json.Decoder) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == json.Delim('{') || tok == json.Delim('[') {
		depth := 1
		for depth > 0 {
			tok, err := dec.Token()
			if err != nil {
				return err
			}
			switch tok {
			case json.Delim('{'), json.Delim('['):
				depth++
			case json.Delim('}'), json.Delim(']'):
				depth--
			}
		}
	}
	return nil
}

func jsonDrainObject(dec *json.Decoder) (span, bool, error) {
	for dec.More() {
		if _, err := dec.Token(); err != nil {
			return span{}, false, err
		}
		if err := jsonSkip(dec); err != nil {
			return span{}, false, err
		}
	}
	_, err := dec.Token()
	return span{}, false, err
}

func jsonDrainArray(dec *json.Decoder) (span, bool, error) {
	for dec.More() {
		if err := jsonSkip(dec); err != nil {
			return span{}, false, err
		}
	}
	_, err := dec.Token()
	return span{}, false, err
}

func selectorString(atoms []config.Atom) string {
	s := &config.Selector{Atoms: atoms}
	return s.String()
}
