// pkg/location/toml.go

package location

import (
	"fmt"

	"github.com/CodeMonkeyCybersecurity/versio/pkg/config"
	"github.com/pelletier/go-toml/v2/unstable"
)

// tomlLocate scans the document with go-toml's event parser, whose nodes
// carry raw byte ranges into the original data. The selector's leading
// atoms match the table path plus the key; trailing atoms may index into
// inline arrays.
func tomlLocate(data []byte, atoms []config.Atom) (span, error) {
	p := &unstable.Parser{}
	p.Reset(data)

	var table []string
	for p.NextExpression() {
		expr := p.Expression()
		switch expr.Kind {
		case unstable.Table, unstable.ArrayTable:
			table = tomlKeyParts(expr)
		case unstable.KeyValue:
			full := append(append([]string{}, table...), tomlKeyParts(expr)...)
			rest, ok := tomlMatchKeys(full, atoms)
			if !ok {
				continue
			}
			value := expr.Value()
			return tomlValueSpan(data, value, rest)
		}
	}
	if err := p.Error(); err != nil {
		return span{}, err
	}
	return span{}, fmt.Errorf("selector %s not found", selectorString(atoms))
}

// tomlKeyParts collects the dotted key components of a table header or
// key-value expression.
func tomlKeyParts(expr *unstable.Node) []string {
	var parts []string
	it := expr.Key()
	for it.Next() {
		parts = append(parts, string(it.Node().Data))
	}
	return parts
}

// tomlMatchKeys consumes one selector atom per key component; the remainder
// of the selector indexes into the value.
func tomlMatchKeys(keys []string, atoms []config.Atom) ([]config.Atom, bool) {
	if len(atoms) < len(keys) {
		return nil, false
	}
	for i, key := range keys {
		a := atoms[i]
		if a.IsIndex && !a.Ambiguous {
			return nil, false
		}
		if a.Key != key {
			return nil, false
		}
	}
	return atoms[len(keys):], true
}

func tomlValueSpan(data []byte, value *unstable.Node, rest []config.Atom) (span, error) {
	for len(rest) > 0 {
		head := rest[0]
		switch value.Kind {
		case unstable.Array:
			if !head.IsIndex && !head.Ambiguous {
				return span{}, fmt.Errorf("key %q into an array", head.Key)
			}
			child := value.Child()
			for i := 0; i < head.Index && child != nil; i++ {
				child = child.Next()
			}
			if child == nil {
				return span{}, fmt.Errorf("index %d out of range", head.Index)
			}
			value = child
		case unstable.InlineTable:
			if head.IsIndex && !head.Ambiguous {
				return span{}, fmt.Errorf("index %d into an inline table", head.Index)
			}
			found := false
			for kv := value.Child(); kv != nil; kv = kv.Next() {
				parts := tomlKeyParts(kv)
				if len(parts) == 1 && parts[0] == head.Key {
					value = kv.Value()
					found = true
					break
				}
			}
			if !found {
				return span{}, fmt.Errorf("key %q not found", head.Key)
			}
		default:
			return span{}, fmt.Errorf("selector descends into a scalar")
		}
		rest = rest[1:]
	}

	if value.Kind != unstable.String {
		return span{}, fmt.Errorf("selected value is not a string")
	}

	start := int(value.Raw.Offset)
	end := start + int(value.Raw.Length)
	if end > len(data) || data[start] != '"' && data[start] != '\'' {
		return span{}, fmt.Errorf("unsupported string style for a version value")
	}
	return span{start: start + 1, end: end - 1, value: string(value.Data)}, nil
}
