package parser

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"strconv"

	"fortio.org/safecast"
	"gopkg.in/yaml.v3"

	"github.com/TsekNet/confdiff/internal/value"
)

var yamlLineRE = regexp.MustCompile(`line (\d+)`)

// maxYAMLValues caps the number of values a document may expand to once
// aliases are resolved.
const maxYAMLValues = 1 << 20

// decodeYAML decodes the first document through yaml.Node so mapping order,
// anchors and merge keys are preserved.
func decodeYAML(data []byte) (value.Value, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return value.Null{}, nil
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &syntaxError{line: yamlErrorLine(err), msg: err.Error(), err: err}
	}
	d := &yamlDecoder{
		active:  make(map[*yaml.Node]bool),
		anchors: make(map[*yaml.Node]anchored),
	}
	return d.node(&doc)
}

type yamlDecoder struct {
	active  map[*yaml.Node]bool // aliases currently being expanded
	anchors map[*yaml.Node]anchored
	count   int // values produced so far, counting every alias expansion
}

// anchored is a decoded alias target. Values are never mutated after
// decoding, so every alias to the same anchor shares one value.
type anchored struct {
	v    value.Value
	size int
}

func (d *yamlDecoder) grow(n *yaml.Node, size int) error {
	d.count += size
	if d.count > maxYAMLValues {
		return &syntaxError{line: n.Line, msg: "document contains excessive aliasing"}
	}
	return nil
}

func (d *yamlDecoder) node(n *yaml.Node) (value.Value, error) {
	if n.Kind != yaml.AliasNode && n.Kind != yaml.DocumentNode {
		if err := d.grow(n, 1); err != nil {
			return nil, err
		}
	}
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return value.Null{}, nil
		}
		return d.node(n.Content[0])
	case yaml.SequenceNode:
		seq := make(value.Sequence, 0, len(n.Content))
		for _, c := range n.Content {
			v, err := d.node(c)
			if err != nil {
				return nil, err
			}
			seq = append(seq, v)
		}
		return seq, nil
	case yaml.MappingNode:
		return d.mapping(n)
	case yaml.AliasNode:
		return d.alias(n)
	case yaml.ScalarNode:
		return scalar(n)
	}
	return value.Null{}, nil
}

// alias decodes the anchor target once and reuses it for later aliases,
// still charging its full size against maxYAMLValues.
func (d *yamlDecoder) alias(n *yaml.Node) (value.Value, error) {
	if a, ok := d.anchors[n.Alias]; ok {
		if err := d.grow(n, a.size); err != nil {
			return nil, err
		}
		return a.v, nil
	}
	if d.active[n.Alias] {
		return nil, &syntaxError{line: n.Line, msg: fmt.Sprintf("recursive alias *%s", n.Value)}
	}
	d.active[n.Alias] = true
	defer delete(d.active, n.Alias)

	before := d.count
	v, err := d.node(n.Alias)
	if err != nil {
		return nil, err
	}
	d.anchors[n.Alias] = anchored{v: v, size: d.count - before}
	return v, nil
}

// mapping applies explicit keys first and fills in merged keys ("<<")
// afterwards, so explicit keys always win.
func (d *yamlDecoder) mapping(n *yaml.Node) (value.Value, error) {
	m := value.NewMapping(len(n.Content) / 2)
	var merges []*yaml.Node
	for i := 0; i+1 < len(n.Content); i += 2 {
		k, v := n.Content[i], n.Content[i+1]
		if k.Kind == yaml.ScalarNode && k.ShortTag() == "!!merge" {
			merges = append(merges, v)
			continue
		}
		child, err := d.node(v)
		if err != nil {
			return nil, err
		}
		m.Set(k.Value, child)
	}

	for _, src := range merges {
		targets := []*yaml.Node{src}
		if resolveAlias(src).Kind == yaml.SequenceNode {
			targets = resolveAlias(src).Content
		}
		for _, t := range targets {
			mv, err := d.node(t)
			if err != nil {
				return nil, err
			}
			mm, ok := mv.(*value.Mapping)
			if !ok {
				return nil, &syntaxError{line: t.Line, msg: "merge key value is not a mapping"}
			}
			for _, key := range mm.Keys() {
				if !m.Has(key) {
					val, _ := mm.Get(key)
					m.Set(key, val)
				}
			}
		}
	}
	return m, nil
}

func resolveAlias(n *yaml.Node) *yaml.Node {
	for n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	return n
}

func scalar(n *yaml.Node) (value.Value, error) {
	switch n.ShortTag() {
	case "!!null":
		return value.Null{}, nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return nil, &syntaxError{line: n.Line, msg: err.Error(), err: err}
		}
		return value.Bool(b), nil
	case "!!int", "!!float":
		var f float64
		if err := n.Decode(&f); err != nil {
			return nil, &syntaxError{line: n.Line, msg: err.Error(), err: err}
		}
		return value.Number(f), nil
	}
	// !!str, !!timestamp, !!binary and custom tags keep their source text.
	return value.String(n.Value), nil
}

func yamlErrorLine(err error) int {
	var te *yaml.TypeError
	msg := err.Error()
	if errors.As(err, &te) && len(te.Errors) > 0 {
		msg = te.Errors[0]
	}
	m := yamlLineRE.FindStringSubmatch(msg)
	if m == nil {
		return 0
	}
	n, perr := strconv.ParseUint(m[1], 10, 32)
	if perr != nil {
		return 0
	}
	line, cerr := safecast.Conv[int](n)
	if cerr != nil {
		return 0
	}
	return line
}
