// Package parser converts YAML search-space definitions into deferred
// expression graphs.
//
// Tagged nodes drive the conversion: !call:NAME defers a registered
// operation over a mapping (keyword arguments) or sequence (positional
// arguments), !param:NAME declares a free parameter with optional
// attributes, and !choice:NAME declares a categorical switch over labelled
// alternatives. Untagged scalars become literals; untagged sequences and
// mappings become deferred list and dict constructions so their elements may
// themselves be deferred. Anchors and aliases convert to shared graph nodes.
package parser

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/parametric-labs/searchspace/pkg/graph"
	"github.com/parametric-labs/searchspace/pkg/types"
	"gopkg.in/yaml.v3"
)

// MaxSourceSize is the maximum search-space source size in bytes (128 KB).
const MaxSourceSize = 128 * 1024

const (
	tagCall   = "!call:"
	tagParam  = "!param:"
	tagChoice = "!choice:"
)

// ParseError represents an error encountered while converting a definition.
type ParseError struct {
	Message  string
	Location string // e.g. "line 4, column 7"
}

func (e *ParseError) Error() string {
	if e.Location != "" {
		return fmt.Sprintf("parse error at %s: %s", e.Location, e.Message)
	}
	return fmt.Sprintf("parse error: %s", e.Message)
}

// Options adjusts parsing behavior.
type Options struct {
	// Registry resolves !call: operation names. Defaults to nothing: a nil
	// registry is an error, since call construction must fail fast on
	// unknown operations.
	Registry graph.Resolver

	// Environ overlays the process environment for ${VAR} substitution in
	// string scalars. Keys here win over os.Environ.
	Environ map[string]string
}

// Parse converts a YAML search-space definition into a graph, returning the
// graph and its root node.
func Parse(source []byte, opts Options) (*graph.Graph, graph.NodeID, error) {
	if opts.Registry == nil {
		return nil, 0, &ParseError{Message: "no operation registry supplied"}
	}
	if len(source) > MaxSourceSize {
		return nil, 0, &ParseError{Message: fmt.Sprintf("source size %d exceeds maximum %d bytes", len(source), MaxSourceSize)}
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(source, &doc); err != nil {
		return nil, 0, &ParseError{Message: fmt.Sprintf("invalid YAML: %v", err)}
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, 0, &ParseError{Message: "empty search-space definition"}
	}

	c := &converter{
		g:          graph.New(opts.Registry),
		environ:    opts.Environ,
		converted:  make(map[*yaml.Node]graph.NodeID),
		converting: make(map[*yaml.Node]bool),
	}
	root, err := c.convert(doc.Content[0])
	if err != nil {
		return nil, 0, err
	}
	return c.g, root, nil
}

type converter struct {
	g       *graph.Graph
	environ map[string]string

	// converted memoizes finished yaml nodes so anchors shared by several
	// aliases become shared graph nodes; converting tracks in-flight nodes
	// so a self-referential alias is reported as a cycle.
	converted  map[*yaml.Node]graph.NodeID
	converting map[*yaml.Node]bool
}

func (c *converter) convert(n *yaml.Node) (graph.NodeID, error) {
	if n.Kind == yaml.AliasNode {
		n = n.Alias
	}
	if id, ok := c.converted[n]; ok {
		return id, nil
	}
	if c.converting[n] {
		return 0, &ParseError{
			Message:  "definition contains a cycle (alias refers to an enclosing anchor)",
			Location: location(n),
		}
	}
	c.converting[n] = true
	defer delete(c.converting, n)

	var id graph.NodeID
	var err error
	switch {
	case strings.HasPrefix(n.Tag, tagCall):
		id, err = c.convertCall(n, strings.TrimPrefix(n.Tag, tagCall))
	case strings.HasPrefix(n.Tag, tagParam):
		id, err = c.convertParam(n, strings.TrimPrefix(n.Tag, tagParam))
	case strings.HasPrefix(n.Tag, tagChoice):
		id, err = c.convertChoice(n, strings.TrimPrefix(n.Tag, tagChoice))
	default:
		switch n.Kind {
		case yaml.ScalarNode:
			id, err = c.convertScalar(n)
		case yaml.SequenceNode:
			id, err = c.convertSequence(n)
		case yaml.MappingNode:
			id, err = c.convertMapping(n)
		default:
			err = &ParseError{Message: fmt.Sprintf("unsupported YAML node kind %d", n.Kind), Location: location(n)}
		}
	}
	if err != nil {
		return 0, err
	}
	c.converted[n] = id
	return id, nil
}

// convertCall builds a deferred call: mapping bodies supply keyword
// arguments, sequence bodies positional arguments, a null scalar no
// arguments at all.
func (c *converter) convertCall(n *yaml.Node, op string) (graph.NodeID, error) {
	if op == "" {
		return 0, &ParseError{Message: "!call: tag is missing an operation name", Location: location(n)}
	}
	var pos []graph.NodeID
	var kw map[string]graph.NodeID

	switch n.Kind {
	case yaml.MappingNode:
		kw = make(map[string]graph.NodeID, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			name := n.Content[i].Value
			if _, dup := kw[name]; dup {
				return 0, &ParseError{Message: fmt.Sprintf("duplicate argument '%s'", name), Location: location(n.Content[i])}
			}
			arg, err := c.convert(n.Content[i+1])
			if err != nil {
				return 0, err
			}
			kw[name] = arg
		}
	case yaml.SequenceNode:
		pos = make([]graph.NodeID, 0, len(n.Content))
		for _, item := range n.Content {
			arg, err := c.convert(item)
			if err != nil {
				return 0, err
			}
			pos = append(pos, arg)
		}
	case yaml.ScalarNode:
		if n.Value != "" && n.Value != "~" && n.Value != "null" {
			return 0, &ParseError{
				Message:  fmt.Sprintf("!call:%s body must be a mapping, sequence, or null", op),
				Location: location(n),
			}
		}
	}

	id, err := c.g.Call(op, pos, kw)
	if err != nil {
		return 0, &ParseError{Message: err.Error(), Location: location(n)}
	}
	return id, nil
}

// paramAttrNames are the declaration attributes a !param: mapping accepts.
var paramAttrNames = map[string]bool{
	"type":         true,
	"min":          true,
	"max":          true,
	"default":      true,
	"log_scale":    true,
	"distribution": true,
	"values":       true,
}

// convertParam builds a free-parameter node. The body, if present, is a
// mapping of declaration attributes with plain scalar or sequence values.
func (c *converter) convertParam(n *yaml.Node, name string) (graph.NodeID, error) {
	if name == "" {
		return 0, &ParseError{Message: "!param: tag is missing a parameter name", Location: location(n)}
	}
	var attrs *types.OrderedMap
	switch n.Kind {
	case yaml.MappingNode:
		attrs = types.NewOrderedMap()
		for i := 0; i+1 < len(n.Content); i += 2 {
			key := n.Content[i].Value
			if !paramAttrNames[key] {
				return 0, &ParseError{
					Message:  fmt.Sprintf("unknown parameter attribute '%s'", key),
					Location: location(n.Content[i]),
				}
			}
			v, err := c.plainValue(n.Content[i+1])
			if err != nil {
				return 0, err
			}
			attrs.Set(key, v)
		}
	case yaml.ScalarNode:
		if n.Value != "" && n.Value != "~" && n.Value != "null" {
			return 0, &ParseError{
				Message:  fmt.Sprintf("!param:%s body must be an attribute mapping or null", name),
				Location: location(n),
			}
		}
	default:
		return 0, &ParseError{
			Message:  fmt.Sprintf("!param:%s body must be an attribute mapping or null", name),
			Location: location(n),
		}
	}
	return c.g.Param(name, attrs), nil
}

// convertChoice builds the categorical switch construct: a sequence of
// [label, expression] pairs, indexed by a parameter named after the tag.
// Lazy indexing means only the chosen alternative is ever evaluated.
func (c *converter) convertChoice(n *yaml.Node, name string) (graph.NodeID, error) {
	if name == "" {
		return 0, &ParseError{Message: "!choice: tag is missing a parameter name", Location: location(n)}
	}
	if n.Kind != yaml.SequenceNode {
		return 0, &ParseError{
			Message:  fmt.Sprintf("!choice:%s body must be a sequence of [label, expression] pairs", name),
			Location: location(n),
		}
	}
	alternatives := make(map[string]graph.NodeID, len(n.Content))
	labels := make([]types.Value, 0, len(n.Content))
	for _, item := range n.Content {
		if item.Kind != yaml.SequenceNode || len(item.Content) != 2 {
			return 0, &ParseError{
				Message:  "choice alternatives must be [label, expression] pairs",
				Location: location(item),
			}
		}
		label := item.Content[0].Value
		if _, dup := alternatives[label]; dup {
			return 0, &ParseError{
				Message:  fmt.Sprintf("duplicate choice label '%s'", label),
				Location: location(item),
			}
		}
		expr, err := c.convert(item.Content[1])
		if err != nil {
			return 0, err
		}
		alternatives[label] = expr
		labels = append(labels, types.NewString(label))
	}

	attrs := types.NewOrderedMap()
	attrs.Set("type", types.NewString("categorical"))
	attrs.Set("values", types.NewList(labels))
	selector := c.g.Param(name, attrs)

	id, err := c.g.Choice(selector, alternatives)
	if err != nil {
		return 0, &ParseError{Message: err.Error(), Location: location(n)}
	}
	return id, nil
}

func (c *converter) convertSequence(n *yaml.Node) (graph.NodeID, error) {
	elems := make([]graph.NodeID, 0, len(n.Content))
	for _, item := range n.Content {
		elem, err := c.convert(item)
		if err != nil {
			return 0, err
		}
		elems = append(elems, elem)
	}
	id, err := c.g.List(elems...)
	if err != nil {
		return 0, &ParseError{Message: err.Error(), Location: location(n)}
	}
	return id, nil
}

func (c *converter) convertMapping(n *yaml.Node) (graph.NodeID, error) {
	pairs := make([]graph.NodeID, 0, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		key := c.g.Literal(types.NewString(n.Content[i].Value))
		value, err := c.convert(n.Content[i+1])
		if err != nil {
			return 0, err
		}
		pair, err := c.g.Pair(key, value)
		if err != nil {
			return 0, &ParseError{Message: err.Error(), Location: location(n)}
		}
		pairs = append(pairs, pair)
	}
	id, err := c.g.Dict(pairs...)
	if err != nil {
		return 0, &ParseError{Message: err.Error(), Location: location(n)}
	}
	return id, nil
}

func (c *converter) convertScalar(n *yaml.Node) (graph.NodeID, error) {
	v, err := c.scalarValue(n)
	if err != nil {
		return 0, err
	}
	return c.g.Literal(v), nil
}

// plainValue converts a yaml node into a concrete value with no deferral,
// for parameter attributes.
func (c *converter) plainValue(n *yaml.Node) (types.Value, error) {
	switch n.Kind {
	case yaml.ScalarNode:
		return c.scalarValue(n)
	case yaml.SequenceNode:
		items := make([]types.Value, 0, len(n.Content))
		for _, item := range n.Content {
			v, err := c.plainValue(item)
			if err != nil {
				return types.Null, err
			}
			items = append(items, v)
		}
		return types.NewList(items), nil
	case yaml.MappingNode:
		m := types.NewOrderedMap()
		for i := 0; i+1 < len(n.Content); i += 2 {
			v, err := c.plainValue(n.Content[i+1])
			if err != nil {
				return types.Null, err
			}
			m.Set(n.Content[i].Value, v)
		}
		return types.NewMap(m), nil
	}
	return types.Null, &ParseError{Message: "expected a plain value", Location: location(n)}
}

// scalarValue converts a scalar node to a typed value, substituting ${VAR}
// references in strings.
func (c *converter) scalarValue(n *yaml.Node) (types.Value, error) {
	switch n.Tag {
	case "!!null":
		return types.Null, nil
	case "!!bool":
		return types.NewBool(strings.EqualFold(n.Value, "true") || strings.EqualFold(n.Value, "yes")), nil
	case "!!int":
		i, err := strconv.ParseInt(n.Value, 0, 64)
		if err != nil {
			return types.Null, &ParseError{Message: fmt.Sprintf("invalid integer '%s'", n.Value), Location: location(n)}
		}
		return types.NewInt(i), nil
	case "!!float":
		f, err := strconv.ParseFloat(n.Value, 64)
		if err != nil {
			return types.Null, &ParseError{Message: fmt.Sprintf("invalid float '%s'", n.Value), Location: location(n)}
		}
		return types.NewDouble(f), nil
	case "!!str", "":
		s, err := c.substitute(n)
		if err != nil {
			return types.Null, err
		}
		return types.NewString(s), nil
	}
	return types.Null, &ParseError{Message: fmt.Sprintf("unsupported scalar tag '%s'", n.Tag), Location: location(n)}
}

// substitute expands ${VAR} references from the overlay map, falling back to
// the process environment. An unresolvable reference is a configuration
// error, not an empty string.
func (c *converter) substitute(n *yaml.Node) (string, error) {
	s := n.Value
	if !strings.Contains(s, "${") {
		return s, nil
	}
	var missing string
	expanded := os.Expand(s, func(name string) string {
		if v, ok := c.environ[name]; ok {
			return v
		}
		if v, ok := os.LookupEnv(name); ok {
			return v
		}
		if missing == "" {
			missing = name
		}
		return ""
	})
	if missing != "" {
		return "", &ParseError{
			Message:  fmt.Sprintf("undefined substitution variable '%s'", missing),
			Location: location(n),
		}
	}
	return expanded, nil
}

func location(n *yaml.Node) string {
	return fmt.Sprintf("line %d, column %d", n.Line, n.Column)
}
