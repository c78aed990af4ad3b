package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// NodeKind identifies the shape of a document node
type NodeKind int

const (
	KindLeaf NodeKind = iota
	KindMapping
	KindSequence
)

// Entry is a single key/value pair inside a mapping node
type Entry struct {
	Key   string
	Value *Node
}

// Node is one node of a raw provider fundamentals document. Mappings keep
// their entries in document order, which matters because metric resolution
// returns the first match in a depth-first walk.
type Node struct {
	kind    NodeKind
	entries []Entry
	items   []*Node
	leaf    any // string, json.Number, bool, or nil
}

// Kind returns the node shape
func (n *Node) Kind() NodeKind {
	if n == nil {
		return KindLeaf
	}
	return n.kind
}

// Entries returns the mapping entries in document order
func (n *Node) Entries() []Entry {
	if n == nil {
		return nil
	}
	return n.entries
}

// Items returns the sequence elements in document order
func (n *Node) Items() []*Node {
	if n == nil {
		return nil
	}
	return n.items
}

// Leaf returns the scalar value of a leaf node (string, json.Number, bool, or nil)
func (n *Node) Leaf() any {
	if n == nil {
		return nil
	}
	return n.leaf
}

// Get returns the value for a mapping key, or false if absent
func (n *Node) Get(key string) (*Node, bool) {
	if n == nil || n.kind != KindMapping {
		return nil, false
	}
	for _, e := range n.entries {
		if e.Key == key {
			return e.Value, true
		}
	}
	return nil, false
}

// StringAt returns the string leaf at key, or fallback when the key is
// missing or not a string
func (n *Node) StringAt(key string, fallback string) string {
	child, ok := n.Get(key)
	if !ok {
		return fallback
	}
	if s, ok := child.Leaf().(string); ok {
		return s
	}
	return fallback
}

// DecodeNode parses a JSON payload into an order-preserving node tree.
// Numbers are kept as json.Number so no precision is lost before metric
// coercion decides how to interpret them.
func DecodeNode(data []byte) (*Node, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	return decodeValue(dec)
}

func decodeValue(dec *json.Decoder) (*Node, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}

	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			return decodeMapping(dec)
		case '[':
			return decodeSequence(dec)
		default:
			return nil, fmt.Errorf("unexpected delimiter %q", t.String())
		}
	default:
		// string, json.Number, bool, or nil
		return &Node{kind: KindLeaf, leaf: tok}, nil
	}
}

func decodeMapping(dec *json.Decoder) (*Node, error) {
	node := &Node{kind: KindMapping}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("expected object key, got %v", keyTok)
		}
		value, err := decodeValue(dec)
		if err != nil {
			return nil, err
		}
		node.entries = append(node.entries, Entry{Key: key, Value: value})
	}
	// Consume closing brace
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return node, nil
}

func decodeSequence(dec *json.Decoder) (*Node, error) {
	node := &Node{kind: KindSequence}
	for dec.More() {
		item, err := decodeValue(dec)
		if err != nil {
			return nil, err
		}
		node.items = append(node.items, item)
	}
	// Consume closing bracket
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return node, nil
}

// RawDocument is the provider fundamentals payload for a single company:
// the profile and ratios sections keyed under the ISIN, plus the raw bytes
// for cache storage.
type RawDocument struct {
	ISIN    string
	Profile *Node
	Ratios  *Node
	Raw     []byte
}

// ParseDocument parses a combined provider payload of the form
// {"<isin>": {"profile": {...}, "ratios": {...}}}. The first top-level key
// is taken as the ISIN. Missing sections are left nil; resolution treats
// them as empty.
func ParseDocument(data []byte) (*RawDocument, error) {
	root, err := DecodeNode(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse fundamentals document: %w", err)
	}

	if root.Kind() != KindMapping || len(root.Entries()) == 0 {
		return nil, fmt.Errorf("fundamentals document has no company entry")
	}

	first := root.Entries()[0]
	doc := &RawDocument{
		ISIN: first.Key,
		Raw:  data,
	}

	company := first.Value
	if profile, ok := company.Get("profile"); ok {
		doc.Profile = profile
	}
	if ratios, ok := company.Get("ratios"); ok {
		doc.Ratios = ratios
	}

	return doc, nil
}

// AssembleDocument builds a combined payload from separately fetched profile
// and ratios responses and parses it. Either section may be nil.
func AssembleDocument(isin string, profile, ratios json.RawMessage) (*RawDocument, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	keyBytes, _ := json.Marshal(isin)
	buf.Write(keyBytes)
	buf.WriteString(`:{"profile":`)
	if len(profile) > 0 {
		buf.Write(profile)
	} else {
		buf.WriteString("null")
	}
	buf.WriteString(`,"ratios":`)
	if len(ratios) > 0 {
		buf.Write(ratios)
	} else {
		buf.WriteString("null")
	}
	buf.WriteString("}}")

	return ParseDocument(buf.Bytes())
}
