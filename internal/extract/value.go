package extract

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Kind tags the shape held by a Value.
type Kind int

const (
	KindOther Kind = iota
	KindText
	KindSequence
	KindMapping
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindSequence:
		return "sequence"
	case KindMapping:
		return "mapping"
	default:
		return "other"
	}
}

// Value is a decoded payload node: a text leaf, an ordered collection, a
// keyed collection, or anything else (numbers, booleans, null).
type Value struct {
	kind   Kind
	text   string
	items  []Value
	fields []Field
}

// Field is one entry of a mapping. Mappings keep document order.
type Field struct {
	Key   string
	Value Value
}

func Text(s string) Value { return Value{kind: KindText, text: s} }

func Sequence(items ...Value) Value { return Value{kind: KindSequence, items: items} }

func Mapping(fields ...Field) Value { return Value{kind: KindMapping, fields: fields} }

func Other() Value { return Value{kind: KindOther} }

func (v Value) Kind() Kind { return v.kind }

func (v Value) Text() string { return v.text }

func (v Value) Items() []Value { return v.items }

func (v Value) Fields() []Field { return v.fields }

// Walk visits every text leaf depth-first, sequences in order and mappings in
// document order, until visit returns true. It reports whether visit stopped
// the walk.
func (v Value) Walk(visit func(string) bool) bool {
	switch v.kind {
	case KindText:
		return visit(v.text)
	case KindSequence:
		for _, item := range v.items {
			if item.Walk(visit) {
				return true
			}
		}
	case KindMapping:
		for _, f := range v.fields {
			if f.Value.Walk(visit) {
				return true
			}
		}
	}
	return false
}

// Parse decodes a JSON document into a Value, preserving object key order.
func Parse(raw []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	v, err := decodeValue(dec)
	if err != nil {
		return Value{}, fmt.Errorf("extract: decode payload: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return Value{}, errors.New("extract: trailing data after payload")
	}
	return v, nil
}

func decodeValue(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return Value{}, err
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '[':
			var items []Value
			for dec.More() {
				item, err := decodeValue(dec)
				if err != nil {
					return Value{}, err
				}
				items = append(items, item)
			}
			if _, err := dec.Token(); err != nil {
				return Value{}, err
			}
			return Sequence(items...), nil
		case '{':
			var fields []Field
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return Value{}, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return Value{}, fmt.Errorf("unexpected object key %v", keyTok)
				}
				val, err := decodeValue(dec)
				if err != nil {
					return Value{}, err
				}
				fields = append(fields, Field{Key: key, Value: val})
			}
			if _, err := dec.Token(); err != nil {
				return Value{}, err
			}
			return Mapping(fields...), nil
		default:
			return Value{}, fmt.Errorf("unexpected delimiter %q", t)
		}
	case string:
		return Text(t), nil
	default:
		return Other(), nil
	}
}
