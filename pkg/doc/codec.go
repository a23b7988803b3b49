package doc

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"

	"gopkg.in/yaml.v3"
)

// MarshalJSON writes maps in insertion order. Non-finite numbers are
// written as null.
func (n Node) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := n.writeJSON(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (n Node) writeJSON(buf *bytes.Buffer) error {
	switch n.kind {
	case KindNull:
		buf.WriteString("null")
	case KindString:
		b, err := json.Marshal(n.str)
		if err != nil {
			return err
		}
		buf.Write(b)
	case KindNumber:
		if math.IsNaN(n.num) || math.IsInf(n.num, 0) {
			buf.WriteString("null")
			return nil
		}
		buf.WriteString(formatNumber(n.num))
	case KindBool:
		buf.WriteString(strconv.FormatBool(n.b))
	case KindMap:
		buf.WriteByte('{')
		for i, k := range n.keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			kb, err := json.Marshal(k)
			if err != nil {
				return err
			}
			buf.Write(kb)
			buf.WriteByte(':')
			if err := n.m[k].writeJSON(buf); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	case KindSeq:
		buf.WriteByte('[')
		for i, v := range n.seq {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := v.writeJSON(buf); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	}
	return nil
}

// UnmarshalJSON decodes any JSON value, keeping object key order.
func (n *Node) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	v, err := decodeValue(dec)
	if err != nil {
		return err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return fmt.Errorf("doc: trailing data after JSON value")
	}
	*n = v
	return nil
}

func decodeValue(dec *json.Decoder) (Node, error) {
	tok, err := dec.Token()
	if err != nil {
		return Node{}, err
	}
	switch t := tok.(type) {
	case nil:
		return Null(), nil
	case string:
		return String(t), nil
	case bool:
		return Bool(t), nil
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return Node{}, fmt.Errorf("doc: number %s: %w", t, err)
		}
		return Number(f), nil
	case json.Delim:
		switch t {
		case '{':
			m := NewMap()
			for dec.More() {
				kt, err := dec.Token()
				if err != nil {
					return Node{}, err
				}
				key, ok := kt.(string)
				if !ok {
					return Node{}, fmt.Errorf("doc: object key %v is not a string", kt)
				}
				v, err := decodeValue(dec)
				if err != nil {
					return Node{}, err
				}
				m.setKey(key, v)
			}
			if _, err := dec.Token(); err != nil {
				return Node{}, err
			}
			return m, nil
		case '[':
			s := Node{kind: KindSeq, seq: []Node{}}
			for dec.More() {
				v, err := decodeValue(dec)
				if err != nil {
					return Node{}, err
				}
				s.seq = append(s.seq, v)
			}
			if _, err := dec.Token(); err != nil {
				return Node{}, err
			}
			return s, nil
		}
	}
	return Node{}, fmt.Errorf("doc: unexpected token %v", tok)
}

// ParseJSON decodes a JSON document.
func ParseJSON(data []byte) (Node, error) {
	var n Node
	if err := n.UnmarshalJSON(data); err != nil {
		return Node{}, err
	}
	return n, nil
}

// FromValue converts any JSON-marshalable Go value into a Node.
func FromValue(v any) (Node, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return Node{}, fmt.Errorf("doc: encode value: %w", err)
	}
	return ParseJSON(b)
}

// Decode fills v (a pointer) from n using encoding/json rules.
func Decode(n Node, v any) error {
	b, err := n.MarshalJSON()
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}

// MarshalYAML lets yaml.v3 write a Node with its key order.
func (n Node) MarshalYAML() (any, error) {
	return n.yamlNode(), nil
}

func (n Node) yamlNode() *yaml.Node {
	switch n.kind {
	case KindString:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: n.str}
	case KindNumber:
		if math.IsNaN(n.num) || math.IsInf(n.num, 0) {
			return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
		}
		tag := "!!float"
		if n.num == math.Trunc(n.num) {
			tag = "!!int"
		}
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: formatNumber(n.num)}
	case KindBool:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: strconv.FormatBool(n.b)}
	case KindMap:
		y := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for _, k := range n.keys {
			y.Content = append(y.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k},
				n.m[k].yamlNode())
		}
		return y
	case KindSeq:
		y := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, v := range n.seq {
			y.Content = append(y.Content, v.yamlNode())
		}
		return y
	}
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
}

// UnmarshalYAML decodes a YAML value, keeping mapping order.
func (n *Node) UnmarshalYAML(value *yaml.Node) error {
	v, err := fromYAML(value)
	if err != nil {
		return err
	}
	*n = v
	return nil
}

func fromYAML(y *yaml.Node) (Node, error) {
	switch y.Kind {
	case yaml.DocumentNode:
		if len(y.Content) == 0 {
			return Null(), nil
		}
		return fromYAML(y.Content[0])
	case yaml.AliasNode:
		return fromYAML(y.Alias)
	case yaml.MappingNode:
		m := NewMap()
		for i := 0; i+1 < len(y.Content); i += 2 {
			v, err := fromYAML(y.Content[i+1])
			if err != nil {
				return Node{}, err
			}
			m.setKey(y.Content[i].Value, v)
		}
		return m, nil
	case yaml.SequenceNode:
		s := Node{kind: KindSeq, seq: make([]Node, 0, len(y.Content))}
		for _, c := range y.Content {
			v, err := fromYAML(c)
			if err != nil {
				return Node{}, err
			}
			s.seq = append(s.seq, v)
		}
		return s, nil
	case yaml.ScalarNode:
		switch y.ShortTag() {
		case "!!null":
			return Null(), nil
		case "!!bool":
			var b bool
			if err := y.Decode(&b); err != nil {
				return Node{}, err
			}
			return Bool(b), nil
		case "!!int", "!!float":
			var f float64
			if err := y.Decode(&f); err != nil {
				return Node{}, err
			}
			return Number(f), nil
		}
		return String(y.Value), nil
	}
	return Node{}, fmt.Errorf("doc: unsupported YAML node kind %d", y.Kind)
}

// ParseYAML decodes a YAML document.
func ParseYAML(data []byte) (Node, error) {
	var n Node
	if err := yaml.Unmarshal(data, &n); err != nil {
		return Node{}, err
	}
	return n, nil
}

// MarshalIndentJSON renders n as indented JSON.
func MarshalIndentJSON(n Node) ([]byte, error) {
	raw, err := n.MarshalJSON()
	if err != nil {
		return nil, err
	}
	var out bytes.Buffer
	if err := json.Indent(&out, raw, "", "  "); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}
