// Package richtext models message bodies: Quill delta documents of the form
// {"ops":[{"insert":...,"attributes":{...}}, ...]}.
//
// A message body must be an insert-only sequence. Each insert is one of
// three variants: a TextRun, a MentionEmbed ({"mention":{...}}), or an
// OpaqueEmbed (any other single-key embed such as image or emoji) which is
// carried through untouched.
package richtext

import (
	"bytes"
	"encoding/json"

	"github.com/Bas3L3ss/slackzz-clone/internal/app/system/apperr"
)

// Op is one insert operation. The concrete type is TextRun, MentionEmbed
// or OpaqueEmbed.
type Op interface {
	attrs() map[string]any
}

// TextRun is a plain string insert.
type TextRun struct {
	Text       string
	Attributes map[string]any
}

// MentionKind distinguishes member mentions from channel references.
type MentionKind int

const (
	MentionUser    MentionKind = iota // "@"
	MentionChannel                    // "#"
)

// Denotation returns the character that introduces the mention.
func (k MentionKind) Denotation() string {
	if k == MentionChannel {
		return "#"
	}
	return "@"
}

// MentionEmbed is {"insert":{"mention":{"denotationChar":"@","id":"..."}}}.
// Fields holds every key of the mention object, including ones this package
// does not interpret (value, index), so re-serialization keeps them.
type MentionEmbed struct {
	Kind       MentionKind
	TargetID   string
	Fields     map[string]json.RawMessage
	Attributes map[string]any
}

// OpaqueEmbed is any other object insert, kept verbatim.
type OpaqueEmbed struct {
	Insert     json.RawMessage
	Attributes map[string]any
}

func (o TextRun) attrs() map[string]any      { return o.Attributes }
func (o MentionEmbed) attrs() map[string]any { return o.Attributes }
func (o OpaqueEmbed) attrs() map[string]any  { return o.Attributes }

// Document is a parsed message body. Top-level keys other than "ops" are
// preserved through Marshal.
type Document struct {
	Ops   []Op
	extra map[string]json.RawMessage
}

// Parse decodes body. Every failure wraps apperr.ErrMalformedContent.
func Parse(body string) (Document, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal([]byte(body), &top); err != nil || top == nil {
		return Document{}, apperr.Malformed("body is not a JSON object")
	}

	rawOps, ok := top["ops"]
	if !ok {
		return Document{}, apperr.Malformed("missing ops")
	}
	var ops []json.RawMessage
	if err := json.Unmarshal(rawOps, &ops); err != nil || ops == nil {
		return Document{}, apperr.Malformed("ops is not an array")
	}
	if len(ops) == 0 {
		return Document{}, apperr.Malformed("ops is empty")
	}

	doc := Document{Ops: make([]Op, 0, len(ops))}
	for i, raw := range ops {
		op, err := parseOp(raw)
		if err != nil {
			return Document{}, apperr.Malformed("op %d: %v", i, err)
		}
		doc.Ops = append(doc.Ops, op)
	}

	delete(top, "ops")
	if len(top) > 0 {
		doc.extra = top
	}
	return doc, nil
}

type opError string

func (e opError) Error() string { return string(e) }

func parseOp(raw json.RawMessage) (Op, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return nil, opError("not an object")
	}

	for k := range fields {
		switch k {
		case "insert", "attributes":
		case "retain", "delete":
			return nil, opError(k + " ops are not allowed in a message")
		default:
			return nil, opError("unknown key " + k)
		}
	}

	insert, ok := fields["insert"]
	if !ok || isNull(insert) {
		return nil, opError("missing insert")
	}

	var attrs map[string]any
	if a, ok := fields["attributes"]; ok && !isNull(a) {
		if err := json.Unmarshal(a, &attrs); err != nil || attrs == nil {
			return nil, opError("attributes is not an object")
		}
	}

	var text string
	if err := json.Unmarshal(insert, &text); err == nil {
		return TextRun{Text: text, Attributes: attrs}, nil
	}

	var embed map[string]json.RawMessage
	if err := json.Unmarshal(insert, &embed); err != nil || len(embed) != 1 {
		return nil, opError("insert must be a string or a single-key embed")
	}
	if m, ok := embed["mention"]; ok {
		return parseMention(m, attrs)
	}
	return OpaqueEmbed{Insert: insert, Attributes: attrs}, nil
}

func parseMention(raw json.RawMessage, attrs map[string]any) (Op, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return nil, opError("mention is not an object")
	}

	var denotation, id string
	_ = json.Unmarshal(fields["denotationChar"], &denotation)
	_ = json.Unmarshal(fields["id"], &id)

	m := MentionEmbed{TargetID: id, Fields: fields, Attributes: attrs}
	switch denotation {
	case "@":
		m.Kind = MentionUser
	case "#":
		m.Kind = MentionChannel
	default:
		return nil, opError("mention denotationChar must be @ or #")
	}
	if id == "" {
		return nil, opError("mention id is empty")
	}
	return m, nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// Marshal serializes doc back to a Quill delta. Map keys are emitted in
// sorted order, so equal documents serialize identically.
func Marshal(doc Document) (string, error) {
	ops := make([]map[string]any, 0, len(doc.Ops))
	for _, op := range doc.Ops {
		out := map[string]any{}
		switch o := op.(type) {
		case TextRun:
			out["insert"] = o.Text
		case MentionEmbed:
			out["insert"] = map[string]any{"mention": o.Fields}
		case OpaqueEmbed:
			out["insert"] = o.Insert
		default:
			return "", apperr.Malformed("unknown op type %T", op)
		}
		if a := op.attrs(); len(a) > 0 {
			out["attributes"] = a
		}
		ops = append(ops, out)
	}

	top := make(map[string]any, len(doc.extra)+1)
	for k, v := range doc.extra {
		top[k] = v
	}
	top["ops"] = ops

	b, err := json.Marshal(top)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
