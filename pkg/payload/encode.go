package payload

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/goliatone/go-editform/pkg/form"
	"github.com/goliatone/go-editform/pkg/schema"
)

// Encode flattens the entity into bracketed multipart keys. Top-level
// scalars come first, then the selected detail section, the repeatable
// groups, single attachments, the image list and finally the tombstones.
func Encode(e *form.Entity) *Payload {
	p := &Payload{}
	spec := e.Schema()

	for _, field := range spec.Fields {
		if field.Kind == schema.KindFile {
			continue
		}
		v, _ := e.Get(field.Name)
		encodeScalar(p, field.Name, field, v)
	}

	if variant := e.Variant(); variant != "" {
		section, _ := spec.Variant(variant)
		for _, field := range section.Fields {
			v, ok := e.Details().Get(variant, field.Name)
			if !ok || v.Empty() {
				continue
			}
			p.add(variant+"["+field.Name+"]", encodeValue(field, v))
		}
	}

	for _, group := range spec.Groups {
		encodeGroup(p, group.Name, e.Group(group.Name))
	}

	for _, field := range spec.Fields {
		if field.Kind == schema.KindFile {
			encodeAttachment(p, "", field.Name, e.Attachment(field.Name))
		}
	}

	if images := e.Images(); images != nil {
		name := images.Name()
		for _, img := range images.Items() {
			if img.Existing() {
				p.add("existing_"+name+"[]", img.Ref)
				continue
			}
			p.addFile(name+"[]", img.Upload)
		}
		for _, ref := range images.Deleted() {
			p.add("deleted_"+name+"[]", ref)
		}
	}

	ts := e.Tombstones()
	for _, kind := range ts.Kinds() {
		for _, id := range ts.IDs(kind) {
			p.add("deleted_"+kind+"[]", id)
		}
	}
	return p
}

func encodeGroup(p *Payload, key string, g *form.Group) {
	if g == nil {
		return
	}
	spec := g.Schema()
	for i, rec := range g.Items() {
		prefix := key + "[" + strconv.Itoa(i) + "]"
		if rec.ID != "" {
			p.add(prefix+"[id]", rec.ID)
		}
		if spec.PositionField != "" {
			p.add(prefix+"["+spec.PositionField+"]", strconv.Itoa(i+1))
		}
		for _, field := range spec.Fields {
			if field.Kind == schema.KindFile {
				encodeAttachment(p, prefix, field.Name, rec.Attachment(field.Name))
				continue
			}
			v, _ := rec.Get(field.Name)
			encodeScalar(p, prefix+"["+field.Name+"]", field, v)
		}
		for _, child := range spec.Groups {
			encodeGroup(p, prefix+"["+child.Name+"]", rec.Group(child.Name))
		}
	}
}

func encodeScalar(p *Payload, key string, field schema.Field, v form.Value) {
	if v == nil || v.Empty() {
		switch {
		case field.OmitEmpty:
			return
		case field.Kind == schema.KindSelect && field.Default != "":
			p.add(key, field.Default)
		case field.Encoding() == schema.EncodingJSON:
			p.add(key, "{}")
		case field.Encoding() == schema.EncodingBool:
			p.add(key, "0")
		default:
			p.add(key, "")
		}
		return
	}
	p.add(key, encodeValue(field, v))
}

// encodeAttachment emits a staged upload as a file part under the field
// path and a delete flag when removal of the stored asset was requested.
// Stored references are otherwise left out: the backend keeps them.
func encodeAttachment(p *Payload, prefix, name string, a *form.Attachment) {
	if a == nil {
		return
	}
	key, deleteKey := name, "delete_"+name
	if prefix != "" {
		key = prefix + "[" + name + "]"
		deleteKey = prefix + "[delete_" + name + "]"
	}
	if a.HasUpload() {
		p.addFile(key, a.Upload())
		return
	}
	if a.Delete {
		p.add(deleteKey, "1")
	}
}

func encodeValue(field schema.Field, v form.Value) string {
	switch field.Encoding() {
	case schema.EncodingBool:
		if encodeBool(v) {
			return "1"
		}
		return "0"
	case schema.EncodingDigits:
		return Unformat(form.Text(v))
	case schema.EncodingNumber:
		return strings.TrimSpace(form.Text(v))
	case schema.EncodingCSV:
		if list, ok := v.(form.List); ok {
			return strings.Join(form.SplitList(strings.Join(list, ",")), ",")
		}
		return strings.Join(form.SplitList(form.Text(v)), ",")
	case schema.EncodingJSON:
		return compactJSON(form.Text(v))
	case schema.EncodingHTML:
		return SanitizeRichText(form.Text(v))
	default:
		return form.Text(v)
	}
}

func encodeBool(v form.Value) bool {
	switch val := v.(type) {
	case form.Bool:
		return bool(val)
	default:
		field := schema.Field{Kind: schema.KindCheckbox}
		b, _ := form.Parse(field, form.Text(v)).(form.Bool)
		return bool(b)
	}
}

// compactJSON keeps malformed input verbatim; the backend reports it.
func compactJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "{}"
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, []byte(raw)); err != nil {
		return raw
	}
	return buf.String()
}
