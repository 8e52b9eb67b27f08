package editor

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/goliatone/go-editform/pkg/client"
	"github.com/goliatone/go-editform/pkg/form"
	"github.com/goliatone/go-editform/pkg/payload"
	"github.com/goliatone/go-editform/pkg/schema"
)

// fieldSetter is implemented by form.Entity and form.Record.
type fieldSetter interface {
	Set(name string, v form.Value) error
}

// hydrateEntity copies a fetched record into e. variant selects the detail
// section of the discriminator value found in the record.
func hydrateEntity(e *form.Entity, rec client.Record, variant func(value string) string) error {
	spec := e.Schema()
	e.ID = textOf(rec["id"])

	if spec.Discriminator != "" {
		if raw, ok := rec[spec.Discriminator]; ok && raw != nil {
			value := textOf(raw)
			e.SetDiscriminator(value, variant(value))
		}
	}
	for _, field := range spec.Fields {
		if field.Name == spec.Discriminator {
			continue
		}
		if field.Kind == schema.KindFile {
			if ref := textOf(rec[field.Name]); ref != "" {
				e.Attachment(field.Name).SetExisting(ref)
			}
			continue
		}
		if err := hydrateField(e, field, rec); err != nil {
			return err
		}
	}

	for _, v := range spec.Variants {
		section, ok := rec[v.Name].(map[string]any)
		if !ok {
			continue
		}
		for _, field := range v.Fields {
			value, ok := valueOf(field, section[field.Name])
			if !ok {
				continue
			}
			if err := e.SetDetail(v.Name, field.Name, value); err != nil {
				return err
			}
		}
	}

	for _, g := range spec.Groups {
		if err := hydrateGroup(e.Group(g.Name), rec[g.Name]); err != nil {
			return err
		}
	}

	if images := e.Images(); images != nil {
		for _, ref := range imageRefs(rec[images.Name()]) {
			images.AddExisting(ref)
		}
	}
	return nil
}

func hydrateGroup(g *form.Group, raw any) error {
	items := recordsOf(raw)
	if g == nil || len(items) == 0 {
		return nil
	}
	spec := g.Schema()
	if spec.PositionField != "" {
		sort.SliceStable(items, func(i, j int) bool {
			return positionOf(items[i][spec.PositionField]) < positionOf(items[j][spec.PositionField])
		})
	}
	for _, item := range items {
		rec := g.Hydrate(textOf(item["id"]))
		for _, field := range spec.Fields {
			if field.Kind == schema.KindFile {
				if ref := textOf(item[field.Name]); ref != "" {
					rec.Attachment(field.Name).SetExisting(ref)
				}
				continue
			}
			if err := hydrateField(rec, field, item); err != nil {
				return err
			}
		}
		for _, child := range spec.Groups {
			if err := hydrateGroup(rec.Group(child.Name), item[child.Name]); err != nil {
				return err
			}
		}
	}
	return nil
}

func hydrateField(dst fieldSetter, field schema.Field, rec map[string]any) error {
	value, ok := valueOf(field, rec[field.Name])
	if !ok {
		return nil
	}
	if err := dst.Set(field.Name, value); err != nil {
		return fmt.Errorf("editor: hydrate %s: %w", field.Name, err)
	}
	return nil
}

// valueOf converts a decoded JSON value into the value type the field
// declares. Absent and null values report false.
func valueOf(field schema.Field, raw any) (form.Value, bool) {
	if raw == nil {
		return nil, false
	}
	switch field.Encoding() {
	case schema.EncodingBool:
		return form.Bool(truthy(raw)), true
	case schema.EncodingCSV:
		if items, ok := raw.([]any); ok {
			out := make(form.List, 0, len(items))
			for _, item := range items {
				if s := strings.TrimSpace(textOf(item)); s != "" {
					out = append(out, s)
				}
			}
			return out, true
		}
		return form.SplitList(textOf(raw)), true
	case schema.EncodingJSON:
		if s, ok := raw.(string); ok {
			return form.String(s), true
		}
		data, err := json.Marshal(raw)
		if err != nil {
			return nil, false
		}
		return form.String(data), true
	case schema.EncodingDigits:
		return form.String(integerDigits(textOf(raw))), true
	}
	s := textOf(raw)
	if field.Kind == schema.KindDate {
		s, _, _ = strings.Cut(s, "T")
		s, _, _ = strings.Cut(s, " ")
	}
	return form.String(s), true
}

// integerDigits drops the decimal part the backend stores prices with.
func integerDigits(raw string) string {
	whole, _, _ := strings.Cut(payload.Unformat(raw), ".")
	return whole
}

func textOf(raw any) string {
	switch v := raw.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		return v.String()
	case bool:
		if v {
			return "1"
		}
		return "0"
	case map[string]any:
		if id, ok := v["id"]; ok {
			return textOf(id)
		}
		return ""
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

func truthy(raw any) bool {
	switch v := raw.(type) {
	case bool:
		return v
	case float64:
		return v != 0
	case string:
		s := strings.ToLower(strings.TrimSpace(v))
		if n, err := strconv.ParseFloat(s, 64); err == nil {
			return n != 0
		}
		return s == "true" || s == "on" || s == "oui" || s == "yes"
	default:
		return false
	}
}

func positionOf(raw any) float64 {
	n, err := strconv.ParseFloat(textOf(raw), 64)
	if err != nil {
		return 0
	}
	return n
}

func recordsOf(raw any) []map[string]any {
	items, ok := raw.([]any)
	if !ok {
		return nil
	}
	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		if m, ok := item.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

// imageRefs accepts a list of paths or a list of objects carrying a path.
func imageRefs(raw any) []string {
	items, ok := raw.([]any)
	if !ok {
		return nil
	}
	var out []string
	for _, item := range items {
		var ref string
		switch v := item.(type) {
		case string:
			ref = strings.TrimSpace(v)
		case map[string]any:
			for _, key := range []string{"path", "url", "image"} {
				if ref = textOf(v[key]); ref != "" {
					break
				}
			}
		}
		if ref != "" {
			out = append(out, ref)
		}
	}
	return out
}
