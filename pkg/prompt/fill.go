// Package prompt fills form entities from a terminal. Prompts are derived
// from the field registry: selects for choice fields, confirms for
// checkboxes, multi-line input for rich text and JSON, validated single
// line input for everything else.
package prompt

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/goliatone/go-editform/pkg/form"
	"github.com/goliatone/go-editform/pkg/payload"
	"github.com/goliatone/go-editform/pkg/schema"
)

const (
	actionKeep   = "Conserver"
	actionEdit   = "Modifier"
	actionRemove = "Supprimer"
	actionSwap   = "Remplacer"
)

// Filler walks an entity schema and asks for every value.
type Filler struct {
	driver        Driver
	choices       map[string]ChoiceFunc
	discriminator func(string) error
	addImage      func(*form.Upload) error
	open          func(string) (*form.Upload, error)
}

// New returns a Filler prompting through driver.
func New(driver Driver, opts ...Option) *Filler {
	f := &Filler{
		driver:  driver,
		choices: make(map[string]ChoiceFunc),
		open:    form.UploadFromFile,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	return f
}

// Fill prompts for the top-level fields of e, starting with the
// discriminator, then the selected detail section, the groups, the
// attachments and the image list. Current values are offered as defaults.
func (f *Filler) Fill(ctx context.Context, e *form.Entity) error {
	spec := e.Schema()
	fields := orderedFields(spec)

	for _, field := range fields {
		if field.Kind == schema.KindFile {
			if err := f.attachment(ctx, field, e.Attachment(field.Name)); err != nil {
				return err
			}
			continue
		}
		current, _ := e.Get(field.Name)
		v, err := f.ask(ctx, field, current, e.Text(field.DependsOn))
		if err != nil {
			return err
		}
		if field.Name == spec.Discriminator && f.discriminator != nil {
			if err := f.discriminator(form.Text(v)); err != nil {
				return err
			}
			continue
		}
		if err := e.Set(field.Name, v); err != nil {
			return err
		}
	}

	if variant := e.Variant(); variant != "" {
		section, _ := spec.Variant(variant)
		for _, field := range section.Fields {
			current, _ := e.Details().Get(variant, field.Name)
			v, err := f.ask(ctx, field, current, "")
			if err != nil {
				return err
			}
			if err := e.SetDetail(variant, field.Name, v); err != nil {
				return err
			}
		}
	}

	for _, g := range spec.Groups {
		if err := f.group(ctx, e.Group(g.Name)); err != nil {
			return err
		}
	}
	return f.images(ctx, e)
}

func orderedFields(spec schema.Entity) []schema.Field {
	out := make([]schema.Field, 0, len(spec.Fields))
	for _, field := range spec.Fields {
		if field.Name == spec.Discriminator {
			out = append(out, field)
		}
	}
	for _, field := range spec.Fields {
		if field.Name != spec.Discriminator {
			out = append(out, field)
		}
	}
	return out
}

// group reviews the stored records one by one, then offers to append new
// ones.
func (f *Filler) group(ctx context.Context, g *form.Group) error {
	if g == nil {
		return nil
	}
	spec := g.Schema()
	label := labelOf(spec.Label, spec.Name)

	for i := 0; i < g.Len(); {
		rec := g.At(i)
		actions := []string{actionKeep, actionEdit, actionRemove}
		idx, err := f.driver.Select(ctx, SelectConfig{
			Message:      fmt.Sprintf("%s #%d %s", label, i+1, summary(rec)),
			Options:      actions,
			DefaultIndex: 0,
		})
		if err != nil {
			return err
		}
		switch {
		case idx == 1:
			if err := f.record(ctx, rec); err != nil {
				return err
			}
		case idx == 2:
			if err := g.RemoveAt(i); err != nil {
				return err
			}
			continue
		}
		i++
	}

	for {
		add, err := f.driver.Confirm(ctx, ConfirmConfig{Message: "Ajouter un élément à " + label + " ?"})
		if err != nil {
			return err
		}
		if !add {
			return nil
		}
		if err := f.record(ctx, g.Append()); err != nil {
			return err
		}
	}
}

func (f *Filler) record(ctx context.Context, rec *form.Record) error {
	spec := rec.Schema()
	for _, field := range spec.Fields {
		if field.Kind == schema.KindFile {
			if err := f.attachment(ctx, field, rec.Attachment(field.Name)); err != nil {
				return err
			}
			continue
		}
		current, _ := rec.Get(field.Name)
		v, err := f.ask(ctx, field, current, rec.Text(field.DependsOn))
		if err != nil {
			return err
		}
		if err := rec.Set(field.Name, v); err != nil {
			return err
		}
	}
	for _, child := range spec.Groups {
		if err := f.group(ctx, rec.Group(child.Name)); err != nil {
			return err
		}
	}
	return nil
}

func (f *Filler) attachment(ctx context.Context, field schema.Field, a *form.Attachment) error {
	if a == nil {
		return nil
	}
	label := labelOf(field.Label, field.Name)
	if ref := a.Existing(); ref != "" {
		idx, err := f.driver.Select(ctx, SelectConfig{
			Message: fmt.Sprintf("%s (%s)", label, ref),
			Options: []string{actionKeep, actionSwap, actionRemove},
		})
		if err != nil {
			return err
		}
		if idx != 1 {
			a.Delete = idx == 2
			return nil
		}
	}
	for {
		path, err := f.driver.Input(ctx, InputConfig{Message: label + " (chemin du fichier)"})
		if err != nil {
			return err
		}
		path = strings.TrimSpace(path)
		if path == "" {
			return nil
		}
		u, err := f.open(path)
		if err != nil {
			_ = f.driver.Info(ctx, fmt.Sprintf("Fichier illisible : %v", err))
			continue
		}
		a.SetUpload(u)
		return nil
	}
}

func (f *Filler) images(ctx context.Context, e *form.Entity) error {
	list := e.Images()
	if list == nil {
		return nil
	}
	for i := 0; i < list.Len(); {
		img := list.Items()[i]
		if !img.Existing() {
			i++
			continue
		}
		remove, err := f.driver.Confirm(ctx, ConfirmConfig{Message: "Supprimer l'image " + img.Ref + " ?"})
		if err != nil {
			return err
		}
		if remove {
			if err := list.Remove(i); err != nil {
				return err
			}
			continue
		}
		i++
	}

	add := f.addImage
	if add == nil {
		add = e.AddImage
	}
	for !list.Full() {
		more, err := f.driver.Confirm(ctx, ConfirmConfig{Message: "Ajouter une image ?"})
		if err != nil {
			return err
		}
		if !more {
			return nil
		}
		path, err := f.driver.Input(ctx, InputConfig{Message: "Chemin de l'image"})
		if err != nil {
			return err
		}
		u, err := f.open(strings.TrimSpace(path))
		if err != nil {
			_ = f.driver.Info(ctx, fmt.Sprintf("Fichier illisible : %v", err))
			continue
		}
		if err := add(u); err != nil {
			_ = f.driver.Info(ctx, fmt.Sprintf("Image refusée : %v", err))
		}
	}
	return nil
}

// ask prompts for field. Free text answers carry check as validator, so the
// driver repeats the prompt until the answer is valid.
func (f *Filler) ask(ctx context.Context, field schema.Field, current form.Value, sibling string) (form.Value, error) {
	label := labelOf(field.Label, field.Name)
	help := field.Description
	if help == "" {
		help = field.Placeholder
	}

	if field.Kind == schema.KindCheckbox {
		def := false
		if b, ok := current.(form.Bool); ok {
			def = bool(b)
		}
		resp, err := f.driver.Confirm(ctx, ConfirmConfig{Message: label, Default: def, Help: help})
		if err != nil {
			return nil, err
		}
		return form.Bool(resp), nil
	}

	if field.Kind == schema.KindSelect {
		if choices := f.choicesFor(field, sibling); len(choices) > 0 {
			return f.choose(ctx, field, label, help, choices, form.Text(current))
		}
	}

	validate := func(raw string) error { return check(field, label, raw) }
	var (
		resp string
		err  error
	)
	switch field.Kind {
	case schema.KindTextarea, schema.KindRichText, schema.KindJSON:
		resp, err = f.driver.TextArea(ctx, TextAreaConfig{Message: label, Default: form.Text(current), Help: help, Validator: validate})
	case schema.KindCurrency:
		resp, err = f.driver.Input(ctx, InputConfig{Message: label, Default: payload.FormatThousands(form.Text(current)), Help: help, Validator: validate})
	case schema.KindList:
		def := ""
		if list, ok := current.(form.List); ok {
			def = strings.Join(list, ", ")
		}
		resp, err = f.driver.Input(ctx, InputConfig{Message: label, Default: def, Help: help, Validator: validate})
	default:
		resp, err = f.driver.Input(ctx, InputConfig{Message: label, Default: form.Text(current), Help: help, Validator: validate})
	}
	if err != nil {
		return nil, err
	}
	// Drivers that ignore Validator still never store an invalid answer.
	if err := validate(resp); err != nil {
		return nil, err
	}
	if field.Kind == schema.KindCurrency {
		resp = payload.Unformat(resp)
	}
	return form.Parse(field, resp), nil
}

func (f *Filler) choose(ctx context.Context, field schema.Field, label, help string, choices []Choice, current string) (form.Value, error) {
	options := make([]string, len(choices))
	def := -1
	for i, c := range choices {
		options[i] = labelOf(c.Label, c.Value)
		if c.Value == current {
			def = i
		}
	}
	for {
		idx, err := f.driver.Select(ctx, SelectConfig{Message: label, Options: options, DefaultIndex: def, Help: help})
		if err != nil {
			return nil, err
		}
		if idx < 0 || idx >= len(choices) {
			_ = f.driver.Info(ctx, fmt.Sprintf("Choix invalide pour %s", label))
			continue
		}
		return form.String(choices[idx].Value), nil
	}
}

func (f *Filler) choicesFor(field schema.Field, sibling string) []Choice {
	if fn, ok := f.choices[field.Name]; ok {
		return fn()
	}
	opts := field.OptionsFor(sibling)
	out := make([]Choice, 0, len(opts))
	for _, o := range opts {
		out = append(out, Choice{Value: o, Label: o})
	}
	return out
}

// check validates one answer with the rules the field kind implies.
func check(field schema.Field, label, raw string) error {
	value := strings.TrimSpace(raw)
	if value == "" {
		if field.Required {
			return fmt.Errorf("%s est obligatoire", label)
		}
		return nil
	}
	var err error
	switch field.Kind {
	case schema.KindNumber:
		err = validation.Validate(value, is.Float.Error("doit être un nombre"))
		if err == nil && field.Min != "" {
			floor, _ := strconv.ParseFloat(field.Min, 64)
			if n, _ := strconv.ParseFloat(value, 64); n < floor {
				err = fmt.Errorf("doit être supérieur ou égal à %s", field.Min)
			}
		}
	case schema.KindCurrency:
		if !payload.AcceptDigits(value) {
			err = fmt.Errorf("chiffres uniquement")
		}
	case schema.KindDate:
		err = validation.Validate(value, validation.Date("2006-01-02").Error("format attendu AAAA-MM-JJ"))
	case schema.KindJSON:
		if !json.Valid([]byte(value)) {
			err = fmt.Errorf("JSON invalide")
		}
	}
	if err != nil {
		return fmt.Errorf("%s : %v", label, err)
	}
	return nil
}

func summary(rec *form.Record) string {
	for _, field := range rec.Schema().Fields {
		if field.Kind == schema.KindFile {
			continue
		}
		if text := strings.TrimSpace(rec.Text(field.Name)); text != "" {
			return "(" + text + ")"
		}
	}
	return ""
}

func labelOf(label, name string) string {
	if strings.TrimSpace(label) != "" {
		return label
	}
	return name
}
