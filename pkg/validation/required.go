package validation

import (
	"errors"
	"sort"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-editform/pkg/form"
)

const textCodeRequired = "REQUIRED_FIELDS_MISSING"

// Issue is one field level problem, either found locally or reported by the
// backend.
type Issue struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// Result summarises a validation pass.
type Result struct {
	Valid  bool    `json:"valid"`
	Issues []Issue `json:"issues,omitempty"`
}

// Required checks that every required top-level field of e holds a value.
// The returned error carries the validation category and wraps the
// per-field validation.Errors; nil means the entity may be submitted.
func Required(e *form.Entity) error {
	errs := validation.Errors{}
	for _, name := range e.Schema().RequiredFields() {
		field, _ := e.Schema().Field(name)
		label := field.Label
		if label == "" {
			label = name
		}
		rule := validation.Required.Error(label + " est obligatoire")
		errs[name] = validation.Validate(strings.TrimSpace(e.Text(name)), rule)
	}
	if err := errs.Filter(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "required fields missing").
			WithTextCode(textCodeRequired)
	}
	return nil
}

// Check runs Required and reports its outcome as a Result.
func Check(e *form.Entity) Result {
	err := Required(e)
	if err == nil {
		return Result{Valid: true}
	}
	return Result{Valid: false, Issues: Issues(err)}
}

// Issues flattens the field errors carried by err, sorted by field.
func Issues(err error) []Issue {
	if err == nil {
		return nil
	}
	var fieldErrs validation.Errors
	if !errors.As(err, &fieldErrs) {
		return []Issue{{Message: strings.TrimSpace(err.Error())}}
	}
	out := make([]Issue, 0, len(fieldErrs))
	for field, ferr := range fieldErrs {
		if ferr == nil {
			continue
		}
		out = append(out, Issue{Field: field, Message: ferr.Error()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Field < out[j].Field })
	return out
}

// FromFields converts backend field errors into issues with dotted field
// paths, sorted by field.
func FromFields(fields map[string][]string) []Issue {
	var out []Issue
	for key, msgs := range fields {
		path := FieldPath(key)
		for _, msg := range msgs {
			if msg = strings.TrimSpace(msg); msg != "" {
				out = append(out, Issue{Field: path, Message: msg})
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Field < out[j].Field })
	return out
}

// FieldPath turns a bracketed wire key or JSON pointer into a dotted path:
// "sections[0][subsections][1][title]" and "/sections/0/subsections/1/title"
// both become "sections.0.subsections.1.title". A trailing "[]" is dropped.
func FieldPath(key string) string {
	key = strings.TrimSpace(key)
	key = strings.TrimPrefix(key, "#")
	key = strings.TrimSuffix(key, "[]")
	replacer := strings.NewReplacer("][", ".", "[", ".", "]", "", "/", ".")
	key = replacer.Replace(key)
	parts := strings.Split(key, ".")
	out := parts[:0]
	for _, part := range parts {
		part = strings.ReplaceAll(strings.ReplaceAll(part, "~1", "/"), "~0", "~")
		if part != "" {
			out = append(out, part)
		}
	}
	return strings.Join(out, ".")
}
