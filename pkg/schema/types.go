package schema

import "strings"

// Kind is the input kind a field is edited with. The kind also fixes how the
// value travels on the wire (see Encoding).
type Kind string

const (
	KindText     Kind = "text"
	KindTextarea Kind = "textarea"
	KindNumber   Kind = "number"
	KindCurrency Kind = "currency"
	KindDate     Kind = "date"
	KindSelect   Kind = "select"
	KindCheckbox Kind = "checkbox"
	KindList     Kind = "list"
	KindRichText Kind = "richtext"
	KindJSON     Kind = "json"
	KindFile     Kind = "file"
)

// Encoding names the transport representation of a field value.
type Encoding string

const (
	EncodingText   Encoding = "text"
	EncodingBool   Encoding = "bool"
	EncodingDigits Encoding = "digits"
	EncodingNumber Encoding = "number"
	EncodingCSV    Encoding = "csv"
	EncodingJSON   Encoding = "json"
	EncodingHTML   Encoding = "html"
	EncodingFile   Encoding = "file"
)

var knownKinds = map[Kind]Encoding{
	KindText:     EncodingText,
	KindTextarea: EncodingText,
	KindNumber:   EncodingNumber,
	KindCurrency: EncodingDigits,
	KindDate:     EncodingText,
	KindSelect:   EncodingText,
	KindCheckbox: EncodingBool,
	KindList:     EncodingCSV,
	KindRichText: EncodingHTML,
	KindJSON:     EncodingJSON,
	KindFile:     EncodingFile,
}

// Encoding returns the wire encoding declared by the kind. Unknown kinds are
// sent as plain text.
func (k Kind) Encoding() Encoding {
	if enc, ok := knownKinds[k]; ok {
		return enc
	}
	return EncodingText
}

// Valid reports whether k is one of the declared kinds.
func (k Kind) Valid() bool {
	_, ok := knownKinds[k]
	return ok
}

// Field describes a single editable input. Struct tags keep registries
// loadable from both JSON and YAML documents.
type Field struct {
	Name        string              `json:"name" yaml:"name"`
	Label       string              `json:"label,omitempty" yaml:"label,omitempty"`
	Kind        Kind                `json:"kind" yaml:"kind"`
	Required    bool                `json:"required,omitempty" yaml:"required,omitempty"`
	OmitEmpty   bool                `json:"omitEmpty,omitempty" yaml:"omitEmpty,omitempty"`
	Placeholder string              `json:"placeholder,omitempty" yaml:"placeholder,omitempty"`
	Description string              `json:"description,omitempty" yaml:"description,omitempty"`
	Default     string              `json:"default,omitempty" yaml:"default,omitempty"`
	Min         string              `json:"min,omitempty" yaml:"min,omitempty"`
	Max         string              `json:"max,omitempty" yaml:"max,omitempty"`
	Options     []string            `json:"options,omitempty" yaml:"options,omitempty"`
	DependsOn   string              `json:"dependsOn,omitempty" yaml:"dependsOn,omitempty"`
	OptionsBy   map[string][]string `json:"optionsBy,omitempty" yaml:"optionsBy,omitempty"`
}

// Encoding is shorthand for f.Kind.Encoding().
func (f Field) Encoding() Encoding {
	return f.Kind.Encoding()
}

// OptionsFor returns the choices offered for the field given the current
// value of the field it depends on. Fields without a dependency return their
// static options.
func (f Field) OptionsFor(sibling string) []string {
	if f.DependsOn == "" || len(f.OptionsBy) == 0 {
		return f.Options
	}
	if opts, ok := f.OptionsBy[strings.TrimSpace(sibling)]; ok {
		return opts
	}
	return f.Options
}

// Variant is one arm of a discriminator-driven field set, for example the
// "vehicule" detail section of a product.
type Variant struct {
	Name   string  `json:"name" yaml:"name"`
	Label  string  `json:"label,omitempty" yaml:"label,omitempty"`
	Fields []Field `json:"fields" yaml:"fields"`
}

// Field returns the named field of the variant.
func (v Variant) Field(name string) (Field, bool) {
	return findField(v.Fields, name)
}

// Group describes a repeatable collection of child records. Groups nest at
// most two levels deep (sections → subsections).
type Group struct {
	Name          string  `json:"name" yaml:"name"`
	Label         string  `json:"label,omitempty" yaml:"label,omitempty"`
	PositionField string  `json:"positionField,omitempty" yaml:"positionField,omitempty"`
	Fields        []Field `json:"fields" yaml:"fields"`
	Groups        []Group `json:"groups,omitempty" yaml:"groups,omitempty"`
}

// Field returns the named field of the group.
func (g Group) Field(name string) (Field, bool) {
	return findField(g.Fields, name)
}

// Group returns the named child group.
func (g Group) Group(name string) (Group, bool) {
	return findGroup(g.Groups, name)
}

// ImageList bounds the top-level image collection of an entity.
type ImageList struct {
	Name     string `json:"name" yaml:"name"`
	Max      int    `json:"max" yaml:"max"`
	MaxBytes int64  `json:"maxBytes" yaml:"maxBytes"`
}

// Entity is the top-level editable record (product, page).
type Entity struct {
	Name          string     `json:"name" yaml:"name"`
	Label         string     `json:"label,omitempty" yaml:"label,omitempty"`
	Endpoint      string     `json:"endpoint" yaml:"endpoint"`
	Discriminator string     `json:"discriminator,omitempty" yaml:"discriminator,omitempty"`
	Fields        []Field    `json:"fields" yaml:"fields"`
	Variants      []Variant  `json:"variants,omitempty" yaml:"variants,omitempty"`
	Groups        []Group    `json:"groups,omitempty" yaml:"groups,omitempty"`
	Images        *ImageList `json:"images,omitempty" yaml:"images,omitempty"`
	Source        string     `json:"-" yaml:"-"`
}

// Field returns the named top-level field.
func (e Entity) Field(name string) (Field, bool) {
	return findField(e.Fields, name)
}

// Variant returns the named variant.
func (e Entity) Variant(name string) (Variant, bool) {
	for _, v := range e.Variants {
		if v.Name == name {
			return v, true
		}
	}
	return Variant{}, false
}

// VariantNames lists the variant names in declaration order.
func (e Entity) VariantNames() []string {
	if len(e.Variants) == 0 {
		return nil
	}
	out := make([]string, 0, len(e.Variants))
	for _, v := range e.Variants {
		out = append(out, v.Name)
	}
	return out
}

// Group returns the named top-level group.
func (e Entity) Group(name string) (Group, bool) {
	return findGroup(e.Groups, name)
}

// RequiredFields lists the names of the top-level fields that must be
// non-empty before the entity can be submitted.
func (e Entity) RequiredFields() []string {
	var out []string
	for _, f := range e.Fields {
		if f.Required {
			out = append(out, f.Name)
		}
	}
	return out
}

func findField(fields []Field, name string) (Field, bool) {
	for _, f := range fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

func findGroup(groups []Group, name string) (Group, bool) {
	for _, g := range groups {
		if g.Name == name {
			return g, true
		}
	}
	return Group{}, false
}
