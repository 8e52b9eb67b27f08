package form

import (
	"fmt"
	"maps"

	"github.com/goliatone/go-editform/pkg/schema"
)

// Details holds one record per discriminator variant. Only the record of the
// selected variant is ever serialized, but all of them are kept so the form
// can be filled before the discriminator settles.
type Details struct {
	variants map[string]schema.Variant
	records  map[string]map[string]Value
}

func newDetails(variants []schema.Variant) *Details {
	d := &Details{
		variants: make(map[string]schema.Variant, len(variants)),
		records:  make(map[string]map[string]Value, len(variants)),
	}
	for _, v := range variants {
		d.variants[v.Name] = v
	}
	d.Reset()
	return d
}

// Set replaces field inside the section record, leaving every other section
// untouched.
func (d *Details) Set(section, field string, v Value) error {
	variant, ok := d.variants[section]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownVariant, section)
	}
	if _, ok := variant.Field(field); !ok {
		return fmt.Errorf("%w: %s[%s]", ErrUnknownField, section, field)
	}
	if v == nil {
		delete(d.records[section], field)
		return nil
	}
	d.records[section][field] = v
	return nil
}

// Get returns the value of field in section.
func (d *Details) Get(section, field string) (Value, bool) {
	v, ok := d.records[section][field]
	return v, ok
}

// Section returns a copy of the section record.
func (d *Details) Section(section string) map[string]Value {
	return maps.Clone(d.records[section])
}

// Reset empties every section.
func (d *Details) Reset() {
	for name := range d.variants {
		d.records[name] = make(map[string]Value)
	}
}
