package prompt

import "github.com/goliatone/go-editform/pkg/form"

// Choice is one entry of a select prompt.
type Choice struct {
	Value string
	Label string
}

// ChoiceFunc returns the choices of a field at the time it is prompted, so
// lookups can depend on earlier answers.
type ChoiceFunc func() []Choice

// Option configures a Filler.
type Option func(*Filler)

// WithChoices supplies the choices of a select field whose options come
// from the backend rather than the registry.
func WithChoices(field string, fn ChoiceFunc) Option {
	return func(f *Filler) {
		if fn != nil {
			f.choices[field] = fn
		}
	}
}

// WithDiscriminator routes the discriminator answer through fn instead of
// Entity.Set, for callers that map values to detail sections themselves.
func WithDiscriminator(fn func(value string) error) Option {
	return func(f *Filler) {
		f.discriminator = fn
	}
}

// WithImageAdder replaces Entity.AddImage when staging image uploads.
func WithImageAdder(fn func(*form.Upload) error) Option {
	return func(f *Filler) {
		f.addImage = fn
	}
}

// WithUploadOpener replaces form.UploadFromFile when reading files.
func WithUploadOpener(fn func(path string) (*form.Upload, error)) Option {
	return func(f *Filler) {
		if fn != nil {
			f.open = fn
		}
	}
}
