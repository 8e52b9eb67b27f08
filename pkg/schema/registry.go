package schema

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

const maxGroupDepth = 2

// Registry holds the entity schemas an admin build knows how to edit.
type Registry struct {
	entities map[string]Entity
}

type registryFile struct {
	Entities []Entity `json:"entities" yaml:"entities"`
}

// NewRegistry builds a registry from already constructed entities. It applies
// the same checks as LoadFS.
func NewRegistry(entities ...Entity) (*Registry, error) {
	reg := &Registry{entities: make(map[string]Entity, len(entities))}
	for _, entity := range entities {
		if err := reg.add(entity, entity.Source); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// LoadFS walks the provided filesystem and parses JSON/YAML registry files.
// When fsys is nil or holds no registry files the returned registry is empty.
func LoadFS(fsys fs.FS) (*Registry, error) {
	reg := &Registry{entities: make(map[string]Entity)}
	if fsys == nil {
		return reg, nil
	}

	err := fs.WalkDir(fsys, ".", func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() || !isSchemaFile(path) {
			return nil
		}

		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return fmt.Errorf("schema: read %s: %w", path, err)
		}

		doc, err := parseDocument(data, path)
		if err != nil {
			return err
		}

		for _, entity := range doc.Entities {
			if err := reg.add(entity, path); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return reg, nil
}

// Entity returns the schema registered under name.
func (r *Registry) Entity(name string) (Entity, bool) {
	if r == nil {
		return Entity{}, false
	}
	e, ok := r.entities[strings.TrimSpace(name)]
	return e, ok
}

// Names lists registered entity names in sorted order.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	names := make([]string, 0, len(r.entities))
	for name := range r.entities {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Empty reports whether the registry holds any entity.
func (r *Registry) Empty() bool {
	return r == nil || len(r.entities) == 0
}

func (r *Registry) add(entity Entity, source string) error {
	entity.Name = strings.TrimSpace(entity.Name)
	if entity.Name == "" {
		return fmt.Errorf("schema: file %s defines an entity without a name", source)
	}
	if _, exists := r.entities[entity.Name]; exists {
		return fmt.Errorf("schema: duplicate entity %q (file %s)", entity.Name, source)
	}
	if err := validateEntity(entity); err != nil {
		return fmt.Errorf("schema: entity %q (file %s): %w", entity.Name, source, err)
	}
	entity.Source = source
	r.entities[entity.Name] = entity
	return nil
}

func parseDocument(data []byte, source string) (registryFile, error) {
	var doc registryFile
	if len(strings.TrimSpace(string(data))) == 0 {
		return registryFile{}, fmt.Errorf("schema: file %s is empty", source)
	}

	if strings.EqualFold(filepath.Ext(source), ".json") {
		if err := json.Unmarshal(data, &doc); err != nil {
			return registryFile{}, fmt.Errorf("schema: parse %s: %w", source, err)
		}
		return doc, nil
	}

	if err := yaml.Unmarshal(data, &doc); err != nil {
		return registryFile{}, fmt.Errorf("schema: parse %s: %w", source, err)
	}
	return doc, nil
}

func validateEntity(e Entity) error {
	if strings.TrimSpace(e.Endpoint) == "" {
		return fmt.Errorf("endpoint is required")
	}
	if err := validateFields(e.Fields); err != nil {
		return err
	}
	if e.Discriminator != "" {
		if _, ok := e.Field(e.Discriminator); !ok {
			return fmt.Errorf("discriminator %q is not a declared field", e.Discriminator)
		}
	}
	if len(e.Variants) > 0 && e.Discriminator == "" {
		return fmt.Errorf("variants declared without a discriminator")
	}

	seen := make(map[string]struct{}, len(e.Variants))
	for _, v := range e.Variants {
		if strings.TrimSpace(v.Name) == "" {
			return fmt.Errorf("variant without a name")
		}
		if _, dup := seen[v.Name]; dup {
			return fmt.Errorf("duplicate variant %q", v.Name)
		}
		seen[v.Name] = struct{}{}
		if err := validateFields(v.Fields); err != nil {
			return fmt.Errorf("variant %q: %w", v.Name, err)
		}
		for _, f := range v.Fields {
			if f.Kind == KindFile {
				return fmt.Errorf("variant %q: file field %q is not supported in detail sections", v.Name, f.Name)
			}
		}
	}

	if err := validateGroups(e.Groups, 1); err != nil {
		return err
	}

	if e.Images != nil {
		if strings.TrimSpace(e.Images.Name) == "" {
			return fmt.Errorf("image list without a name")
		}
		if e.Images.Max <= 0 || e.Images.MaxBytes <= 0 {
			return fmt.Errorf("image list %q requires positive max and maxBytes", e.Images.Name)
		}
	}
	return nil
}

func validateGroups(groups []Group, depth int) error {
	seen := make(map[string]struct{}, len(groups))
	for _, g := range groups {
		if strings.TrimSpace(g.Name) == "" {
			return fmt.Errorf("group without a name")
		}
		if _, dup := seen[g.Name]; dup {
			return fmt.Errorf("duplicate group %q", g.Name)
		}
		seen[g.Name] = struct{}{}
		if err := validateFields(g.Fields); err != nil {
			return fmt.Errorf("group %q: %w", g.Name, err)
		}
		if len(g.Groups) > 0 && depth >= maxGroupDepth {
			return fmt.Errorf("group %q nests deeper than %d levels", g.Name, maxGroupDepth)
		}
		if err := validateGroups(g.Groups, depth+1); err != nil {
			return fmt.Errorf("group %q: %w", g.Name, err)
		}
	}
	return nil
}

func validateFields(fields []Field) error {
	seen := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		name := strings.TrimSpace(f.Name)
		if name == "" {
			return fmt.Errorf("field without a name")
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("duplicate field %q", name)
		}
		seen[name] = struct{}{}
		if !f.Kind.Valid() {
			return fmt.Errorf("field %q has unknown kind %q", name, f.Kind)
		}
		if f.DependsOn != "" {
			if _, ok := findField(fields, f.DependsOn); !ok {
				return fmt.Errorf("field %q depends on unknown field %q", name, f.DependsOn)
			}
		}
	}
	return nil
}

func isSchemaFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		return true
	default:
		return false
	}
}
