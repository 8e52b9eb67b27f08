// Package schema declares the field registry that drives the product and page
// editors: typed fields, discriminator variants, repeatable groups and bounded
// image lists. Registries load from JSON/YAML documents; a default set for
// products and pages is embedded, and request body fields can be imported from
// an OpenAPI description of the backend.
package schema
