// Package payload flattens a form.Entity into the bracketed multipart keys
// the backend expects (sections[0][subsections][1][title]), writes them as
// multipart/form-data and provides the currency presentation helpers.
package payload
