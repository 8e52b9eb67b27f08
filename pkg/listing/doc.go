// Package listing shapes backend lists for display: products grouped by
// type, pages and products filtered by a search query, appointments grouped
// by day with the services they request.
package listing
