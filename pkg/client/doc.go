// Package client is the HTTP collaborator of the admin editors. It lists,
// fetches, posts and deletes products, pages and appointments, maps a 401
// answer to session expiry through an injected capability and surfaces
// backend messages as APIError values wrapped in go-errors categories.
package client
