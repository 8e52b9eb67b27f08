package client

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// MultipartWriter is a request body that streams itself as
// multipart/form-data, such as payload.Payload.
type MultipartWriter interface {
	WriteMultipart(w io.Writer) (string, error)
}

const (
	pathProducts   = "/produits"
	pathTypes      = "/produits/type"
	pathCategories = "/produits/categories"
	pathPages      = "/pages"
	pathRDVs       = "/rdvs"
	pathLogout     = "/logout"
)

func itemPath(collection string, id ID) string {
	return collection + "/" + url.PathEscape(strings.TrimSpace(id.String()))
}

// ListProducts fetches the light product list.
func (c *Client) ListProducts(ctx context.Context) ([]ProductSummary, error) {
	var body productListBody
	if err := c.getJSON(ctx, pathProducts, &body); err != nil {
		return nil, err
	}
	return body.Produits, nil
}

// GetProduct fetches one product document.
func (c *Client) GetProduct(ctx context.Context, id ID) (Record, error) {
	var body productBody
	if err := c.getJSON(ctx, itemPath(pathProducts, id), &body); err != nil {
		return nil, err
	}
	if body.Produit == nil {
		return nil, apiError(&APIError{Status: http.StatusNotFound, Message: "Produit introuvable"}, "GET "+itemPath(pathProducts, id))
	}
	return body.Produit, nil
}

// CreateProduct posts a new product.
func (c *Client) CreateProduct(ctx context.Context, body MultipartWriter) (Record, error) {
	return c.postMultipart(ctx, pathProducts, body)
}

// UpdateProduct posts the edited product.
func (c *Client) UpdateProduct(ctx context.Context, id ID, body MultipartWriter) (Record, error) {
	return c.postMultipart(ctx, itemPath(pathProducts, id), body)
}

// DeleteProduct deletes a product.
func (c *Client) DeleteProduct(ctx context.Context, id ID) error {
	return c.delete(ctx, pathProducts, id)
}

// ListTypes fetches the product types.
func (c *Client) ListTypes(ctx context.Context) ([]ProductType, error) {
	var body typesBody
	if err := c.getJSON(ctx, pathTypes, &body); err != nil {
		return nil, err
	}
	return body.Types, nil
}

// ListCategories fetches the product categories.
func (c *Client) ListCategories(ctx context.Context) ([]Category, error) {
	var out []Category
	if err := c.getJSON(ctx, pathCategories, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListPages fetches the CMS pages.
func (c *Client) ListPages(ctx context.Context) ([]PageSummary, error) {
	var out []PageSummary
	if err := c.getJSON(ctx, pathPages, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetPage fetches one page with its sections.
func (c *Client) GetPage(ctx context.Context, id ID) (Record, error) {
	var out Record
	if err := c.getJSON(ctx, itemPath(pathPages, id), &out); err != nil {
		return nil, err
	}
	if out == nil {
		return nil, apiError(&APIError{Status: http.StatusNotFound, Message: "Page introuvable"}, "GET "+itemPath(pathPages, id))
	}
	return out, nil
}

// CreatePage posts a new page.
func (c *Client) CreatePage(ctx context.Context, body MultipartWriter) (Record, error) {
	return c.postMultipart(ctx, pathPages, body)
}

// UpdatePage posts the edited page.
func (c *Client) UpdatePage(ctx context.Context, id ID, body MultipartWriter) (Record, error) {
	return c.postMultipart(ctx, itemPath(pathPages, id), body)
}

// DeletePage deletes a page.
func (c *Client) DeletePage(ctx context.Context, id ID) error {
	return c.delete(ctx, pathPages, id)
}

// ListRDVs fetches the appointments.
func (c *Client) ListRDVs(ctx context.Context) ([]RDV, error) {
	var out []RDV
	if err := c.getJSON(ctx, pathRDVs, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteRDV deletes an appointment.
func (c *Client) DeleteRDV(ctx context.Context, id ID) error {
	return c.delete(ctx, pathRDVs, id)
}

// Logout ends the backend session and clears the local one.
func (c *Client) Logout(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodPost, pathLogout, strings.NewReader("{}"), "application/json")
	c.session.Clear()
	return err
}

func (c *Client) postMultipart(ctx context.Context, path string, body MultipartWriter) (Record, error) {
	var buf bytes.Buffer
	contentType, err := body.WriteMultipart(&buf)
	if err != nil {
		return nil, transportError(err, http.MethodPost+" "+path)
	}
	data, err := c.do(ctx, http.MethodPost, path, &buf, contentType)
	if err != nil {
		return nil, err
	}
	var out Record
	if err := decode(data, &out, http.MethodPost+" "+path); err != nil {
		return nil, err
	}
	return out, nil
}

// delete succeeds only when the backend confirms with status "deleted".
func (c *Client) delete(ctx context.Context, collection string, id ID) error {
	path := itemPath(collection, id)
	data, err := c.do(ctx, http.MethodDelete, path, nil, "")
	if err != nil {
		return err
	}
	var body statusBody
	if err := decode(data, &body, http.MethodDelete+" "+path); err != nil {
		return err
	}
	if body.Status != "deleted" {
		return deleteRejected(strings.TrimPrefix(collection, "/"), id.String(), body.Status)
	}
	return nil
}
