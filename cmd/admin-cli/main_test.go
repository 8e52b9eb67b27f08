package main

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-editform"
	"github.com/goliatone/go-editform/internal/logging"
	"github.com/goliatone/go-editform/pkg/client"
	"github.com/goliatone/go-editform/pkg/schema"
)

type quietProvider struct{}

func (quietProvider) GetLogger(string) logging.Logger { return logging.NoOp() }

func newApp(t *testing.T, handler http.Handler) *editform.App {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	app, err := editform.New(editform.Config{
		APIBaseURL:     srv.URL,
		LogLevel:       "info",
		LogFormat:      "console",
		RequestTimeout: time.Second,
		IdleTimeout:    time.Minute,
	}, editform.WithLoggerProvider(quietProvider{}))
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	return app
}

func TestRunProducts(t *testing.T) {
	app := newApp(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"produits":[
			{"id":1,"libelle":"Filtre","prix":"15000.00","actif":1,"type":{"libelle":"Pièces"}},
			{"id":2,"libelle":"Clio","prix":"8900","actif":0,"type":{"libelle":"Véhicules"}},
			{"id":3,"libelle":"Bougie","prix":"12","actif":1}
		]}`)
	}))
	var out bytes.Buffer
	if err := run(context.Background(), app, []string{"products", "-q", "i"}, &out); err != nil {
		t.Fatalf("run: %v", err)
	}
	got := out.String()
	for _, want := range []string{"Pièces (1)", "15 000 €", "Véhicules (1)", "inactif", "Autre (1)"} {
		if !strings.Contains(got, want) {
			t.Fatalf("output missing %q:\n%s", want, got)
		}
	}
}

func TestRunRDVs(t *testing.T) {
	app := newApp(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `[
			{"id":1,"client_nom":"Durand","immat":"AB-123-CD","date_prise_rdv":"2025-03-05 14:00:00","vidange":1,"freinage":1},
			{"id":2,"client_nom":"Martin","immat":"EF-456-GH","date_prise_rdv":"2025-03-04 09:30:00","pneus":1}
		]`)
	}))
	var out bytes.Buffer
	if err := run(context.Background(), app, []string{"rdvs"}, &out); err != nil {
		t.Fatalf("run: %v", err)
	}
	got := out.String()
	first, second := strings.Index(got, "mar. 04/03/2025"), strings.Index(got, "mer. 05/03/2025")
	if first < 0 || second < first {
		t.Fatalf("days out of order:\n%s", got)
	}
	if !strings.Contains(got, "[Vidange, Freinage]") || !strings.Contains(got, "09:30") {
		t.Fatalf("unexpected output:\n%s", got)
	}
}

func TestRunRoutesAndUnknownCommand(t *testing.T) {
	app := newApp(t, http.NotFoundHandler())
	var out bytes.Buffer
	if err := run(context.Background(), app, []string{"routes", "-role", "admin"}, &out); err != nil {
		t.Fatalf("run: %v", err)
	}
	if strings.TrimSpace(out.String()) != "home           /admin-gest/home" {
		t.Fatalf("unexpected routes:\n%q", out.String())
	}
	if err := run(context.Background(), app, []string{"invoices"}, &out); err == nil {
		t.Fatalf("unknown command should fail")
	}
}

func TestRunImportPrintsRegistryFields(t *testing.T) {
	doc := `{
  "openapi": "3.0.3",
  "info": {"title": "admin", "version": "1.0.0"},
  "paths": {"/pages": {"post": {
    "operationId": "createPage",
    "requestBody": {"content": {"application/json": {"schema": {
      "type": "object",
      "required": ["title"],
      "properties": {"title": {"type": "string"}, "is_published": {"type": "boolean"}}
    }}}},
    "responses": {"200": {"description": "ok"}}
  }}}
}`
	path := filepath.Join(t.TempDir(), "openapi.json")
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatalf("write document: %v", err)
	}
	app := newApp(t, http.NotFoundHandler())

	var out bytes.Buffer
	if err := run(context.Background(), app, []string{"import", path, "createPage"}, &out); err != nil {
		t.Fatalf("run: %v", err)
	}
	var got map[string][]schema.Field
	if err := yaml.Unmarshal(out.Bytes(), &got); err != nil {
		t.Fatalf("output is not yaml: %v\n%s", err, out.String())
	}
	want := map[string][]schema.Field{"fields": {
		{Name: "is_published", Kind: schema.KindCheckbox},
		{Name: "title", Kind: schema.KindText, Required: true},
	}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("fields mismatch (-want +got):\n%s", diff)
	}
	if err := run(context.Background(), app, []string{"import", path}, &out); err == nil {
		t.Fatalf("missing operation id should fail")
	}
}

func TestDescribeBackendFieldErrors(t *testing.T) {
	err := &client.APIError{Status: 422, Message: "Invalide", Fields: map[string][]string{
		"sections[0][title]": {"requis"},
		"libelle":            {"trop court"},
	}}
	want := "Invalide\n  libelle: trop court\n  sections.0.title: requis"
	if got := describe(err).Error(); got != want {
		t.Fatalf("describe() = %q, want %q", got, want)
	}
}

func TestPrice(t *testing.T) {
	cases := map[string]string{"15000.00": "15 000 €", "": "-", "7": "7 €"}
	for in, want := range cases {
		if got := price(in); got != want {
			t.Fatalf("price(%q) = %q, want %q", in, got, want)
		}
	}
}
