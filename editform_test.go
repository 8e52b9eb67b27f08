package editform

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-editform/internal/logging"
)

type quietProvider struct{}

func (quietProvider) GetLogger(string) logging.Logger { return logging.NoOp() }

func testConfig(baseURL string) Config {
	return Config{
		APIBaseURL:     baseURL,
		StorageURL:     baseURL + "/storage",
		LogLevel:       "info",
		LogFormat:      "console",
		RequestTimeout: time.Second,
		IdleTimeout:    time.Minute,
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	if _, err := New(Config{LogLevel: "info"}, WithLoggerProvider(quietProvider{})); err == nil {
		t.Fatal("expected missing base url to be rejected")
	}
}

func TestNewUsesEmbeddedRegistry(t *testing.T) {
	app, err := New(testConfig("https://api.example.test"), WithLoggerProvider(quietProvider{}))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if diff := cmp.Diff([]string{"page", "product"}, app.Registry.Names()); diff != "" {
		t.Fatalf("registry mismatch (-want +got):\n%s", diff)
	}
	if _, err := app.Entity("invoice"); err == nil {
		t.Fatalf("unknown entity should error")
	}
	if app.Client.BaseURL() != "https://api.example.test" {
		t.Fatalf("base url = %s", app.Client.BaseURL())
	}
}

func TestNewLoadsSchemaDir(t *testing.T) {
	dir := t.TempDir()
	doc := "entities:\n  - name: service\n    endpoint: /services\n    fields:\n      - { name: nom, kind: text, required: true }\n"
	if err := os.WriteFile(filepath.Join(dir, "service.yaml"), []byte(doc), 0o600); err != nil {
		t.Fatalf("write schema: %v", err)
	}
	cfg := testConfig("https://api.example.test")
	cfg.SchemaDir = dir

	app, err := New(cfg, WithLoggerProvider(quietProvider{}))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if diff := cmp.Diff([]string{"service"}, app.Registry.Names()); diff != "" {
		t.Fatalf("registry mismatch (-want +got):\n%s", diff)
	}
	if _, err := app.ProductEditor(); err == nil {
		t.Fatalf("product editor needs a product schema")
	}

	cfg.SchemaDir = t.TempDir()
	if _, err := New(cfg, WithLoggerProvider(quietProvider{})); err == nil {
		t.Fatalf("empty schema dir should be rejected")
	}
}

func TestProductEditorLoadsThroughClient(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /produits/type", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"types":[{"id":1,"slug":"piece","libelle":"Pièces"}]}`)
	})
	mux.HandleFunc("GET /produits/categories", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `[{"id":4,"nom":"Filtres","type_id":1}]`)
	})
	mux.HandleFunc("GET /produits/9", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"produit":{"id":9,"libelle":"Filtre","type_id":1,"images":["produits/f.jpg"]}}`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	app, err := New(testConfig(srv.URL), WithLoggerProvider(quietProvider{}))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	ed, err := app.ProductEditor()
	if err != nil {
		t.Fatalf("product editor: %v", err)
	}
	defer ed.Close()
	if err := ed.Load(context.Background(), "9"); err != nil {
		t.Fatalf("load: %v", err)
	}
	if v := ed.Entity().Variant(); v != "piece" {
		t.Fatalf("variant = %q", v)
	}
	want := []string{srv.URL + "/storage/produits/f.jpg"}
	if diff := cmp.Diff(want, ed.Entity().Images().PreviewURLs()); diff != "" {
		t.Fatalf("preview urls mismatch (-want +got):\n%s", diff)
	}
	if app.IdleWatcher() == nil {
		t.Fatalf("expected idle watcher")
	}
}
