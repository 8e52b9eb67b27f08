package editor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-editform/pkg/client"
	"github.com/goliatone/go-editform/pkg/form"
	"github.com/goliatone/go-editform/pkg/schema"
	"github.com/goliatone/go-editform/pkg/testsupport"
)

func entitySpec(t *testing.T, name string) schema.Entity {
	t.Helper()
	spec, ok := schema.MustDefault().Entity(name)
	if !ok {
		t.Fatalf("default registry has no %s entity", name)
	}
	return spec
}

func decodeRecord(t *testing.T, raw string) client.Record {
	t.Helper()
	var rec client.Record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		t.Fatalf("decode record: %v", err)
	}
	return rec
}

type sent struct {
	id   client.ID
	form testsupport.Form
}

type fakeProducts struct {
	t          *testing.T
	types      []client.ProductType
	categories []client.Category
	record     client.Record
	getErr     error
	submitErr  error
	getGate    chan struct{}
	submitGate chan struct{}
	entered    chan struct{}
	calls      atomic.Int32
	sent       []sent
}

func (f *fakeProducts) ListTypes(context.Context) ([]client.ProductType, error) {
	return f.types, nil
}

func (f *fakeProducts) ListCategories(context.Context) ([]client.Category, error) {
	return f.categories, nil
}

func (f *fakeProducts) GetProduct(ctx context.Context, id client.ID) (client.Record, error) {
	if f.getGate != nil {
		<-f.getGate
	}
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.record, nil
}

func (f *fakeProducts) CreateProduct(ctx context.Context, body client.MultipartWriter) (client.Record, error) {
	return f.send(ctx, "", body)
}

func (f *fakeProducts) UpdateProduct(ctx context.Context, id client.ID, body client.MultipartWriter) (client.Record, error) {
	return f.send(ctx, id, body)
}

func (f *fakeProducts) send(_ context.Context, id client.ID, body client.MultipartWriter) (client.Record, error) {
	f.calls.Add(1)
	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.submitGate != nil {
		<-f.submitGate
	}
	if f.submitErr != nil {
		return nil, f.submitErr
	}
	var buf bytes.Buffer
	contentType, err := body.WriteMultipart(&buf)
	if err != nil {
		return nil, err
	}
	f.sent = append(f.sent, sent{id: id, form: testsupport.DecodeMultipart(f.t, contentType, buf.Bytes())})
	return client.Record{"message": "ok", "id": 12.0}, nil
}

func productFake(t *testing.T) *fakeProducts {
	return &fakeProducts{
		t: t,
		types: []client.ProductType{
			{ID: "1", Slug: "piece", Libelle: "Pièces"},
			{ID: "2", Slug: "vehicule", Libelle: "Véhicules"},
		},
		categories: []client.Category{
			{ID: "4", Nom: "Filtres", TypeID: "1"},
			{ID: "5", Nom: "Citadines", TypeID: "2"},
		},
	}
}

const storedVehicle = `{
	"id": 7,
	"libelle": "Clio",
	"prix": "15000.00",
	"prix_promo": null,
	"categorie_id": 5,
	"actif": 1,
	"type": {"id": 2, "slug": "vehicule"},
	"vehicule": {
		"kilometrage": 120000,
		"radar_recul": "1",
		"date_immatriculation": "2019-05-02T00:00:00.000000Z",
		"equipements_interieurs": ["GPS", "Cuir"]
	},
	"codes_promo": [{"id": 31, "code": "ETE", "reduction": 10}],
	"images": ["produits/a.jpg", {"path": "produits/b.jpg"}]
}`

func fillProduct(t *testing.T, ed *ProductEditor) {
	t.Helper()
	if err := ed.SelectType("1"); err != nil {
		t.Fatalf("select type: %v", err)
	}
	e := ed.Entity()
	for name, v := range map[string]form.Value{
		"libelle":      form.String("Filtre"),
		"prix":         form.String("15 000"),
		"categorie_id": form.String("4"),
	} {
		if err := e.Set(name, v); err != nil {
			t.Fatalf("set %s: %v", name, err)
		}
	}
}

func TestProductLoadHydratesStoredRecord(t *testing.T) {
	fake := productFake(t)
	fake.record = decodeRecord(t, storedVehicle)
	ed := NewProduct(fake, entitySpec(t, "product"), WithStorageURL("https://cdn.test/storage"))

	if err := ed.Load(context.Background(), "7"); err != nil {
		t.Fatalf("load: %v", err)
	}
	e := ed.Entity()
	if !ed.Editing() || e.ID != "7" {
		t.Fatalf("expected edit mode for 7, got %q", e.ID)
	}
	value, variant := e.Discriminator()
	if value != "2" || variant != "vehicule" {
		t.Fatalf("discriminator = %q/%q", value, variant)
	}
	got := map[string]string{
		"libelle":      e.Text("libelle"),
		"prix":         e.Text("prix"),
		"categorie_id": e.Text("categorie_id"),
		"actif":        e.Text("actif"),
	}
	want := map[string]string{"libelle": "Clio", "prix": "15000", "categorie_id": "5", "actif": "true"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("scalars mismatch (-want +got):\n%s", diff)
	}
	if _, ok := e.Get("prix_promo"); ok {
		t.Fatalf("null values must stay absent")
	}

	details := e.Details().Section("vehicule")
	wantDetails := map[string]form.Value{
		"kilometrage":            form.String("120000"),
		"radar_recul":            form.Bool(true),
		"date_immatriculation":   form.String("2019-05-02"),
		"equipements_interieurs": form.List{"GPS", "Cuir"},
	}
	if diff := cmp.Diff(wantDetails, details); diff != "" {
		t.Fatalf("details mismatch (-want +got):\n%s", diff)
	}

	codes := e.Group("codes_promo")
	if codes.Len() != 1 || codes.At(0).ID != "31" || codes.At(0).Text("reduction") != "10" {
		t.Fatalf("unexpected codes_promo %+v", codes.Items())
	}
	wantURLs := []string{"https://cdn.test/storage/produits/a.jpg", "https://cdn.test/storage/produits/b.jpg"}
	if diff := cmp.Diff(wantURLs, e.Images().PreviewURLs()); diff != "" {
		t.Fatalf("preview urls mismatch (-want +got):\n%s", diff)
	}
	if cats := ed.Categories(); len(cats) != 1 || cats[0].ID != "5" {
		t.Fatalf("categories should follow the selected type, got %+v", cats)
	}
}

func TestProductReselectSameTypeKeepsDetails(t *testing.T) {
	fake := productFake(t)
	fake.record = decodeRecord(t, storedVehicle)
	ed := NewProduct(fake, entitySpec(t, "product"))
	if err := ed.Load(context.Background(), "7"); err != nil {
		t.Fatalf("load: %v", err)
	}
	before := ed.Entity().Details().Section("vehicule")

	if err := ed.SelectType("2"); err != nil {
		t.Fatalf("select type: %v", err)
	}
	if diff := cmp.Diff(before, ed.Entity().Details().Section("vehicule")); diff != "" {
		t.Fatalf("re-selecting the stored type changed details (-want +got):\n%s", diff)
	}

	if err := ed.SelectType("1"); err != nil {
		t.Fatalf("select type: %v", err)
	}
	if got := ed.Entity().Details().Section("vehicule"); len(got) != 0 {
		t.Fatalf("changing the type must reset details, got %v", got)
	}
}

func TestProductLoadMissingRecord(t *testing.T) {
	fake := productFake(t)
	ed := NewProduct(fake, entitySpec(t, "product"))

	err := ed.Load(context.Background(), "7")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if ed.Entity().ID != "" || len(ed.Types()) != 0 {
		t.Fatalf("missing record must leave the editor untouched")
	}
	if ed.Banner() != client.GenericMessage {
		t.Fatalf("banner = %q", ed.Banner())
	}
}

func TestProductLoadFailureAppliesNothing(t *testing.T) {
	fake := productFake(t)
	fake.getErr = &client.APIError{Status: 500, Message: "Produit introuvable"}
	ed := NewProduct(fake, entitySpec(t, "product"))

	err := ed.Load(context.Background(), "7")
	if err == nil {
		t.Fatal("expected load error")
	}
	if ed.Entity().ID != "" || len(ed.Types()) != 0 {
		t.Fatalf("failed load must leave the editor untouched")
	}
	if ed.Banner() != "Produit introuvable" {
		t.Fatalf("banner = %q", ed.Banner())
	}
	ed.DismissBanner()
	if ed.Banner() != "" {
		t.Fatalf("banner should be dismissed")
	}
}

func TestProductLoadAfterCloseIsDiscarded(t *testing.T) {
	fake := productFake(t)
	fake.record = decodeRecord(t, storedVehicle)
	fake.getGate = make(chan struct{})
	ed := NewProduct(fake, entitySpec(t, "product"))

	done := make(chan error, 1)
	go func() { done <- ed.Load(context.Background(), "7") }()
	ed.Close()
	close(fake.getGate)

	if err := <-done; !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	if ed.Entity().Text("libelle") != "" {
		t.Fatalf("late response must not hydrate a closed editor")
	}
}

func TestProductSubmitRequiresFieldsBeforeNetwork(t *testing.T) {
	fake := productFake(t)
	ed := NewProduct(fake, entitySpec(t, "product"))
	if err := ed.Load(context.Background(), ""); err != nil {
		t.Fatalf("load: %v", err)
	}
	if ed.CanSubmit() {
		t.Fatalf("empty product must not be submittable")
	}

	_, err := ed.Submit(context.Background())
	if !goerrors.IsCategory(err, goerrors.CategoryValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if fake.calls.Load() != 0 {
		t.Fatalf("invalid submit must not reach the backend")
	}
	if ed.Banner() != MissingFieldsMessage {
		t.Fatalf("banner = %q", ed.Banner())
	}
}

func TestProductSubmitCreateSendsPayload(t *testing.T) {
	fake := productFake(t)
	previews := form.NewMemoryPreviewer()
	ed := NewProduct(fake, entitySpec(t, "product"), WithPreviewer(previews))
	if err := ed.Load(context.Background(), ""); err != nil {
		t.Fatalf("load: %v", err)
	}
	fillProduct(t, ed)
	if err := ed.Entity().SetDetail("piece", "poids", form.String("2.5")); err != nil {
		t.Fatalf("set poids: %v", err)
	}
	if err := ed.AddImage(form.NewUpload("photo.png", []byte("PNG"))); err != nil {
		t.Fatalf("add image: %v", err)
	}
	if !ed.CanSubmit() {
		t.Fatalf("filled product should be submittable")
	}

	out, err := ed.Submit(context.Background())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if out["message"] != "ok" {
		t.Fatalf("unexpected response %v", out)
	}
	if len(fake.sent) != 1 || fake.sent[0].id != "" {
		t.Fatalf("expected one create call, got %+v", fake.sent)
	}
	body := fake.sent[0].form
	want := map[string]string{
		"type_id":      "1",
		"libelle":      "Filtre",
		"prix":         "15000",
		"piece[poids]": "2.5",
		"actif":        "1",
	}
	got := make(map[string]string, len(want))
	for key := range want {
		got[key] = body.Value(key)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("payload mismatch (-want +got):\n%s", diff)
	}
	if len(body.Files["images[]"]) != 1 {
		t.Fatalf("expected the staged image upload")
	}
	if !ed.Closed() || previews.Live() != 0 {
		t.Fatalf("successful submit should close the editor and release previews")
	}
}

func TestProductSubmitUpdateTombstonesPromoCode(t *testing.T) {
	fake := productFake(t)
	fake.record = decodeRecord(t, storedVehicle)
	ed := NewProduct(fake, entitySpec(t, "product"))
	if err := ed.Load(context.Background(), "7"); err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := ed.Entity().Group("codes_promo").RemoveAt(0); err != nil {
		t.Fatalf("remove code: %v", err)
	}
	if err := ed.Entity().Images().Remove(0); err != nil {
		t.Fatalf("remove image: %v", err)
	}

	if _, err := ed.Submit(context.Background()); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if len(fake.sent) != 1 || fake.sent[0].id != "7" {
		t.Fatalf("expected update of 7, got %+v", fake.sent)
	}
	body := fake.sent[0].form
	checks := map[string][]string{
		"deleted_codes_promo[]": {"31"},
		"deleted_images[]":      {"produits/a.jpg"},
		"existing_images[]":     {"produits/b.jpg"},
		"vehicule[kilometrage]": {"120000"},
	}
	for key, want := range checks {
		if diff := cmp.Diff(want, body.Values[key]); diff != "" {
			t.Fatalf("%s mismatch (-want +got):\n%s", key, diff)
		}
	}
	if keys := body.KeysWithPrefix("codes_promo["); len(keys) != 0 {
		t.Fatalf("removed code still sent: %v", keys)
	}
}

func TestProductSubmitGuardsInFlight(t *testing.T) {
	fake := productFake(t)
	fake.entered = make(chan struct{}, 1)
	fake.submitGate = make(chan struct{})
	ed := NewProduct(fake, entitySpec(t, "product"))
	if err := ed.Load(context.Background(), ""); err != nil {
		t.Fatalf("load: %v", err)
	}
	fillProduct(t, ed)

	done := make(chan error, 1)
	go func() {
		_, err := ed.Submit(context.Background())
		done <- err
	}()
	<-fake.entered

	if !ed.Loading() || ed.CanSubmit() {
		t.Fatalf("editor should report the running submission")
	}
	if _, err := ed.Submit(context.Background()); !errors.Is(err, ErrSubmitInFlight) {
		t.Fatalf("expected ErrSubmitInFlight, got %v", err)
	}
	close(fake.submitGate)
	if err := <-done; err != nil {
		t.Fatalf("first submit: %v", err)
	}
	if fake.calls.Load() != 1 {
		t.Fatalf("expected exactly one backend call, got %d", fake.calls.Load())
	}
	if ed.Loading() {
		t.Fatalf("loading flag should be cleared")
	}
}

func TestProductSubmitFailureKeepsState(t *testing.T) {
	fake := productFake(t)
	fake.submitErr = &client.APIError{Status: 422, Message: "Validation : prix requis"}
	ed := NewProduct(fake, entitySpec(t, "product"))
	if err := ed.Load(context.Background(), ""); err != nil {
		t.Fatalf("load: %v", err)
	}
	fillProduct(t, ed)

	if _, err := ed.Submit(context.Background()); err == nil {
		t.Fatal("expected submit error")
	}
	if ed.Closed() || ed.Entity().Text("libelle") != "Filtre" {
		t.Fatalf("failed submit must keep the editing state")
	}
	if ed.Banner() != "Validation : prix requis" {
		t.Fatalf("banner = %q", ed.Banner())
	}
	if !ed.CanSubmit() {
		t.Fatalf("editor should accept a new attempt")
	}
}

func TestProductSessionExpiryDiscardsEdits(t *testing.T) {
	fake := productFake(t)
	fake.submitErr = client.ErrSessionExpired
	ed := NewProduct(fake, entitySpec(t, "product"))
	if err := ed.Load(context.Background(), ""); err != nil {
		t.Fatalf("load: %v", err)
	}
	fillProduct(t, ed)

	if _, err := ed.Submit(context.Background()); !errors.Is(err, client.ErrSessionExpired) {
		t.Fatalf("expected ErrSessionExpired, got %v", err)
	}
	if !ed.Closed() {
		t.Fatalf("expired session should close the editor")
	}
	if _, err := ed.Submit(context.Background()); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}

func TestAddImageLimitIsBadInput(t *testing.T) {
	ed := NewProduct(productFake(t), entitySpec(t, "product"))
	for i := 0; i < 5; i++ {
		if err := ed.AddImage(form.NewUpload("p.png", []byte("x"))); err != nil {
			t.Fatalf("add image %d: %v", i, err)
		}
	}
	err := ed.AddImage(form.NewUpload("extra.png", []byte("x")))
	if !errors.Is(err, form.ErrImageLimit) || !goerrors.IsCategory(err, goerrors.CategoryBadInput) {
		t.Fatalf("expected bad input image limit error, got %v", err)
	}
	if ed.Entity().Images().Len() != 5 {
		t.Fatalf("list must stay unchanged")
	}
}

const storedPage = `{
	"id": 3,
	"title": "Accueil",
	"template": "home",
	"is_active": true,
	"main_image": "pages/main.png",
	"sections": [
		{"id": 11, "title": "Second", "order": 2, "type": "grid", "variant": "cards"},
		{"id": 10, "title": "Hero", "order": 1, "type": "hero", "image": "pages/hero.png",
			"subsections": [
				{"id": 41, "title": "Kept", "order": 1},
				{"id": 42, "title": "Gone", "order": 2}
			],
			"custom_blocks": [{"id": 70, "block_type": "map", "config": {"zoom": 12}}]
		}
	]
}`

func TestPageEditRoundTripThroughClient(t *testing.T) {
	var submitted testsupport.Form
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/pages/3", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, storedPage)
	})
	mux.HandleFunc("POST /api/pages/3", func(w http.ResponseWriter, r *http.Request) {
		submitted = testsupport.DecodeRequest(t, r)
		io.WriteString(w, `{"message":"Page mise à jour"}`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	c, err := client.New(srv.URL + "/api/")
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	ed := NewPage(c, entitySpec(t, "page"))
	if err := ed.Load(context.Background(), "3"); err != nil {
		t.Fatalf("load: %v", err)
	}
	sections := ed.Entity().Group("sections")
	if sections.Len() != 2 || sections.At(0).ID != "10" {
		t.Fatalf("sections should follow the stored order, got %+v", sections.Items())
	}
	if ref := ed.Entity().Attachment("main_image").Existing(); ref != "pages/main.png" {
		t.Fatalf("main image = %q", ref)
	}
	hero := sections.At(0)
	if err := hero.Group("subsections").RemoveAt(1); err != nil {
		t.Fatalf("remove subsection: %v", err)
	}

	if _, err := ed.Submit(context.Background()); err != nil {
		t.Fatalf("submit: %v", err)
	}
	want := map[string]string{
		"title":                                 "Accueil",
		"template":                              "home",
		"is_active":                             "1",
		"sections[0][id]":                       "10",
		"sections[0][order]":                    "1",
		"sections[0][subsections][0][id]":       "41",
		"sections[0][subsections][0][order]":    "1",
		"sections[0][custom_blocks][0][config]": `{"zoom":12}`,
		"sections[1][id]":                       "11",
		"sections[1][variant]":                  "cards",
		"deleted_subsections[]":                 "42",
	}
	got := make(map[string]string, len(want))
	for key := range want {
		got[key] = submitted.Value(key)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("payload mismatch (-want +got):\n%s", diff)
	}
	if keys := submitted.KeysWithPrefix("sections[0][subsections][1]"); len(keys) != 0 {
		t.Fatalf("removed subsection still sent: %v", keys)
	}
}

func TestPageLoadEmptyDocument(t *testing.T) {
	for name, body := range map[string]string{"null": "null", "empty": ""} {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				io.WriteString(w, body)
			}))
			t.Cleanup(srv.Close)
			c, err := client.New(srv.URL + "/api/")
			if err != nil {
				t.Fatalf("new client: %v", err)
			}
			ed := NewPage(c, entitySpec(t, "page"))

			err = ed.Load(context.Background(), "7")
			var apiErr *client.APIError
			if !errors.As(err, &apiErr) || apiErr.Status != http.StatusNotFound {
				t.Fatalf("expected not found APIError, got %v", err)
			}
			if ed.Banner() != "Page introuvable" {
				t.Fatalf("banner = %q", ed.Banner())
			}
			if ed.Editing() {
				t.Fatalf("failed load must keep the editor in create mode")
			}
		})
	}
}

func TestPageLoadNilRecordFromBackend(t *testing.T) {
	ed := NewPage(nilPages{}, entitySpec(t, "page"))
	if err := ed.Load(context.Background(), "7"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

type nilPages struct{}

func (nilPages) GetPage(context.Context, client.ID) (client.Record, error) { return nil, nil }

func (nilPages) CreatePage(context.Context, client.MultipartWriter) (client.Record, error) {
	return nil, nil
}

func (nilPages) UpdatePage(context.Context, client.ID, client.MultipartWriter) (client.Record, error) {
	return nil, nil
}

func TestPageCreateNeedsTitle(t *testing.T) {
	ed := NewPage(nil, entitySpec(t, "page"))
	if err := ed.Load(context.Background(), ""); err != nil {
		t.Fatalf("load: %v", err)
	}
	if ed.Editing() || ed.CanSubmit() {
		t.Fatalf("new page without title must not be submittable")
	}
	if err := ed.Entity().Set("title", form.String("Contact")); err != nil {
		t.Fatalf("set title: %v", err)
	}
	if !ed.CanSubmit() {
		t.Fatalf("page with title and default template should be submittable")
	}
}
