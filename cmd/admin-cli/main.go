package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/goliatone/go-editform"
	"github.com/goliatone/go-editform/pkg/access"
	"github.com/goliatone/go-editform/pkg/client"
	"github.com/goliatone/go-editform/pkg/editor"
	"github.com/goliatone/go-editform/pkg/listing"
	"github.com/goliatone/go-editform/pkg/payload"
	"github.com/goliatone/go-editform/pkg/prompt"
	"github.com/goliatone/go-editform/pkg/schema"
	"github.com/goliatone/go-editform/pkg/validation"
	"gopkg.in/yaml.v3"
)

const usage = `usage: admin-cli [flags] <command> [args]

commands:
  products [-q query] [-sort asc|desc]   list products grouped by type
  pages [-q query] [-sort asc|desc]      list pages
  rdvs [-q immat]                        list appointments by day
  product new | product edit <id>        create or edit a product
  page new | page edit <id>              create or edit a page
  delete product|page|rdv <id>           delete a record
  routes [-role role]                    list the admin routes a role may open
  import <openapi-file> <operationId>    print registry fields for an OpenAPI operation
`

func main() {
	envFile := flag.String("env", "", "dotenv file to load (.env if empty)")
	flag.Usage = func() { fmt.Fprint(flag.CommandLine.Output(), usage) }
	flag.Parse()
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var files []string
	if *envFile != "" {
		files = append(files, *envFile)
	}
	app, err := editform.Load(files, editform.WithSessionExpiry(func(reason error) {
		fmt.Fprintln(os.Stderr, client.Message(reason))
		cancel()
	}))
	if err != nil {
		log.Fatalf("Failed to configure: %v", err)
	}

	if err := run(ctx, app, flag.Args(), os.Stdout); err != nil {
		if errors.Is(err, prompt.ErrAborted) {
			os.Exit(130)
		}
		log.Fatalf("%s: %v", flag.Arg(0), describe(err))
	}
}

func run(ctx context.Context, app *editform.App, args []string, out io.Writer) error {
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "products":
		return listProducts(ctx, app, rest, out)
	case "pages":
		return listPages(ctx, app, rest, out)
	case "rdvs":
		return listRDVs(ctx, app, rest, out)
	case "product", "page":
		return edit(ctx, app, cmd, rest, out)
	case "delete":
		return remove(ctx, app, rest, out)
	case "routes":
		return routes(rest, out)
	case "import":
		return importFields(ctx, rest, out)
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func listFlags(name string, args []string) (query string, order listing.Sort, err error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	q := fs.String("q", "", "search query")
	s := fs.String("sort", "", "sort order (asc or desc)")
	if err := fs.Parse(args); err != nil {
		return "", "", err
	}
	return *q, listing.Sort(*s), nil
}

func listProducts(ctx context.Context, app *editform.App, args []string, out io.Writer) error {
	query, order, err := listFlags("products", args)
	if err != nil {
		return err
	}
	products, err := app.Client.ListProducts(ctx)
	if err != nil {
		return err
	}
	products = listing.SortProducts(listing.SearchProducts(products, query), order)

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, group := range listing.GroupProducts(products) {
		fmt.Fprintf(tw, "%s (%d)\n", group.Label, len(group.Products))
		for _, p := range group.Products {
			state := "inactif"
			if p.Actif == 1 {
				state = "actif"
			}
			fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\n", p.ID, p.Libelle, price(string(p.Prix)), state)
		}
	}
	return tw.Flush()
}

func listPages(ctx context.Context, app *editform.App, args []string, out io.Writer) error {
	query, order, err := listFlags("pages", args)
	if err != nil {
		return err
	}
	pages, err := app.Client.ListPages(ctx)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, p := range listing.SortPages(listing.SearchPages(pages, query), order) {
		fmt.Fprintf(tw, "%s\t%s\t/%s\t%s\n", p.ID, p.Title, p.Slug, p.Template)
	}
	return tw.Flush()
}

func listRDVs(ctx context.Context, app *editform.App, args []string, out io.Writer) error {
	query, _, err := listFlags("rdvs", args)
	if err != nil {
		return err
	}
	rdvs, err := app.Client.ListRDVs(ctx)
	if err != nil {
		return err
	}
	for _, day := range listing.GroupByDay(listing.SearchRDVs(rdvs, query)) {
		fmt.Fprintln(out, day.Label)
		for _, r := range day.RDVs {
			var services []string
			for _, s := range listing.RequestedServices(r) {
				services = append(services, s.Label)
			}
			fmt.Fprintf(out, "  %s  %s %s (%s)  %s %s %s  [%s]\n",
				listing.TimeLabel(r.DatePriseRDV.Time), r.ClientNom, r.ClientPrenom, r.ClientTel,
				r.Immat, r.Marque, r.Modele, strings.Join(services, ", "))
		}
	}
	return nil
}

func edit(ctx context.Context, app *editform.App, kind string, args []string, out io.Writer) error {
	if len(args) == 0 || (args[0] == "edit" && len(args) < 2) {
		return fmt.Errorf("usage: %s new | %s edit <id>", kind, kind)
	}
	id := ""
	if args[0] == "edit" {
		id = args[1]
	}

	watcher := app.IdleWatcher()
	watchCtx, stop := context.WithCancel(ctx)
	defer stop()
	go func() {
		if err := watcher.Run(watchCtx); errors.Is(err, client.ErrIdleLogout) {
			fmt.Fprintln(os.Stderr, "Déconnecté après inactivité.")
			os.Exit(1)
		}
	}()
	driver := touchingDriver{Driver: prompt.NewSurveyDriver(out), touch: watcher.Touch}

	switch kind {
	case "product":
		ed, err := app.ProductEditor()
		if err != nil {
			return err
		}
		defer ed.Close()
		if err := ed.Load(ctx, id); err != nil {
			return err
		}
		filler := prompt.New(driver,
			prompt.WithChoices("type_id", func() []prompt.Choice {
				var choices []prompt.Choice
				for _, t := range ed.Types() {
					choices = append(choices, prompt.Choice{Value: string(t.ID), Label: t.Libelle})
				}
				return choices
			}),
			prompt.WithChoices("categorie_id", func() []prompt.Choice {
				var choices []prompt.Choice
				for _, c := range ed.Categories() {
					choices = append(choices, prompt.Choice{Value: string(c.ID), Label: c.Nom})
				}
				return choices
			}),
			prompt.WithDiscriminator(ed.SelectType),
			prompt.WithImageAdder(ed.AddImage),
		)
		if err := filler.Fill(ctx, ed.Entity()); err != nil {
			return err
		}
		return confirmAndSubmit(ctx, driver, "le produit", ed.Entity().Text("libelle"), ed.CanSubmit, ed.Submit, out)
	default:
		ed, err := app.PageEditor()
		if err != nil {
			return err
		}
		defer ed.Close()
		if err := ed.Load(ctx, id); err != nil {
			return err
		}
		if err := prompt.New(driver).Fill(ctx, ed.Entity()); err != nil {
			return err
		}
		return confirmAndSubmit(ctx, driver, "la page", ed.Entity().Text("title"), ed.CanSubmit, ed.Submit, out)
	}
}

func confirmAndSubmit(ctx context.Context, driver prompt.Driver, what, title string, ready func() bool,
	submit func(context.Context) (client.Record, error), out io.Writer) error {
	if !ready() {
		fmt.Fprintln(out, editor.MissingFieldsMessage)
	}
	ok, err := driver.Confirm(ctx, prompt.ConfirmConfig{Message: fmt.Sprintf("Enregistrer %s %q ?", what, title), Default: true})
	if err != nil || !ok {
		return err
	}
	res, err := submit(ctx)
	if err != nil {
		return err
	}
	msg, _ := res["message"].(string)
	if msg == "" {
		msg = "Enregistré."
	}
	fmt.Fprintln(out, msg)
	return nil
}

func remove(ctx context.Context, app *editform.App, args []string, out io.Writer) error {
	if len(args) != 2 {
		return errors.New("usage: delete product|page|rdv <id>")
	}
	id := client.ID(args[1])
	ok, err := prompt.NewSurveyDriver(out).Confirm(ctx, prompt.ConfirmConfig{
		Message: fmt.Sprintf("Supprimer %s %s ?", args[0], id),
	})
	if err != nil || !ok {
		return err
	}
	switch args[0] {
	case "product":
		err = app.Client.DeleteProduct(ctx, id)
	case "page":
		err = app.Client.DeletePage(ctx, id)
	case "rdv":
		err = app.Client.DeleteRDV(ctx, id)
	default:
		return fmt.Errorf("unknown kind %q", args[0])
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(out, "Supprimé.")
	return nil
}

func routes(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("routes", flag.ContinueOnError)
	role := fs.String("role", access.RoleSuperAdmin, "role to check")
	if err := fs.Parse(args); err != nil {
		return err
	}
	for _, r := range access.Visible(&client.User{Role: *role}) {
		fmt.Fprintf(out, "%-14s %s\n", r.Name, r.Pattern)
	}
	return nil
}

func importFields(ctx context.Context, args []string, out io.Writer) error {
	if len(args) != 2 {
		return errors.New("usage: import <openapi-file> <operationId>")
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	fields, err := schema.FieldsFromOpenAPI(ctx, data, args[1])
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(map[string][]schema.Field{"fields": fields}); err != nil {
		return err
	}
	return enc.Close()
}

// touchingDriver resets the idle timer after every answer.
type touchingDriver struct {
	prompt.Driver
	touch func()
}

func (d touchingDriver) Input(ctx context.Context, cfg prompt.InputConfig) (string, error) {
	defer d.touch()
	return d.Driver.Input(ctx, cfg)
}

func (d touchingDriver) Confirm(ctx context.Context, cfg prompt.ConfirmConfig) (bool, error) {
	defer d.touch()
	return d.Driver.Confirm(ctx, cfg)
}

func (d touchingDriver) Select(ctx context.Context, cfg prompt.SelectConfig) (int, error) {
	defer d.touch()
	return d.Driver.Select(ctx, cfg)
}

func (d touchingDriver) TextArea(ctx context.Context, cfg prompt.TextAreaConfig) (string, error) {
	defer d.touch()
	return d.Driver.TextArea(ctx, cfg)
}

func price(raw string) string {
	whole, _, _ := strings.Cut(strings.TrimSpace(raw), ".")
	if whole == "" {
		return "-"
	}
	return payload.FormatThousands(whole) + " €"
}

// describe renders validation failures field by field, whether they were
// caught locally or reported by the backend.
func describe(err error) error {
	issues := validation.Issues(err)
	var apiErr *client.APIError
	if errors.As(err, &apiErr) && len(apiErr.Fields) > 0 {
		issues = validation.FromFields(apiErr.Fields)
	}
	if len(issues) == 0 || issues[0].Field == "" {
		if msg := client.Message(err); msg != client.GenericMessage {
			return errors.New(msg)
		}
		return err
	}
	var b strings.Builder
	if apiErr != nil {
		b.WriteString(apiErr.Message)
	}
	for _, is := range issues {
		fmt.Fprintf(&b, "\n  %s: %s", is.Field, is.Message)
	}
	return errors.New(b.String())
}
