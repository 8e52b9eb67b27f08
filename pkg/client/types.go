package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ID is a backend identifier. The backend sends numbers or strings; both
// decode to the same textual form.
type ID string

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string { return string(id) }

// Flag is a 0/1 integer flag that also accepts JSON booleans.
type Flag int

func (f *Flag) UnmarshalJSON(data []byte) error {
	switch s := strings.Trim(string(bytes.TrimSpace(data)), `"`); s {
	case "true":
		*f = 1
	case "false", "null", "":
		*f = 0
	default:
		n, err := strconv.Atoi(s)
		if err != nil {
			return err
		}
		*f = Flag(n)
	}
	return nil
}

// Text is a scalar the backend sends either as a string or as a number.
type Text string

func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*t = ""
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = Text(s)
	default:
		*t = Text(data)
	}
	return nil
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// Timestamp decodes the date formats the backend emits. Values without a
// zone are read as UTC.
type Timestamp struct {
	time.Time
}

func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		ts.Time = time.Time{}
		return nil
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			ts.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("client: unsupported timestamp %q", raw)
}

// Record is an entity document as the backend returns it. Field sets are
// schema driven, so records stay untyped.
type Record map[string]any

// ProductType is an entry of GET /produits/type.
type ProductType struct {
	ID      ID     `json:"id"`
	Slug    string `json:"slug"`
	Libelle string `json:"libelle"`
}

// Category is an entry of GET /produits/categories.
type Category struct {
	ID     ID           `json:"id"`
	Nom    string       `json:"nom"`
	TypeID ID           `json:"type_id"`
	Type   *ProductType `json:"type,omitempty"`
}

// ProductSummary is an entry of the light product list.
type ProductSummary struct {
	ID      ID           `json:"id"`
	Libelle string       `json:"libelle"`
	Ref     string       `json:"ref"`
	Prix    Text         `json:"prix"`
	Actif   Flag         `json:"actif"`
	Type    *ProductType `json:"type,omitempty"`
}

// PageSummary is an entry of GET /pages.
type PageSummary struct {
	ID       ID     `json:"id"`
	Title    string `json:"title"`
	Slug     string `json:"slug"`
	Template string `json:"template"`
	IsActive Flag   `json:"is_active"`
}

// RDV is an appointment.
type RDV struct {
	ID                        ID        `json:"id"`
	Centre                    string    `json:"centre"`
	ClientNom                 string    `json:"client_nom"`
	ClientPrenom              string    `json:"client_prenom"`
	ClientTel                 string    `json:"client_tel"`
	ClientEmail               string    `json:"client_email"`
	Immat                     string    `json:"immat"`
	Marque                    string    `json:"marque"`
	Modele                    string    `json:"modele"`
	PremiereMiseEnCirculation Text      `json:"premiere_mise_en_circulation"`
	Kilometrage               Text      `json:"kilometrage"`
	DatePriseRDV              Timestamp `json:"date_prise_rdv"`
	Commentaires              string    `json:"commentaires"`
	Pneus                     Flag      `json:"pneus"`
	Amortisseurs              Flag      `json:"amortisseurs"`
	Vidange                   Flag      `json:"vidange"`
	VidangeKm                 Text      `json:"vidange_km"`
	Distribution              Flag      `json:"distribution"`
	Revision                  Flag      `json:"revision"`
	RevisionKm                Text      `json:"revision_km"`
	Climatisation             Flag      `json:"climatisation"`
	Freinage                  Flag      `json:"freinage"`
	Echappement               Flag      `json:"echappement"`
	Autres                    Flag      `json:"autres"`
	AutresDetails             string    `json:"autres_details"`
}

type statusBody struct {
	Status string `json:"status"`
}

type productBody struct {
	Produit Record `json:"produit"`
}

type productListBody struct {
	Produits []ProductSummary `json:"produits"`
}

type typesBody struct {
	Types []ProductType `json:"types"`
}
