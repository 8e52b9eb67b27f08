package listing

import (
	"sort"
	"strings"
	"time"

	"github.com/goliatone/go-editform/pkg/client"
)

// Service is a prestation an appointment can request.
type Service struct {
	Key   string
	Label string
}

// Services lists the prestations in display order.
var Services = []Service{
	{Key: "pneus", Label: "Pneus"},
	{Key: "amortisseurs", Label: "Amortisseurs"},
	{Key: "vidange", Label: "Vidange"},
	{Key: "distribution", Label: "Distribution"},
	{Key: "revision", Label: "Révision"},
	{Key: "climatisation", Label: "Climatisation"},
	{Key: "freinage", Label: "Freinage"},
	{Key: "echappement", Label: "Échappement"},
	{Key: "autres", Label: "Autres"},
}

// RequestedServices returns the services whose flag equals 1.
func RequestedServices(r client.RDV) []Service {
	flags := map[string]client.Flag{
		"pneus":         r.Pneus,
		"amortisseurs":  r.Amortisseurs,
		"vidange":       r.Vidange,
		"distribution":  r.Distribution,
		"revision":      r.Revision,
		"climatisation": r.Climatisation,
		"freinage":      r.Freinage,
		"echappement":   r.Echappement,
		"autres":        r.Autres,
	}
	var out []Service
	for _, s := range Services {
		if flags[s.Key] == 1 {
			out = append(out, s)
		}
	}
	return out
}

// Day is the appointments of one calendar day, ordered by time.
type Day struct {
	Date  string
	Label string
	RDVs  []client.RDV
}

// GroupByDay groups appointments by day in ascending date order.
func GroupByDay(rdvs []client.RDV) []Day {
	byKey := make(map[string]*Day)
	var keys []string
	for _, r := range rdvs {
		key := r.DatePriseRDV.Format(time.DateOnly)
		d, ok := byKey[key]
		if !ok {
			d = &Day{Date: key, Label: DayLabel(r.DatePriseRDV.Time)}
			byKey[key] = d
			keys = append(keys, key)
		}
		d.RDVs = append(d.RDVs, r)
	}
	sort.Strings(keys)

	out := make([]Day, 0, len(keys))
	for _, key := range keys {
		d := byKey[key]
		sort.SliceStable(d.RDVs, func(i, j int) bool {
			return d.RDVs[i].DatePriseRDV.Before(d.RDVs[j].DatePriseRDV.Time)
		})
		out = append(out, *d)
	}
	return out
}

// SearchRDVs keeps the appointments whose plate contains query, ignoring
// case.
func SearchRDVs(rdvs []client.RDV, query string) []client.RDV {
	q := normalize(query)
	if q == "" {
		return rdvs
	}
	var out []client.RDV
	for _, r := range rdvs {
		if strings.Contains(normalize(r.Immat), q) {
			out = append(out, r)
		}
	}
	return out
}

var weekdays = [...]string{"dim.", "lun.", "mar.", "mer.", "jeu.", "ven.", "sam."}

// DayLabel formats t the way the planning shows day headers, for example
// "mar. 04/03/2025".
func DayLabel(t time.Time) string {
	return weekdays[t.Weekday()] + " " + t.Format("02/01/2006")
}

// TimeLabel formats the appointment time as "09:30".
func TimeLabel(t time.Time) string {
	return t.Format("15:04")
}
