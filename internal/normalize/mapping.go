package normalize

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/angelcm/marketing-pulse/internal/models"
)

// MatchMode selects how an accepted name is compared against a raw column.
type MatchMode string

const (
	// MatchExact is a case-insensitive whole-name comparison.
	MatchExact MatchMode = "exact"
	// MatchContains is the generic-upload path: keyword containment, and
	// only numeric columns qualify.
	MatchContains MatchMode = "contains"
)

// FieldMapping maps one canonical field onto an ordered list of accepted raw
// column names. The first raw column matching any accepted name wins; later
// names are never checked once one matches.
type FieldMapping struct {
	Field models.Field `yaml:"field"`
	Names []string     `yaml:"names"`
	Match MatchMode    `yaml:"match,omitempty"`
}

// Mappings is the full vocabulary, keyed by source type.
type Mappings map[models.SourceType][]FieldMapping

// Default returns the built-in vocabulary. Synonyms mirror what the supported
// platforms actually export, including the Spanish variants.
func Default() Mappings {
	return Mappings{
		models.SourceAds: {
			{Field: models.FieldSpend, Names: []string{"spend", "cost", "gasto"}},
			{Field: models.FieldImpressions, Names: []string{"impressions", "impresiones"}},
			{Field: models.FieldClicks, Names: []string{"clicks", "clics"}},
			{Field: models.FieldConversions, Names: []string{"conversions", "conversion", "purchases"}},
			{Field: models.FieldRevenue, Names: []string{"revenue", "purchase_value", "conversion_value"}},
			{Field: models.FieldCPC, Names: []string{"cpc", "avg_cpc"}},
			{Field: models.FieldCPM, Names: []string{"cpm", "avg_cpm"}},
			{Field: models.FieldCTR, Names: []string{"ctr", "click_through_rate"}},
			{Field: models.FieldROAS, Names: []string{"roas", "return_on_ad_spend"}},
		},
		models.SourceEcommerce: {
			{Field: models.FieldRevenue, Names: []string{"revenue", "sales", "ventas", "total_sales"}},
			{Field: models.FieldOrders, Names: []string{"orders", "pedidos", "order_count"}},
			{Field: models.FieldUnitsSold, Names: []string{"units_sold", "quantity", "cantidad"}},
			{Field: models.FieldCustomers, Names: []string{"customers", "clientes", "new_customers"}},
			{Field: models.FieldAOV, Names: []string{"aov", "average_order_value", "valor_promedio"}},
		},
		models.SourceEmail: {
			{Field: models.FieldEmailsSent, Names: []string{"emails_sent", "sent", "enviados"}},
			{Field: models.FieldOpens, Names: []string{"opens", "emails_opened", "aperturas"}},
			{Field: models.FieldClicks, Names: []string{"clicks", "emails_clicked", "clics"}},
			{Field: models.FieldUnsubs, Names: []string{"unsubscribes", "unsubs", "bajas"}},
			{Field: models.FieldBounces, Names: []string{"bounces", "rebotes"}},
			{Field: models.FieldRevenue, Names: []string{"revenue", "email_revenue", "ingresos"}},
			{Field: models.FieldOpenRate, Names: []string{"open_rate"}},
			{Field: models.FieldClickRate, Names: []string{"click_rate"}},
		},
		models.SourceAnalytics: {
			{Field: models.FieldSessions, Names: []string{"sessions", "sesiones"}},
			{Field: models.FieldUsers, Names: []string{"users", "usuarios", "unique_users"}},
			{Field: models.FieldPageviews, Names: []string{"pageviews", "page_views", "vistas"}},
			{Field: models.FieldBounceRate, Names: []string{"bounce_rate", "tasa_rebote"}},
			{Field: models.FieldConversions, Names: []string{"conversions", "goals", "objetivos"}},
			{Field: models.FieldRevenue, Names: []string{"revenue", "ecommerce_revenue", "ingresos"}},
		},
		models.SourceGeneric: {
			{Field: models.FieldRevenue, Names: []string{"revenue", "sales", "ventas", "ingresos", "total"}, Match: MatchContains},
			{Field: models.FieldSpend, Names: []string{"cost", "spend", "gasto", "inversion"}, Match: MatchContains},
			{Field: models.FieldConversions, Names: []string{"conversions", "purchases", "orders", "pedidos"}, Match: MatchContains},
			{Field: models.FieldImpressions, Names: []string{"impressions", "views", "vistas"}, Match: MatchContains},
			{Field: models.FieldClicks, Names: []string{"clicks", "clics"}, Match: MatchContains},
		},
	}
}

type mappingFile struct {
	SourceTypes map[string][]FieldMapping `yaml:"source_types"`
}

// LoadFile reads a YAML vocabulary and overlays it on the defaults: a source
// type present in the file replaces the built-in list for that type only.
func LoadFile(path string) (Mappings, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading mappings file: %w", err)
	}
	var f mappingFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parsing mappings file: %w", err)
	}

	out := Default()
	for st, fms := range f.SourceTypes {
		key := models.SourceType(strings.ToLower(st))
		switch key {
		case models.SourceAds, models.SourceEcommerce, models.SourceEmail, models.SourceAnalytics, models.SourceGeneric:
		default:
			return nil, fmt.Errorf("mappings file: unknown source type %q", st)
		}
		for i := range fms {
			if fms[i].Field == "" || len(fms[i].Names) == 0 {
				return nil, fmt.Errorf("mappings file: %s entry %d missing field or names", st, i)
			}
			if fms[i].Match == "" {
				fms[i].Match = MatchExact
			}
			if fms[i].Match != MatchExact && fms[i].Match != MatchContains {
				return nil, fmt.Errorf("mappings file: bad match mode %q", fms[i].Match)
			}
		}
		out[key] = fms
	}
	return out, nil
}

// resolve returns the raw column name serving each canonical field. The
// numeric predicate gates containment matches: a keyword hit on a text column
// is skipped and the scan continues.
func (m Mappings) resolve(st models.SourceType, columns []string, numeric func(string) bool) map[models.Field]string {
	out := make(map[models.Field]string)
	for _, fm := range m[st] {
		mode := fm.Match
		if mode == "" {
			mode = MatchExact
		}
		if col, ok := findColumn(columns, fm.Names, mode, numeric); ok {
			if _, taken := out[fm.Field]; !taken {
				out[fm.Field] = col
			}
		}
	}
	return out
}

func findColumn(columns, names []string, mode MatchMode, numeric func(string) bool) (string, bool) {
	for _, col := range columns {
		lc := strings.ToLower(col)
		for _, name := range names {
			ln := strings.ToLower(name)
			if mode == MatchContains {
				if strings.Contains(lc, ln) && (numeric == nil || numeric(col)) {
					return col, true
				}
			} else if lc == ln {
				return col, true
			}
		}
	}
	return "", false
}
