// Package extract turns one page's document into records using a
// declarative field specification.
package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog/log"

	"github.com/page-harvest/harvest/pkg/models"
)

// AttrHTML is the FieldRule attribute value that captures an element's
// sanitized inner HTML instead of its text
const AttrHTML = "html"

// WarningKind classifies a non-fatal extraction outcome
type WarningKind string

const (
	// WarnPartialRecord means an optional field matched nothing; the record
	// is still emitted with an empty string in that position
	WarnPartialRecord WarningKind = "partial_record"
	// WarnRequiredMissing means a required field matched nothing; the whole
	// record is dropped
	WarnRequiredMissing WarningKind = "required_field_missing"
)

// Warning surfaces a missing field to the caller without stopping
// page-level extraction
type Warning struct {
	Row   int
	Field string
	Kind  WarningKind
}

// Extractor resolves field rules against row-element subtrees. Extraction
// is stateless per call; an Extractor must not be shared across concurrent
// runs because the transform runtime is single-threaded.
type Extractor struct {
	sanitizer *bluemonday.Policy
	vm        *transformVM
}

// New creates an Extractor
func New() *Extractor {
	return &Extractor{
		sanitizer: bluemonday.UGCPolicy(),
		vm:        newTransformVM(),
	}
}

// Extract produces one record per row-element matched by the spec's row
// selector. A field matching zero elements yields an empty string unless it
// is required, in which case the record is dropped; either way a Warning is
// returned and extraction continues. The first match in document order wins
// when a selector matches more than one element.
func (e *Extractor) Extract(doc *goquery.Document, spec models.FieldSpec) ([]models.Record, []Warning) {
	var records []models.Record
	var warnings []Warning

	doc.Find(spec.RowSelector).Each(func(row int, sel *goquery.Selection) {
		rec := make(models.Record, 0, len(spec.Fields))
		dropped := false

		for _, rule := range spec.Fields {
			match := sel.Find(rule.Selector).First()
			if match.Length() == 0 {
				if rule.Required {
					warnings = append(warnings, Warning{Row: row, Field: rule.Name, Kind: WarnRequiredMissing})
					dropped = true
					break
				}
				warnings = append(warnings, Warning{Row: row, Field: rule.Name, Kind: WarnPartialRecord})
				rec = append(rec, "")
				continue
			}
			rec = append(rec, e.fieldValue(match, rule))
		}

		if !dropped {
			records = append(records, rec)
		}
	})

	return records, warnings
}

func (e *Extractor) fieldValue(sel *goquery.Selection, rule models.FieldRule) string {
	var value string
	switch rule.Attr {
	case "":
		value = strings.TrimSpace(sel.Text())
	case AttrHTML:
		raw, err := sel.Html()
		if err == nil {
			value = strings.TrimSpace(e.sanitizer.Sanitize(raw))
		}
	default:
		value, _ = sel.Attr(rule.Attr)
		value = strings.TrimSpace(value)
	}

	if rule.Transform != "" {
		out, err := e.vm.apply(rule.Transform, value)
		if err != nil {
			// Keep the raw value rather than losing the field
			log.Warn().
				Str("field", rule.Name).
				Err(err).
				Msg("Field transform failed, keeping raw value")
			return value
		}
		value = out
	}
	return value
}
