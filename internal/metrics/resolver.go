package metrics

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/ratio/internal/models"
)

// Resolver locates metric values inside raw provider documents. The ratios
// section is searched before the profile section; within a section the walk
// is depth-first in document order and the first alias match wins.
type Resolver struct {
	logger arbor.ILogger
}

// NewResolver creates a metric resolver
func NewResolver(logger arbor.ILogger) *Resolver {
	return &Resolver{logger: logger}
}

// Resolve searches the document for any of the given provider identifiers
// and returns the coerced value together with the identifier that matched.
// A nil value with an empty identifier means no alias was present.
func (r *Resolver) Resolve(doc *models.RawDocument, aliases []string) (*models.Number, string) {
	if doc == nil || len(aliases) == 0 {
		return nil, ""
	}

	aliasSet := make(map[string]struct{}, len(aliases))
	for _, a := range aliases {
		aliasSet[a] = struct{}{}
	}

	// Ratios carry the structured metric entries; profile is the fallback
	for _, section := range []*models.Node{doc.Ratios, doc.Profile} {
		if value, id, found := r.search(section, aliasSet); found {
			return r.coerce(value, id, doc.ISIN), id
		}
	}

	r.logger.Warn().
		Str("isin", doc.ISIN).
		Str("aliases", strings.Join(aliases, ",")).
		Msg("Metric not found in document")
	return nil, ""
}

// search walks a node depth-first. A mapping that carries an "id" entry
// matching the alias set yields its sibling "value" entry; the match only
// counts when that value is present and non-null.
func (r *Resolver) search(node *models.Node, aliasSet map[string]struct{}) (any, string, bool) {
	switch node.Kind() {
	case models.KindMapping:
		if idNode, ok := node.Get("id"); ok {
			if id, ok := idNode.Leaf().(string); ok {
				if _, wanted := aliasSet[id]; wanted {
					if valueNode, ok := node.Get("value"); ok && valueNode.Kind() == models.KindLeaf && valueNode.Leaf() != nil {
						return valueNode.Leaf(), id, true
					}
				}
			}
		}
		for _, e := range node.Entries() {
			if value, id, found := r.search(e.Value, aliasSet); found {
				return value, id, true
			}
		}
	case models.KindSequence:
		for _, item := range node.Items() {
			if value, id, found := r.search(item, aliasSet); found {
				return value, id, true
			}
		}
	}
	return nil, "", false
}

// coerce converts a leaf value to a Number. String values get separator
// normalization before the parse; values that still fail to parse are kept
// as text so formatting can fall back to N/A.
func (r *Resolver) coerce(value any, id string, isin string) *models.Number {
	switch v := value.(type) {
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return models.UnparsedNumber(v.String())
		}
		return models.ParsedNumber(f)
	case string:
		normalized := normalizeSeparators(v)
		f, err := strconv.ParseFloat(normalized, 64)
		if err != nil {
			r.logger.Warn().
				Str("isin", isin).
				Str("id", id).
				Str("value", v).
				Msg("Metric value is not numeric")
			return models.UnparsedNumber(normalized)
		}
		return models.ParsedNumber(f)
	case bool:
		if v {
			return models.ParsedNumber(1)
		}
		return models.ParsedNumber(0)
	default:
		return nil
	}
}

// normalizeSeparators handles both separator conventions: a single comma
// with no decimal point is a decimal comma ("2,50"), anything else treats
// commas as thousands separators ("1,234.56").
func normalizeSeparators(s string) string {
	s = strings.TrimSpace(s)
	if strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
		return strings.Replace(s, ",", ".", 1)
	}
	return strings.ReplaceAll(s, ",", "")
}
