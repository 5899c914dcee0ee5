package embedded

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/custom"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/simple"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	"github.com/blevesearch/bleve/v2/analysis/token/porter"
	"github.com/blevesearch/bleve/v2/analysis/tokenizer/single"
	unicodetok "github.com/blevesearch/bleve/v2/analysis/tokenizer/unicode"
	"github.com/blevesearch/bleve/v2/analysis/tokenizer/whitespace"
	"github.com/blevesearch/bleve/v2/mapping"

	"github.com/roxby/tubesearch/internal/engine"
)

// whitespaceAnalyzer is registered per index; bleve ships the tokenizer but no analyzer of that name.
const whitespaceAnalyzer = "whitespace"

var builtinAnalyzers = map[string]string{
	"standard": standard.Name,
	"simple":   simple.Name,
	"keyword":  keyword.Name,
	"english":  en.AnalyzerName,
}

var tokenizers = map[string]string{
	"standard":   unicodetok.Name,
	"whitespace": whitespace.Name,
	"keyword":    single.Name,
}

var builtinFilters = map[string]string{
	"lowercase":   lowercase.Name,
	"porter_stem": porter.Name,
}

// buildMapping translates a declared index spec into a static bleve mapping.
// Only declared fields are indexed; sources are kept outside bleve.
func buildMapping(spec engine.IndexSpec) (*mapping.IndexMappingImpl, error) {
	im := bleve.NewIndexMapping()
	im.DefaultAnalyzer = standard.Name
	im.IndexDynamic = false
	im.StoreDynamic = false
	im.DocValuesDynamic = false

	if err := im.AddCustomAnalyzer(whitespaceAnalyzer, map[string]interface{}{
		"type":      custom.Name,
		"tokenizer": whitespace.Name,
	}); err != nil {
		return nil, fmt.Errorf("register whitespace analyzer: %w", err)
	}

	names := make([]string, 0, len(spec.Settings.Analyzers))
	for name := range spec.Settings.Analyzers {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		cfg, err := customAnalyzer(spec.Settings, spec.Settings.Analyzers[name])
		if err != nil {
			return nil, fmt.Errorf("analyzer %q: %w", name, err)
		}
		if err := im.AddCustomAnalyzer(name, cfg); err != nil {
			return nil, fmt.Errorf("register analyzer %q: %w", name, err)
		}
	}

	dm := bleve.NewDocumentStaticMapping()
	for _, name := range spec.Mapping.Names() {
		f := spec.Mapping.Properties[name]
		fms := []*mapping.FieldMapping{fieldMapping("", f)}
		subs := make([]string, 0, len(f.Fields))
		for sub := range f.Fields {
			subs = append(subs, sub)
		}
		sort.Strings(subs)
		for _, sub := range subs {
			fms = append(fms, fieldMapping(name+"."+sub, f.Fields[sub]))
		}
		dm.AddFieldMappingsAt(name, fms...)
	}
	im.DefaultMapping = dm
	return im, nil
}

func customAnalyzer(settings engine.Settings, a engine.Analyzer) (map[string]interface{}, error) {
	tok, ok := tokenizers[a.Tokenizer]
	if !ok {
		return nil, fmt.Errorf("tokenizer %q: %w", a.Tokenizer, engine.ErrUnsupported)
	}
	filters := make([]string, 0, len(a.Filters))
	for _, name := range a.Filters {
		if f, ok := builtinFilters[name]; ok {
			filters = append(filters, f)
			continue
		}
		tf, ok := settings.TokenFilters[name]
		if !ok {
			return nil, fmt.Errorf("token filter %q: %w", name, engine.ErrUnsupported)
		}
		switch {
		case tf.Type == "lowercase":
			filters = append(filters, lowercase.Name)
		case tf.Type == "stemmer" && (tf.Language == "english" || tf.Language == "porter"),
			tf.Type == "porter_stem":
			filters = append(filters, porter.Name)
		default:
			return nil, fmt.Errorf("token filter %q of type %q: %w", name, tf.Type, engine.ErrUnsupported)
		}
	}
	return map[string]interface{}{
		"type":          custom.Name,
		"tokenizer":     tok,
		"token_filters": filters,
	}, nil
}

func fieldMapping(name string, f engine.Field) *mapping.FieldMapping {
	var fm *mapping.FieldMapping
	switch f.Type {
	case engine.FieldText:
		fm = bleve.NewTextFieldMapping()
		fm.Analyzer = analyzerName(f)
	case engine.FieldKeyword:
		fm = bleve.NewTextFieldMapping()
		fm.Analyzer = keyword.Name
		fm.IncludeTermVectors = false
	case engine.FieldBoolean:
		fm = bleve.NewBooleanFieldMapping()
	default:
		// numbers and dates; dates are indexed as unix seconds
		fm = bleve.NewNumericFieldMapping()
	}
	fm.Name = name
	fm.Store = false
	fm.IncludeInAll = false
	fm.DocValues = true
	return fm
}

// analyzerName resolves the bleve analyzer registered for a declared field.
func analyzerName(f engine.Field) string {
	switch {
	case f.Type == engine.FieldKeyword:
		return keyword.Name
	case f.Analyzer == "":
		return standard.Name
	case f.Analyzer == whitespaceAnalyzer:
		return whitespaceAnalyzer
	}
	if b, ok := builtinAnalyzers[f.Analyzer]; ok {
		return b
	}
	return f.Analyzer
}

// indexable converts a stored source into the typed document bleve indexes.
// Values that do not fit the declared type are skipped rather than rejected.
func indexable(m engine.Mapping, doc engine.Document) map[string]interface{} {
	out := make(map[string]interface{}, len(m.Properties))
	for name, f := range m.Properties {
		v, ok := doc[name]
		if !ok || v == nil {
			continue
		}
		if conv, ok := convert(f.Type, v); ok {
			out[name] = conv
		}
	}
	return out
}

func convert(t engine.FieldType, v any) (any, bool) {
	if list, ok := v.([]any); ok {
		vals := make([]any, 0, len(list))
		for _, item := range list {
			if c, ok := convert(t, item); ok {
				vals = append(vals, c)
			}
		}
		return vals, len(vals) > 0
	}
	switch t {
	case engine.FieldText, engine.FieldKeyword:
		return fmt.Sprint(v), true
	case engine.FieldBoolean:
		b, ok := toBool(v)
		return b, ok
	case engine.FieldDate:
		ts, ok := toTime(v)
		if !ok {
			return nil, false
		}
		return float64(ts.Unix()), true
	default:
		n, ok := toFloat(v)
		return n, ok
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	}
	return 0, false
}

func toBool(v any) (bool, bool) {
	switch b := v.(type) {
	case bool:
		return b, true
	case string:
		p, err := strconv.ParseBool(b)
		return p, err == nil
	}
	return false, false
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// toTime accepts the engine date formats, time values and unix seconds.
// The literal "now" resolves to the current instant.
func toTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case string:
		if strings.EqualFold(t, engine.Now) {
			return time.Now(), true
		}
		for _, layout := range dateLayouts {
			if ts, err := time.ParseInLocation(layout, t, time.UTC); err == nil {
				return ts, true
			}
		}
		return time.Time{}, false
	}
	if f, ok := toFloat(v); ok {
		return time.Unix(int64(f), 0).UTC(), true
	}
	return time.Time{}, false
}
