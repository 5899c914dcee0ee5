package embedded

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/roxby/tubesearch/internal/engine"
)

// translator turns the engine query tree into bleve queries for one index mapping.
type translator struct {
	m engine.Mapping
}

func (t translator) translate(q engine.Query) (query.Query, error) {
	switch n := q.(type) {
	case nil:
		return bleve.NewMatchAllQuery(), nil
	case engine.MatchAllQuery:
		return bleve.NewMatchAllQuery(), nil
	case engine.BoolQuery:
		return t.boolQuery(n)
	case *engine.BoolQuery:
		return t.boolQuery(*n)
	case engine.MultiMatchQuery:
		return t.multiMatch(n)
	case engine.MatchQuery:
		return t.match(n)
	case engine.TermQuery:
		return t.term(n)
	case engine.RangeQuery:
		return t.rangeQuery(n)
	case engine.FuzzyQuery:
		return t.fuzzy(n), nil
	}
	return nil, fmt.Errorf("query node %T: %w", q, engine.ErrUnsupported)
}

func (t translator) all(qs []engine.Query) ([]query.Query, error) {
	out := make([]query.Query, 0, len(qs))
	for _, q := range qs {
		bq, err := t.translate(q)
		if err != nil {
			return nil, err
		}
		out = append(out, bq)
	}
	return out, nil
}

// boolQuery folds filter clauses into must; they only narrow the result set.
func (t translator) boolQuery(q engine.BoolQuery) (query.Query, error) {
	must, err := t.all(append(append([]engine.Query{}, q.Must...), q.Filter...))
	if err != nil {
		return nil, err
	}
	should, err := t.all(q.Should)
	if err != nil {
		return nil, err
	}
	mustNot, err := t.all(q.MustNot)
	if err != nil {
		return nil, err
	}
	if len(must) == 0 && len(should) == 0 {
		must = []query.Query{bleve.NewMatchAllQuery()}
	}

	bq := query.NewBooleanQuery(must, should, mustNot)
	if len(should) > 0 {
		minShould := 0
		if len(must) == 0 {
			minShould = 1
		}
		if q.MinimumShouldMatch != "" {
			minShould = minimumShouldMatch(q.MinimumShouldMatch, len(should))
		}
		bq.SetMinShould(float64(minShould))
	}
	return bq, nil
}

// multiMatch scores the best of several weighted fields. A "NN%" threshold is
// applied per field as a minimum count of matching query tokens.
func (t translator) multiMatch(q engine.MultiMatchQuery) (query.Query, error) {
	if len(q.Fields) == 0 {
		return nil, fmt.Errorf("multi_match without fields: %w", engine.ErrInvalidRequest)
	}
	tokens := strings.Fields(q.Query)
	perField := make([]query.Query, 0, len(q.Fields))
	for _, f := range q.Fields {
		analyzer := t.analyzer(f.Field)
		var fq query.Query
		if q.MinimumShouldMatch == "" || len(tokens) < 2 {
			mq := bleve.NewMatchQuery(q.Query)
			mq.SetField(f.Field)
			mq.Analyzer = analyzer
			fq = mq
		} else {
			parts := make([]query.Query, 0, len(tokens))
			for _, tok := range tokens {
				mq := bleve.NewMatchQuery(tok)
				mq.SetField(f.Field)
				mq.Analyzer = analyzer
				parts = append(parts, mq)
			}
			dq := bleve.NewDisjunctionQuery(parts...)
			dq.SetMin(float64(minimumShouldMatch(q.MinimumShouldMatch, len(parts))))
			fq = dq
		}
		if f.Boost > 0 {
			if b, ok := fq.(query.BoostableQuery); ok {
				b.SetBoost(f.Boost)
			}
		}
		perField = append(perField, fq)
	}
	if len(perField) == 1 {
		return perField[0], nil
	}
	return bleve.NewDisjunctionQuery(perField...), nil
}

func (t translator) match(q engine.MatchQuery) (query.Query, error) {
	mq := bleve.NewMatchQuery(q.Query)
	mq.SetField(q.Field)
	mq.Analyzer = t.analyzer(q.Field)
	if strings.EqualFold(q.Operator, "and") {
		mq.SetOperator(query.MatchQueryOperatorAnd)
	}
	if q.Fuzziness != "" {
		mq.SetFuzziness(fuzziness(q.Fuzziness, q.Query))
	}
	return mq, nil
}

func (t translator) term(q engine.TermQuery) (query.Query, error) {
	f, _ := t.m.Field(q.Field)
	var out query.Query
	switch f.Type {
	case engine.FieldBoolean:
		b, ok := toBool(q.Value)
		if !ok {
			return nil, fmt.Errorf("term %s: %v is not a boolean: %w", q.Field, q.Value, engine.ErrInvalidRequest)
		}
		bq := bleve.NewBoolFieldQuery(b)
		bq.SetField(q.Field)
		out = bq
	case engine.FieldInteger, engine.FieldLong, engine.FieldFloat, engine.FieldDate:
		conv, ok := convert(f.Type, q.Value)
		if !ok {
			return nil, fmt.Errorf("term %s: %v does not fit %s: %w", q.Field, q.Value, f.Type, engine.ErrInvalidRequest)
		}
		n := conv.(float64)
		out = numericRange(q.Field, &n, &n, true, true)
	default:
		tq := bleve.NewTermQuery(fmt.Sprint(q.Value))
		tq.SetField(q.Field)
		out = tq
	}
	if q.Boost > 0 {
		if b, ok := out.(query.BoostableQuery); ok {
			b.SetBoost(q.Boost)
		}
	}
	return out, nil
}

func (t translator) rangeQuery(q engine.RangeQuery) (query.Query, error) {
	f, _ := t.m.Field(q.Field)
	typ := f.Type
	if typ == "" || typ == engine.FieldText || typ == engine.FieldKeyword || typ == engine.FieldBoolean {
		return nil, fmt.Errorf("range on %s field %q: %w", typ, q.Field, engine.ErrUnsupported)
	}
	bound := func(v any) (*float64, error) {
		if v == nil {
			return nil, nil
		}
		conv, ok := convert(typ, v)
		if !ok {
			return nil, fmt.Errorf("range %s: bound %v does not fit %s: %w", q.Field, v, typ, engine.ErrInvalidRequest)
		}
		n := conv.(float64)
		return &n, nil
	}

	lo, loInc := q.GTE, true
	if lo == nil {
		lo, loInc = q.GT, false
	}
	hi, hiInc := q.LTE, true
	if hi == nil {
		hi, hiInc = q.LT, false
	}
	minV, err := bound(lo)
	if err != nil {
		return nil, err
	}
	maxV, err := bound(hi)
	if err != nil {
		return nil, err
	}
	return numericRange(q.Field, minV, maxV, loInc, hiInc), nil
}

func (t translator) fuzzy(q engine.FuzzyQuery) query.Query {
	value := strings.ToLower(q.Value)
	fq := bleve.NewFuzzyQuery(value)
	fq.SetField(q.Field)
	fq.SetFuzziness(fuzziness(q.Fuzziness, value))
	return fq
}

func (t translator) analyzer(field string) string {
	f, ok := t.m.Field(field)
	if !ok {
		return ""
	}
	return analyzerName(f)
}

func numericRange(field string, minV, maxV *float64, minInc, maxInc bool) query.Query {
	nq := bleve.NewNumericRangeInclusiveQuery(minV, maxV, &minInc, &maxInc)
	nq.SetField(field)
	return nq
}

// minimumShouldMatch resolves "N", "-N", "NN%" or "-NN%" against the clause count,
// rounding percentages down and always requiring at least one clause.
func minimumShouldMatch(spec string, clauses int) int {
	spec = strings.TrimSpace(spec)
	var n int
	if pct, ok := strings.CutSuffix(spec, "%"); ok {
		p, err := strconv.Atoi(pct)
		if err != nil {
			return 1
		}
		n = int(math.Floor(float64(clauses) * float64(abs(p)) / 100))
		if p < 0 {
			n = clauses - n
		}
	} else {
		v, err := strconv.Atoi(spec)
		if err != nil {
			return 1
		}
		n = v
		if v < 0 {
			n = clauses + v
		}
	}
	return min(max(n, 1), clauses)
}

// fuzziness maps "AUTO" to the edit distance used for a term of this length.
func fuzziness(spec, term string) int {
	if n, err := strconv.Atoi(spec); err == nil {
		return min(max(n, 0), 2)
	}
	switch l := utf8.RuneCountInString(term); {
	case l < 3:
		return 0
	case l <= 5:
		return 1
	default:
		return 2
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
