package engine

import (
	"errors"
	"strings"
	"testing"
)

func TestMappingBuilder_Simple(t *testing.T) {
	spec := NewMapping().
		Keyword("tube").
		Integer("duration").
		Text("title", WithSubfield("english", "english")).
		MustBuild()

	if err := spec.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(spec.Mapping.Properties) != 3 {
		t.Fatalf("fields count = %d, want 3", len(spec.Mapping.Properties))
	}
	if got := spec.Mapping.Properties["tube"].Type; got != FieldKeyword {
		t.Errorf("tube type = %q, want keyword", got)
	}
	if !spec.Mapping.HasSubfield("title", "english") {
		t.Error("expected title.english sub-field")
	}
	if spec.Mapping.HasSubfield("tube", "english") {
		t.Error("keyword field must not report a text sub-field")
	}
}

func TestMappingBuilder_Analyzers(t *testing.T) {
	spec := NewMapping().
		Stemmer("english_stemmer", "english").
		Analyzer("sb_analyzer", "whitespace", "lowercase", "english_stemmer").
		Text("term", WithAnalyzer("sb_analyzer"), WithKeywordSubfield("keyword")).
		MustBuild()

	a, ok := spec.Settings.Analyzers["sb_analyzer"]
	if !ok {
		t.Fatal("expected sb_analyzer in settings")
	}
	if a.Tokenizer != "whitespace" || len(a.Filters) != 2 {
		t.Errorf("analyzer = %+v", a)
	}
	f, ok := spec.Mapping.Field("term.keyword")
	if !ok || f.Type != FieldKeyword {
		t.Errorf("term.keyword = %+v, %v", f, ok)
	}
}

func TestMappingBuilder_Errors(t *testing.T) {
	tests := []struct {
		name    string
		build   func() (IndexSpec, error)
		wantErr string
	}{
		{
			name:    "empty mapping",
			build:   func() (IndexSpec, error) { return NewMapping().Build() },
			wantErr: "at least one field",
		},
		{
			name:    "duplicate field",
			build:   func() (IndexSpec, error) { return NewMapping().Keyword("a").Integer("a").Build() },
			wantErr: `duplicate field "a"`,
		},
		{
			name:    "empty name",
			build:   func() (IndexSpec, error) { return NewMapping().Keyword("").Build() },
			wantErr: "field name is required",
		},
		{
			name: "undeclared analyzer",
			build: func() (IndexSpec, error) {
				return NewMapping().Text("title", WithAnalyzer("nope")).Build()
			},
			wantErr: `analyzer "nope" is not declared`,
		},
		{
			name: "analyzer without tokenizer",
			build: func() (IndexSpec, error) {
				return NewMapping().Analyzer("x", "").Text("t", WithAnalyzer("x")).Build()
			},
			wantErr: "tokenizer is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.build()
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, ErrInvalidRequest) {
				t.Errorf("error %v does not wrap ErrInvalidRequest", err)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want substring %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestIndexSpec_String(t *testing.T) {
	spec := NewMapping().
		Keyword("tube").
		Text("title", WithSubfield("english", "english")).
		MustBuild()

	got := spec.String()
	want := "MAPPING title:text+english tube:keyword"
	if got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestIndexSpec_Body(t *testing.T) {
	spec := NewMapping().
		Analyzer("roxby_analyzer", "standard", "lowercase", "porter_stem").
		Date("post_date", "yyyy-MM-dd HH:mm:ss").
		MustBuild()

	body, err := spec.Body()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s := string(body)
	for _, want := range []string{
		`"mappings":{"properties":{"post_date":{"type":"date","format":"yyyy-MM-dd HH:mm:ss"}}}`,
		`"analyzer":{"roxby_analyzer":{"type":"custom","tokenizer":"standard","filter":["lowercase","porter_stem"]}}`,
	} {
		if !strings.Contains(s, want) {
			t.Errorf("body %s\nmissing %s", s, want)
		}
	}
}
