// Package search runs catalogue searches with optional query translation and statistics.
package search

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/roxby/tubesearch/internal/index"
	"github.com/roxby/tubesearch/internal/index/videos"
	"github.com/roxby/tubesearch/internal/query"
	"github.com/roxby/tubesearch/internal/response"
	"github.com/roxby/tubesearch/internal/translate"
)

// Request is one catalogue search.
type Request struct {
	Tube    string
	Text    string
	Lang    string
	Filters query.Filters
	Options query.Options
	// Record counts the query in the search statistics when it found anything.
	Record  bool
}

// Result is a page of videos plus the text that was actually searched.
type Result struct {
	Query      string                               `json:"query"`
	Translated bool                                 `json:"translated"`
	Page       index.Page[index.Item[videos.Video]] `json:"page"`
}

// Service handles video searches.
type Service struct {
	catalog    Catalog
	recorder   Recorder
	blocklist  Blocklist
	translator Translator
	size       int
	logger     *zap.Logger
}

// New creates a search service. Translation and recording are off until configured.
func New(catalog Catalog) *Service {
	return &Service{catalog: catalog, logger: zap.NewNop()}
}

// WithTranslator translates non-English queries before searching.
func (s *Service) WithTranslator(t Translator) *Service {
	s.translator = t
	return s
}

// WithRecorder records successful queries; b, when non-nil, vetoes blacklisted ones.
func (s *Service) WithRecorder(r Recorder, b Blocklist) *Service {
	s.recorder = r
	s.blocklist = b
	return s
}

// WithDefaultSize sets the page size used when a request leaves it unset.
func (s *Service) WithDefaultSize(n int) *Service {
	if n > 0 {
		s.size = n
	}
	return s
}

// WithLogger sets the logger.
func (s *Service) WithLogger(l *zap.Logger) *Service {
	if l != nil {
		s.logger = l
	}
	return s
}

// Search runs req against the catalogue.
func (s *Service) Search(ctx context.Context, req Request) response.Response[Result] {
	if strings.TrimSpace(req.Tube) == "" {
		return response.Fail[Result](fmt.Errorf("search: tube is required: %w", index.ErrInvalidInput))
	}

	text, translated := s.queryText(ctx, req.Text, req.Lang)

	opts := req.Options
	if opts.Size == 0 && s.size > 0 {
		opts.Size = s.size
	}

	page := s.catalog.GetMany(ctx, req.Tube, text, req.Filters, opts)
	if !page.Success {
		return response.Fail[Result](page.Err())
	}
	p, _ := page.Value()

	if req.Record && text != "" && p.Total > 0 {
		s.record(ctx, req.Tube, text)
	}

	return response.OK(Result{Query: text, Translated: translated, Page: p})
}

// queryText returns the text to search and whether it was translated.
// A failed translation degrades to the original text.
func (s *Service) queryText(ctx context.Context, text, lang string) (string, bool) {
	text = strings.TrimSpace(text)
	if text == "" || s.translator == nil || translate.IsEnglish(lang) {
		return text, false
	}

	out, err := s.translator.Translate(ctx, text, translate.English)
	if err != nil {
		s.logger.Warn("Query translation failed, searching original text",
			zap.String("lang", lang),
			zap.Error(err),
		)
		return text, false
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return text, false
	}
	return out, !strings.EqualFold(out, text)
}

func (s *Service) record(ctx context.Context, tube, text string) {
	if s.recorder == nil {
		return
	}
	if s.blocklist != nil {
		blocked := s.blocklist.ExistsExact(ctx, text)
		if !blocked.Success {
			s.logger.Warn("Blacklist probe failed, query not recorded", zap.String("error", blocked.Error))
			return
		}
		if v, _ := blocked.Value(); v {
			return
		}
	}
	if r := s.recorder.Upsert(ctx, tube, text, true); !r.Success {
		s.logger.Warn("Failed to record search", zap.String("tube", tube), zap.String("error", r.Error))
	}
}
