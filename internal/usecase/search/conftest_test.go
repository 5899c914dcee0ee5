package search

import (
	"context"

	"github.com/roxby/tubesearch/internal/index"
	"github.com/roxby/tubesearch/internal/index/videos"
	"github.com/roxby/tubesearch/internal/query"
	"github.com/roxby/tubesearch/internal/response"
)

type catalogCall struct {
	tube, text string
	filters    query.Filters
	opts       query.Options
}

type mockCatalog struct {
	page  index.Page[index.Item[videos.Video]]
	err   error
	calls []catalogCall
}

func (m *mockCatalog) GetMany(
	_ context.Context, tube, text string, f query.Filters, opts query.Options,
) response.Response[index.Page[index.Item[videos.Video]]] {
	m.calls = append(m.calls, catalogCall{tube: tube, text: text, filters: f, opts: opts})
	if m.err != nil {
		return response.Fail[index.Page[index.Item[videos.Video]]](m.err)
	}
	return response.OK(m.page)
}

type mockRecorder struct {
	recorded []string
	err      error
}

func (m *mockRecorder) Upsert(_ context.Context, tube, q string, increment bool) response.Response[int] {
	if m.err != nil {
		return response.Fail[int](m.err)
	}
	if increment {
		m.recorded = append(m.recorded, tube+"/"+q)
	}
	return response.OK(1)
}

type mockBlocklist struct {
	terms map[string]bool
	err   error
}

func (m *mockBlocklist) ExistsExact(_ context.Context, term string) response.Response[bool] {
	if m.err != nil {
		return response.Fail[bool](m.err)
	}
	return response.OK(m.terms[term])
}

type mockTranslator struct {
	out   string
	err   error
	calls int
}

func (m *mockTranslator) Translate(_ context.Context, _, _ string) (string, error) {
	m.calls++
	return m.out, m.err
}

func pageOf(ids ...int64) index.Page[index.Item[videos.Video]] {
	p := index.Page[index.Item[videos.Video]]{Total: int64(len(ids))}
	for _, id := range ids {
		p.Items = append(p.Items, index.Item[videos.Video]{Doc: videos.Video{VideoID: id, Tube: "t1"}})
	}
	return p
}
