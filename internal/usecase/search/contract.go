package search

import (
	"context"

	"github.com/roxby/tubesearch/internal/index"
	"github.com/roxby/tubesearch/internal/index/videos"
	"github.com/roxby/tubesearch/internal/query"
	"github.com/roxby/tubesearch/internal/response"
)

// Catalog searches the video index.
type Catalog interface {
	GetMany(
		ctx context.Context, tube, text string, f query.Filters, opts query.Options,
	) response.Response[index.Page[index.Item[videos.Video]]]
}

// Recorder keeps the per-tube search statistics.
type Recorder interface {
	Upsert(ctx context.Context, tube, q string, increment bool) response.Response[int]
}

// Blocklist tells whether a query must never be recorded.
type Blocklist interface {
	ExistsExact(ctx context.Context, term string) response.Response[bool]
}

// Translator turns a query into English.
type Translator interface {
	Translate(ctx context.Context, text, target string) (string, error)
}
