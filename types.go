package tubesearch

import (
	"github.com/roxby/tubesearch/internal/bulk"
	"github.com/roxby/tubesearch/internal/index"
	"github.com/roxby/tubesearch/internal/index/blacklist"
	"github.com/roxby/tubesearch/internal/index/searches"
	"github.com/roxby/tubesearch/internal/index/videos"
	"github.com/roxby/tubesearch/internal/query"
	"github.com/roxby/tubesearch/internal/response"
	"github.com/roxby/tubesearch/internal/translate"
	healthuc "github.com/roxby/tubesearch/internal/usecase/health"
	searchuc "github.com/roxby/tubesearch/internal/usecase/search"
)

// Response is the success/error envelope every operation answers with.
type Response[T any] = response.Response[T]

// Page is one page of search hits.
type Page[T any] = index.Page[T]

// Item is one stored document with its id and score.
type Item[T any] = index.Item[T]

// Entity handles.
type (
	BlacklistIndex = blacklist.Index
	SearchesIndex  = searches.Index
	VideosIndex    = videos.Index
)

// Documents.
type (
	BlacklistEntry = blacklist.Entry
	Search         = searches.Search
	Video          = videos.Video
	VideoPatch     = videos.Patch
)

// Query shaping.
type (
	Filters = query.Filters
	Options = query.Options
	Sort    = query.Sort
)

// Catalogue search.
type (
	SearchRequest = searchuc.Request
	SearchResult  = searchuc.Result
	HealthReport  = healthuc.Report
)

// Translator translates query text into the target language.
type Translator = translate.Translator

// BulkPolicy decides how item-level bulk failures surface.
type BulkPolicy = bulk.Policy

// Bulk partial failure policies.
const (
	BulkCount  = bulk.PolicyCount
	BulkReport = bulk.PolicyReport
	BulkStrict = bulk.PolicyStrict
)
