// Package videos is the per-tube video catalog: weighted full-text search,
// bulk ingestion and soft deletion.
package videos

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/roxby/tubesearch/internal/bulk"
	"github.com/roxby/tubesearch/internal/docid"
	"github.com/roxby/tubesearch/internal/engine"
	"github.com/roxby/tubesearch/internal/index"
	"github.com/roxby/tubesearch/internal/query"
	"github.com/roxby/tubesearch/internal/response"
)

// Index, analyzer and field names.
const (
	IndexName    = "videos"
	AnalyzerName = "roxby_analyzer"

	FieldVideoID     = "video_id"
	FieldTube        = query.FieldTube
	FieldTitle       = "title"
	FieldDescription = "description"
	FieldModels      = "models"
	FieldCats        = "cats"
	FieldTags        = "tags"
	FieldDuration    = query.FieldDuration
	FieldRating      = "rating"
	FieldLikes       = "likes"
	FieldDislikes    = "dislikes"
	FieldViewed      = "video_viewed"
	FieldComments    = "comments"
	FieldFavorites   = "favorites"
	FieldIsHD        = query.FieldIsHD
	FieldDeleted     = query.FieldDeleted
	FieldPostDate    = query.FieldPostDate
)

// Video is one catalog entry. VideoID is unique within its tube.
type Video struct {
	VideoID     int64    `json:"video_id"`
	Tube        string   `json:"tube"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Models      []string `json:"models,omitempty"`
	Cats        []string `json:"cats,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Duration    int      `json:"duration"`
	Rating      int      `json:"rating"`
	Likes       int64    `json:"likes"`
	Dislikes    int64    `json:"dislikes"`
	Viewed      int64    `json:"video_viewed"`
	Comments    int64    `json:"comments"`
	Favorites   int64    `json:"favorites"`
	IsHD        bool     `json:"is_hd"`
	Deleted     bool     `json:"deleted"`
	PostDate    string   `json:"post_date,omitempty"`
}

// Patch is a partial update of one video.
type Patch struct {
	Tube    string
	VideoID int64
	Fields  engine.Document
}

// Definition declares the videos index. Every text field carries an english
// sub-field so stemmed and unstemmed matches both score.
func Definition() index.Definition {
	english := engine.WithSubfield("english", "english")
	analyzed := engine.WithAnalyzer(AnalyzerName)
	return index.Definition{
		Name: IndexName,
		Spec: engine.NewMapping().
			Analyzer(AnalyzerName, "standard", "lowercase", "porter_stem").
			Integer(FieldVideoID).
			Keyword(FieldTube).
			Text(FieldTitle, analyzed, english).
			Text(FieldDescription, analyzed, english).
			Text(FieldModels, analyzed, english).
			Text(FieldCats, analyzed, english).
			Text(FieldTags, analyzed, english).
			Integer(FieldDuration).
			Integer(FieldRating).
			Integer(FieldLikes).
			Integer(FieldDislikes).
			Integer(FieldViewed).
			Integer(FieldComments).
			Integer(FieldFavorites).
			Boolean(FieldIsHD).
			Boolean(FieldDeleted).
			Date(FieldPostDate, "yyyy-MM-dd HH:mm:ss").
			MustBuild(),
	}
}

// DefaultFields are the searched fields and their boosts when the caller gives none.
func DefaultFields() []engine.FieldBoost {
	return []engine.FieldBoost{
		{Field: FieldTitle, Boost: 3},
		{Field: FieldCats, Boost: 10},
		{Field: FieldTags, Boost: 1},
		{Field: FieldModels, Boost: 1},
	}
}

// Sorts maps every supported sort to its clauses.
func Sorts() query.SortTable {
	return query.SortTable{
		query.SortIDAsc:     {engine.FieldSort(FieldVideoID, engine.Asc)},
		query.SortIDDesc:    {engine.FieldSort(FieldVideoID, engine.Desc)},
		query.SortRecent:    {engine.FieldSort(FieldPostDate, engine.Desc)},
		query.SortRating:    {engine.ScriptSort(RatingScript(), engine.Desc), engine.FieldSort(FieldPostDate, engine.Desc)},
		query.SortViews:     {engine.FieldSort(FieldViewed, engine.Desc)},
		query.SortComments:  {engine.FieldSort(FieldComments, engine.Desc)},
		query.SortFavorites: {engine.FieldSort(FieldFavorites, engine.Desc)},
	}
}

// Index is the videos entity.
type Index struct {
	*index.Core
	builder *query.Builder
}

// New creates the videos entity on gw.
func New(gw engine.Gateway, opts ...index.Option) *Index {
	return &Index{
		Core:    index.NewCore(gw, Definition(), opts...),
		builder: newBuilder(),
	}
}

// WithQueryOptions rebuilds the query builder with opts applied on top of the
// defaults, e.g. query.WithMinimumShouldMatch.
func (ix *Index) WithQueryOptions(opts ...query.BuilderOption) *Index {
	ix.builder = newBuilder(opts...)
	return ix
}

func newBuilder(opts ...query.BuilderOption) *query.Builder {
	base := []query.BuilderOption{
		query.WithSorts(Sorts()),
		query.WithResolver(Definition().Spec.Mapping),
	}
	return query.New(DefaultFields(), append(base, opts...)...)
}

// ID is the document id of a video within a tube.
func ID(tube string, videoID int64) string {
	return docid.Derive(tube, strconv.FormatInt(videoID, 10))
}

func validKey(tube string, videoID int64) error {
	if tube == "" || videoID <= 0 {
		return fmt.Errorf("video %s/%d: tube and a positive video id are required: %w", tube, videoID, index.ErrInvalidInput)
	}
	return nil
}

// AddOne stores v, replacing any previous version. The result is 1 when it was new.
func (ix *Index) AddOne(ctx context.Context, v Video) response.Response[int] {
	if err := validKey(v.Tube, v.VideoID); err != nil {
		return response.Fail[int](err)
	}
	doc, err := index.Encode(v)
	if err != nil {
		return response.Fail[int](err)
	}
	return ix.Put(ctx, ID(v.Tube, v.VideoID), doc)
}

// AddMany bulk-stores vs and returns how many were new. Replaced videos do not count.
// Any invalid video rejects the whole batch before a round trip.
func (ix *Index) AddMany(ctx context.Context, vs []Video) response.Response[int] {
	actions := make([]engine.BulkAction, 0, len(vs))
	for i, v := range vs {
		if err := validKey(v.Tube, v.VideoID); err != nil {
			return response.Fail[int](fmt.Errorf("video %d: %w", i, err))
		}
		doc, err := index.Encode(v)
		if err != nil {
			return response.Fail[int](fmt.Errorf("video %d: %w", i, err))
		}
		actions = append(actions, engine.BulkAction{
			Op:    engine.BulkIndex,
			Index: ix.Name(),
			ID:    ID(v.Tube, v.VideoID),
			Doc:   doc,
		})
	}
	return ix.Bulk(ctx, bulk.KindIndex, actions)
}

// GetByID returns one video, or an empty envelope when it is not stored.
func (ix *Index) GetByID(ctx context.Context, tube string, videoID int64) response.Response[index.Item[Video]] {
	return index.Get[Video](ctx, ix.Core, ID(tube, videoID))
}

// GetMany searches the tube's catalog for text. Soft-deleted videos never match.
// Caller field overrides naming fields the index does not map are ignored.
func (ix *Index) GetMany(
	ctx context.Context, tube, text string, f query.Filters, opts query.Options,
) response.Response[index.Page[index.Item[Video]]] {
	m := ix.Mapping(ctx)
	if tube != "" {
		f.Tube = tube
	}
	opts.Fields = knownFields(m, opts.Fields)
	req := ix.builder.ForMapping(m).Build(ix.Name(), text, f, opts)
	ix.Logger().Debug("Searching videos",
		zap.String("tube", f.Tube),
		zap.String("text", text),
		zap.String("sort", string(opts.Sort)),
	)
	return index.Find[Video](ctx, ix.Core, req)
}

func knownFields(m engine.Mapping, fields map[string]float64) map[string]float64 {
	if len(fields) == 0 {
		return nil
	}
	out := make(map[string]float64, len(fields))
	for name, boost := range fields {
		if _, ok := m.Field(name); ok {
			out[name] = boost
		}
	}
	return out
}

// Update merges partial into one video. Identity fields cannot change.
// The result is 1 when updated or already in that state and 0 when the video is not stored.
func (ix *Index) Update(ctx context.Context, tube string, videoID int64, partial engine.Document) response.Response[int] {
	if err := validPatch(tube, videoID, partial); err != nil {
		return response.Fail[int](err)
	}
	return ix.Patch(ctx, ID(tube, videoID), partial)
}

func validPatch(tube string, videoID int64, partial engine.Document) error {
	if err := validKey(tube, videoID); err != nil {
		return err
	}
	if len(partial) == 0 {
		return fmt.Errorf("video %s/%d: empty update: %w", tube, videoID, index.ErrInvalidInput)
	}
	for _, k := range []string{FieldTube, FieldVideoID} {
		if _, ok := partial[k]; ok {
			return fmt.Errorf("video %s/%d: %s cannot be updated: %w", tube, videoID, k, index.ErrInvalidInput)
		}
	}
	return nil
}

// UpdateMany bulk-applies patches and returns how many videos were updated or already matched.
// Missing videos are reported as failed items.
func (ix *Index) UpdateMany(ctx context.Context, patches []Patch) response.Response[int] {
	actions := make([]engine.BulkAction, 0, len(patches))
	for i, p := range patches {
		if err := validPatch(p.Tube, p.VideoID, p.Fields); err != nil {
			return response.Fail[int](fmt.Errorf("patch %d: %w", i, err))
		}
		actions = append(actions, ix.updateAction(p.Tube, p.VideoID, p.Fields))
	}
	return ix.Bulk(ctx, bulk.KindUpdate, actions)
}

// SetDeleted flags or unflags videos of tube as soft-deleted.
func (ix *Index) SetDeleted(ctx context.Context, tube string, videoIDs []int64, deleted bool) response.Response[int] {
	actions := make([]engine.BulkAction, 0, len(videoIDs))
	for _, id := range videoIDs {
		if err := validKey(tube, id); err != nil {
			return response.Fail[int](err)
		}
		actions = append(actions, ix.updateAction(tube, id, engine.Document{FieldDeleted: deleted}))
	}
	return ix.Bulk(ctx, bulk.KindUpdate, actions)
}

func (ix *Index) updateAction(tube string, videoID int64, fields engine.Document) engine.BulkAction {
	return engine.BulkAction{
		Op:              engine.BulkUpdate,
		Index:           ix.Name(),
		ID:              ID(tube, videoID),
		Doc:             fields,
		RetryOnConflict: ix.RetryOnConflict(),
	}
}

// Delete removes one video. The result is 0 when it was not stored.
func (ix *Index) Delete(ctx context.Context, tube string, videoID int64) response.Response[int] {
	return ix.Remove(ctx, ID(tube, videoID))
}

// DeleteMany removes videos of tube and returns how many were actually removed.
func (ix *Index) DeleteMany(ctx context.Context, tube string, videoIDs []int64) response.Response[int] {
	actions := make([]engine.BulkAction, 0, len(videoIDs))
	for _, id := range videoIDs {
		if err := validKey(tube, id); err != nil {
			return response.Fail[int](err)
		}
		actions = append(actions, engine.BulkAction{Op: engine.BulkDelete, Index: ix.Name(), ID: ID(tube, id)})
	}
	return ix.Bulk(ctx, bulk.KindDelete, actions)
}

// Total returns the number of stored videos of tube, soft-deleted included.
// An empty tube counts all tubes.
func (ix *Index) Total(ctx context.Context, tube string) response.Response[int64] {
	if tube == "" {
		return ix.Count(ctx, nil)
	}
	return ix.Count(ctx, engine.Term(FieldTube, tube))
}

// CountMatching returns how many searchable videos of tube match text.
func (ix *Index) CountMatching(ctx context.Context, tube, text string) response.Response[int64] {
	scope := ix.builder.ForMapping(ix.Mapping(ctx)).Scope(text, query.Filters{Tube: tube}, nil)
	return ix.Count(ctx, scope)
}

// LastStored returns the video of tube with the highest video id, soft-deleted
// included, or an empty envelope when the tube has none.
func (ix *Index) LastStored(ctx context.Context, tube string) response.Response[index.Item[Video]] {
	r := index.Find[Video](ctx, ix.Core, engine.SearchRequest{
		Query: engine.BoolQuery{Filter: []engine.Query{engine.Term(FieldTube, tube)}},
		Sort:  []engine.SortClause{engine.FieldSort(FieldVideoID, engine.Desc)},
		Size:  1,
	})
	if !r.Success {
		return response.Fail[index.Item[Video]](r.Err())
	}
	page, _ := r.Value()
	if len(page.Items) == 0 {
		return response.Empty[index.Item[Video]]()
	}
	return response.OK(page.Items[0])
}
