// Package tubesearch provides a Go client for the video catalogue search
// layer backed by Elasticsearch, or by an embedded bleve engine for tests
// and single-node setups.
//
// The catalogue is split into three indexes:
//   - Blacklist: normalized terms that must never be recorded as searches
//   - Searches: per-tube query statistics with an atomic hit counter
//   - Videos: the searchable video catalogue
//
// # Usage
//
//	client, _ := tubesearch.New(tubesearch.WithElasticsearch("http://localhost:9200"))
//	defer client.Close()
//	_, _ = client.Bootstrap(ctx)
//
//	client.Videos().AddMany(ctx, videos)
//	res := client.Search(ctx, tubesearch.SearchRequest{Tube: "t1", Text: "fox", Record: true})
//	page, _ := res.Value()
//
// Every operation answers with a Response envelope; use Value to read the
// payload and Err to get an error compatible with errors.Is.
package tubesearch
