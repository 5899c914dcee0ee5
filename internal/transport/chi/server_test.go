package chi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/roxby/tubesearch/internal/engine/embedded"
	"github.com/roxby/tubesearch/internal/index"
	"github.com/roxby/tubesearch/internal/index/blacklist"
	"github.com/roxby/tubesearch/internal/index/searches"
	"github.com/roxby/tubesearch/internal/index/videos"
	"github.com/roxby/tubesearch/internal/response"
	"github.com/roxby/tubesearch/internal/upsert"
	healthuc "github.com/roxby/tubesearch/internal/usecase/health"
	searchuc "github.com/roxby/tubesearch/internal/usecase/search"
)

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	e, err := embedded.Open(
		embedded.WithScript(upsert.ScriptID, upsert.Apply),
		embedded.WithSortScript(videos.RatingScriptID, videos.Rating),
	)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = e.Close() })

	bl, se, vi := blacklist.New(e), searches.New(e), videos.New(e)
	if _, err := index.EnsureAll(context.Background(), bl, se, vi); err != nil {
		t.Fatalf("EnsureAll: %v", err)
	}

	return NewServer(Deps{
		Blacklist: bl,
		Searches:  se,
		Videos:    vi,
		Search:    searchuc.New(vi).WithRecorder(se, bl),
		Health:    healthuc.New(e, nil, nil),
	}).Handler()
}

func do(t *testing.T, h http.Handler, method, path string, body any) (int, response.Response[json.RawMessage]) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	var env response.Response[json.RawMessage]
	if err := json.NewDecoder(rr.Body).Decode(&env); err != nil {
		t.Fatalf("%s %s: decode envelope: %v", method, path, err)
	}
	return rr.Code, env
}

func result[T any](t *testing.T, env response.Response[json.RawMessage]) T {
	t.Helper()
	var v T
	if !env.Success || env.Result == nil {
		t.Fatalf("envelope = %+v, want a successful result", env)
	}
	if err := json.Unmarshal(*env.Result, &v); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	return v
}

func TestBlacklistEndpoints(t *testing.T) {
	h := newTestServer(t)

	code, env := do(t, h, "POST", "/v1/blacklist", addTermsRequest{Terms: []string{"lola", "zed", "LOLA"}})
	if code != http.StatusOK || result[int](t, env) != 2 {
		t.Fatalf("add: %d %+v", code, env)
	}

	_, env = do(t, h, "GET", "/v1/blacklist?term=lola&exact=true", nil)
	if p := result[index.Page[index.Item[blacklist.Entry]]](t, env); p.Total != 1 || p.Items[0].Doc.Term != "lola" {
		t.Errorf("exact list = %+v", p)
	}

	_, env = do(t, h, "GET", "/v1/blacklist/exists?term=lolla&similar=true", nil)
	if !result[bool](t, env) {
		t.Error("lolla should be similar to lola")
	}
	_, env = do(t, h, "GET", "/v1/blacklist/exists?term=lolla", nil)
	if result[bool](t, env) {
		t.Error("lolla is not stored exactly")
	}

	_, env = do(t, h, "PUT", "/v1/blacklist/lola", renameTermRequest{Term: "lula"})
	if result[int](t, env) != 1 {
		t.Errorf("rename = %+v", env)
	}
	_, env = do(t, h, "DELETE", "/v1/blacklist/zed", nil)
	if result[int](t, env) != 1 {
		t.Errorf("delete = %+v", env)
	}

	_, env = do(t, h, "GET", "/v1/blacklist/count", nil)
	if result[int64](t, env) != 1 {
		t.Errorf("count = %+v", env)
	}
	_, env = do(t, h, "GET", "/v1/blacklist?sort=id_asc", nil)
	if p := result[index.Page[index.Item[blacklist.Entry]]](t, env); p.Total != 1 || p.Items[0].Doc.Term != "lula" {
		t.Errorf("list = %+v", p)
	}
}

func TestVideoEndpoints(t *testing.T) {
	h := newTestServer(t)

	catalog := []videos.Video{
		{VideoID: 1, Tube: "ignored", Title: "brown fox", Duration: 120, PostDate: "2024-01-01 10:00:00"},
		{VideoID: 2, Title: "quick brown fox", IsHD: true, Duration: 600, PostDate: "2024-01-02 10:00:00"},
		{VideoID: 3, Title: "lazy dog", Duration: 30, PostDate: "2024-01-03 10:00:00"},
	}
	code, env := do(t, h, "POST", "/v1/tubes/t1/videos", catalog)
	if code != http.StatusOK || result[int](t, env) != 3 {
		t.Fatalf("add: %d %+v", code, env)
	}

	_, env = do(t, h, "GET", "/v1/tubes/t1/videos?q=fox&sort=id_desc", nil)
	res := result[searchuc.Result](t, env)
	if res.Page.Total != 2 || res.Page.Items[0].Doc.VideoID != 2 || res.Page.Items[0].Doc.Tube != "t1" {
		t.Errorf("search = %+v", res)
	}

	_, env = do(t, h, "GET", "/v1/tubes/t1/videos?hd=true", nil)
	if res := result[searchuc.Result](t, env); res.Page.Total != 1 || res.Page.Items[0].Doc.VideoID != 2 {
		t.Errorf("hd search = %+v", res)
	}

	_, env = do(t, h, "GET", "/v1/tubes/t1/videos/3", nil)
	if item := result[index.Item[videos.Video]](t, env); item.Doc.Title != "lazy dog" {
		t.Errorf("get = %+v", item)
	}

	_, env = do(t, h, "PATCH", "/v1/tubes/t1/videos/3", map[string]any{"title": "lazy fox"})
	if result[int](t, env) != 1 {
		t.Errorf("update = %+v", env)
	}

	_, env = do(t, h, "POST", "/v1/tubes/t1/videos/deleted", setDeletedRequest{IDs: []int64{1}, Deleted: true})
	if result[int](t, env) != 1 {
		t.Errorf("set deleted = %+v", env)
	}
	_, env = do(t, h, "GET", "/v1/tubes/t1/videos/count?q=fox", nil)
	if n := result[int64](t, env); n != 2 {
		t.Errorf("count matching = %d, want 2", n)
	}
	_, env = do(t, h, "GET", "/v1/tubes/t1/videos/count", nil)
	if n := result[int64](t, env); n != 3 {
		t.Errorf("total = %d, want 3", n)
	}

	_, env = do(t, h, "GET", "/v1/tubes/t1/videos/last", nil)
	if item := result[index.Item[videos.Video]](t, env); item.Doc.VideoID != 3 {
		t.Errorf("last = %+v", item)
	}

	_, env = do(t, h, "POST", "/v1/tubes/t1/videos/delete", videoIDsRequest{IDs: []int64{1, 2, 9}})
	if result[int](t, env) != 2 {
		t.Errorf("delete many = %+v", env)
	}
	_, env = do(t, h, "DELETE", "/v1/tubes/t1/videos/3", nil)
	if result[int](t, env) != 1 {
		t.Errorf("delete = %+v", env)
	}

	code, env = do(t, h, "GET", "/v1/tubes/t1/videos/3", nil)
	if code != http.StatusOK || !env.Success || env.Result != nil {
		t.Errorf("get missing = %d %+v, want an empty success", code, env)
	}
}

func TestSearchRecording(t *testing.T) {
	h := newTestServer(t)

	do(t, h, "POST", "/v1/tubes/t1/videos", []videos.Video{{VideoID: 1, Title: "red fox"}, {VideoID: 2, Title: "red car"}})
	do(t, h, "POST", "/v1/blacklist", addTermsRequest{Terms: []string{"car"}})

	for _, q := range []string{"fox", "Fox", "car", "unicorn"} {
		do(t, h, "GET", "/v1/tubes/t1/videos?record=true&q="+q, nil)
	}

	_, env := do(t, h, "GET", "/v1/tubes/t1/searches", nil)
	p := result[index.Page[index.Item[searches.Search]]](t, env)
	if p.Total != 1 || p.Items[0].Doc.Count != 2 || p.Items[0].Doc.Alias != "fox" {
		t.Errorf("recorded = %+v", p)
	}

	_, env = do(t, h, "POST", "/v1/tubes/t2/searches", recordSearchRequest{Query: "Fox"})
	if result[int](t, env) != 1 {
		t.Errorf("record = %+v", env)
	}
	_, env = do(t, h, "GET", "/v1/searches/count", nil)
	if n := result[int64](t, env); n != 2 {
		t.Errorf("count all = %d", n)
	}
	_, env = do(t, h, "DELETE", "/v1/searches?q=fox", nil)
	if n := result[int64](t, env); n != 2 {
		t.Errorf("delete matching = %d", n)
	}
}

func TestErrorMapping(t *testing.T) {
	h := newTestServer(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
		errHas string
	}{
		{"malformed body", "POST", "/v1/blacklist", "{", http.StatusBadRequest, "invalid request body"},
		{"blank term", "POST", "/v1/blacklist", addTermsRequest{Terms: []string{"  "}}, http.StatusBadRequest, "invalid input"},
		{"bad video id", "GET", "/v1/tubes/t1/videos/abc", nil, http.StatusBadRequest, "video_id"},
		{"zero video id", "GET", "/v1/tubes/t1/videos/0", nil, http.StatusBadRequest, "invalid video id"},
		{"bad bool", "GET", "/v1/blacklist?exact=maybe", nil, http.StatusBadRequest, "exact"},
		{"bad boost", "GET", "/v1/tubes/t1/videos?fields=title^x", nil, http.StatusBadRequest, "boost"},
		{"identity patch", "PATCH", "/v1/tubes/t1/videos/1", map[string]any{"tube": "t2"}, http.StatusBadRequest, "cannot be updated"},
		{"unknown route", "GET", "/v2/nothing", nil, http.StatusNotFound, "route not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, env := do(t, h, tt.method, tt.path, tt.body)
			if code != tt.want {
				t.Errorf("status = %d, want %d", code, tt.want)
			}
			if env.Success || !strings.Contains(env.Error, tt.errHas) {
				t.Errorf("envelope = %+v, want error containing %q", env, tt.errHas)
			}
		})
	}
}

func TestHealth(t *testing.T) {
	h := newTestServer(t)

	req := httptest.NewRequest("GET", "/health", http.NoBody)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var report healthuc.Report
	if err := json.NewDecoder(rr.Body).Decode(&report); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if report.Status != healthuc.Healthy || report.Checks[healthuc.ComponentEngine] != healthuc.CheckOK {
		t.Errorf("report = %+v", report)
	}
}

func TestParseFieldBoosts(t *testing.T) {
	got, err := parseFieldBoosts([]string{"title^3,tags", " cats^10 "})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := map[string]float64{"title": 3, "tags": 1, "cats": 10}
	if len(got) != len(want) {
		t.Fatalf("got %v", got)
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("%s = %v, want %v", k, got[k], v)
		}
	}
	if got, _ := parseFieldBoosts([]string{","}); got != nil {
		t.Errorf("blank list = %v, want nil", got)
	}
	if _, err := parseFieldBoosts([]string{"title^0"}); err == nil {
		t.Error("zero boost must be rejected")
	}
}
