package chi

import (
	"fmt"
	"net/http"

	"github.com/roxby/tubesearch/internal/engine"
	"github.com/roxby/tubesearch/internal/index/videos"
	searchuc "github.com/roxby/tubesearch/internal/usecase/search"
)

type videoIDsRequest struct {
	IDs []int64 `json:"ids"`
}

type setDeletedRequest struct {
	IDs     []int64 `json:"ids"`
	Deleted bool    `json:"deleted"`
}

type videoPatch struct {
	VideoID int64           `json:"video_id"`
	Fields  engine.Document `json:"fields"`
}

// SearchVideos handles GET /v1/tubes/{tube}/videos.
func (s *Server) SearchVideos(w http.ResponseWriter, r *http.Request) {
	var req searchuc.Request
	if err := pathParam(r, "tube", true, &req.Tube); err != nil {
		writeFailure(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := bindSearch(r, &req); err != nil {
		writeFailure(w, http.StatusBadRequest, err.Error())
		return
	}

	opts, err := bindPage(r)
	if err != nil {
		writeFailure(w, http.StatusBadRequest, err.Error())
		return
	}
	req.Options = opts

	respond(s, w, r, s.search.Search(r.Context(), req))
}

// bindSearch reads the text, language, recording and filter parameters of a catalogue search.
func bindSearch(r *http.Request, req *searchuc.Request) error {
	var err error
	if err = queryParam(r, "q", &req.Text); err != nil {
		return err
	}
	if err = queryParam(r, "lang", &req.Lang); err != nil {
		return err
	}
	if err = queryParam(r, "record", &req.Record); err != nil {
		return err
	}
	if err = queryParam(r, "published", &req.Filters.PublishedOnly); err != nil {
		return err
	}
	if req.Filters.IsHD, err = optionalQuery[bool](r, "hd"); err != nil {
		return err
	}
	if req.Filters.MinDuration, err = optionalQuery[int](r, "min_duration"); err != nil {
		return err
	}
	if req.Filters.MaxDuration, err = optionalQuery[int](r, "max_duration"); err != nil {
		return err
	}
	return nil
}

// AddVideos handles POST /v1/tubes/{tube}/videos with a JSON array of videos.
// The path tube wins over any tube in the payload.
func (s *Server) AddVideos(w http.ResponseWriter, r *http.Request) {
	var tube string
	if err := pathParam(r, "tube", true, &tube); err != nil {
		writeFailure(w, http.StatusBadRequest, err.Error())
		return
	}
	var vs []videos.Video
	if !decodeBody(w, r, &vs) {
		return
	}
	for i := range vs {
		vs[i].Tube = tube
	}

	if len(vs) == 1 {
		respond(s, w, r, s.videos.AddOne(r.Context(), vs[0]))
		return
	}
	respond(s, w, r, s.videos.AddMany(r.Context(), vs))
}

// UpdateVideos handles PATCH /v1/tubes/{tube}/videos with a JSON array of patches.
func (s *Server) UpdateVideos(w http.ResponseWriter, r *http.Request) {
	var tube string
	if err := pathParam(r, "tube", true, &tube); err != nil {
		writeFailure(w, http.StatusBadRequest, err.Error())
		return
	}
	var body []videoPatch
	if !decodeBody(w, r, &body) {
		return
	}
	patches := make([]videos.Patch, len(body))
	for i, p := range body {
		patches[i] = videos.Patch{Tube: tube, VideoID: p.VideoID, Fields: p.Fields}
	}

	respond(s, w, r, s.videos.UpdateMany(r.Context(), patches))
}

// CountVideos handles GET /v1/tubes/{tube}/videos/count. With q present only
// searchable videos matching it are counted; without it every stored video is.
func (s *Server) CountVideos(w http.ResponseWriter, r *http.Request) {
	var tube string
	if err := pathParam(r, "tube", true, &tube); err != nil {
		writeFailure(w, http.StatusBadRequest, err.Error())
		return
	}
	if !r.URL.Query().Has("q") {
		respond(s, w, r, s.videos.Total(r.Context(), tube))
		return
	}
	var q string
	if err := queryParam(r, "q", &q); err != nil {
		writeFailure(w, http.StatusBadRequest, err.Error())
		return
	}
	respond(s, w, r, s.videos.CountMatching(r.Context(), tube, q))
}

// LastStoredVideo handles GET /v1/tubes/{tube}/videos/last.
func (s *Server) LastStoredVideo(w http.ResponseWriter, r *http.Request) {
	var tube string
	if err := pathParam(r, "tube", true, &tube); err != nil {
		writeFailure(w, http.StatusBadRequest, err.Error())
		return
	}
	respond(s, w, r, s.videos.LastStored(r.Context(), tube))
}

// DeleteVideos handles POST /v1/tubes/{tube}/videos/delete.
func (s *Server) DeleteVideos(w http.ResponseWriter, r *http.Request) {
	var tube string
	if err := pathParam(r, "tube", true, &tube); err != nil {
		writeFailure(w, http.StatusBadRequest, err.Error())
		return
	}
	var req videoIDsRequest
	if !decodeBody(w, r, &req) {
		return
	}
	respond(s, w, r, s.videos.DeleteMany(r.Context(), tube, req.IDs))
}

// SetVideosDeleted handles POST /v1/tubes/{tube}/videos/deleted.
func (s *Server) SetVideosDeleted(w http.ResponseWriter, r *http.Request) {
	var tube string
	if err := pathParam(r, "tube", true, &tube); err != nil {
		writeFailure(w, http.StatusBadRequest, err.Error())
		return
	}
	var req setDeletedRequest
	if !decodeBody(w, r, &req) {
		return
	}
	respond(s, w, r, s.videos.SetDeleted(r.Context(), tube, req.IDs, req.Deleted))
}

// RefreshVideos handles POST /v1/tubes/{tube}/videos/refresh.
func (s *Server) RefreshVideos(w http.ResponseWriter, r *http.Request) {
	respond(s, w, r, s.videos.Refresh(r.Context()))
}

// GetVideo handles GET /v1/tubes/{tube}/videos/{video_id}.
func (s *Server) GetVideo(w http.ResponseWriter, r *http.Request) {
	tube, id, ok := videoKey(w, r)
	if !ok {
		return
	}
	respond(s, w, r, s.videos.GetByID(r.Context(), tube, id))
}

// UpdateVideo handles PATCH /v1/tubes/{tube}/videos/{video_id}.
func (s *Server) UpdateVideo(w http.ResponseWriter, r *http.Request) {
	tube, id, ok := videoKey(w, r)
	if !ok {
		return
	}
	var partial engine.Document
	if !decodeBody(w, r, &partial) {
		return
	}
	respond(s, w, r, s.videos.Update(r.Context(), tube, id, partial))
}

// DeleteVideo handles DELETE /v1/tubes/{tube}/videos/{video_id}.
func (s *Server) DeleteVideo(w http.ResponseWriter, r *http.Request) {
	tube, id, ok := videoKey(w, r)
	if !ok {
		return
	}
	respond(s, w, r, s.videos.Delete(r.Context(), tube, id))
}

func videoKey(w http.ResponseWriter, r *http.Request) (string, int64, bool) {
	var (
		tube string
		id   int64
	)
	if err := pathParam(r, "tube", true, &tube); err != nil {
		writeFailure(w, http.StatusBadRequest, err.Error())
		return "", 0, false
	}
	if err := pathParam(r, "video_id", true, &id); err != nil {
		writeFailure(w, http.StatusBadRequest, err.Error())
		return "", 0, false
	}
	if id <= 0 {
		writeFailure(w, http.StatusBadRequest, fmt.Sprintf("invalid video id %d", id))
		return "", 0, false
	}
	return tube, id, true
}
