package chi

import "net/http"

// recordSearchRequest is the body of a recorded run; a missing increment counts the run.
type recordSearchRequest struct {
	Query     string `json:"query"`
	Increment *bool  `json:"increment,omitempty"`
}

// ListSearches handles GET /v1/tubes/{tube}/searches?q=.
func (s *Server) ListSearches(w http.ResponseWriter, r *http.Request) {
	var tube, q string
	if err := pathParam(r, "tube", true, &tube); err != nil {
		writeFailure(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := queryParam(r, "q", &q); err != nil {
		writeFailure(w, http.StatusBadRequest, err.Error())
		return
	}
	opts, err := bindPage(r)
	if err != nil {
		writeFailure(w, http.StatusBadRequest, err.Error())
		return
	}

	respond(s, w, r, s.searches.GetMany(r.Context(), tube, q, opts))
}

// RecordSearch handles POST /v1/tubes/{tube}/searches.
func (s *Server) RecordSearch(w http.ResponseWriter, r *http.Request) {
	var tube string
	if err := pathParam(r, "tube", true, &tube); err != nil {
		writeFailure(w, http.StatusBadRequest, err.Error())
		return
	}
	var req recordSearchRequest
	if !decodeBody(w, r, &req) {
		return
	}
	increment := req.Increment == nil || *req.Increment

	respond(s, w, r, s.searches.Upsert(r.Context(), tube, req.Query, increment))
}

// GetSearch handles GET /v1/tubes/{tube}/searches/one?q=.
func (s *Server) GetSearch(w http.ResponseWriter, r *http.Request) {
	tube, q, ok := tubeAndQuery(w, r)
	if !ok {
		return
	}
	respond(s, w, r, s.searches.GetByID(r.Context(), tube, q))
}

// DeleteSearch handles DELETE /v1/tubes/{tube}/searches/one?q=.
func (s *Server) DeleteSearch(w http.ResponseWriter, r *http.Request) {
	tube, q, ok := tubeAndQuery(w, r)
	if !ok {
		return
	}
	respond(s, w, r, s.searches.Delete(r.Context(), tube, q))
}

// DeleteMatchingSearches handles DELETE /v1/tubes/{tube}/searches?q= and,
// across every tube, DELETE /v1/searches?q=.
func (s *Server) DeleteMatchingSearches(w http.ResponseWriter, r *http.Request) {
	var tube, q string
	if err := pathParam(r, "tube", false, &tube); err != nil {
		writeFailure(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := queryParam(r, "q", &q); err != nil {
		writeFailure(w, http.StatusBadRequest, err.Error())
		return
	}
	respond(s, w, r, s.searches.DeleteMatching(r.Context(), tube, q))
}

// CountSearches handles GET /v1/tubes/{tube}/searches/count and GET /v1/searches/count.
func (s *Server) CountSearches(w http.ResponseWriter, r *http.Request) {
	var tube string
	if err := pathParam(r, "tube", false, &tube); err != nil {
		writeFailure(w, http.StatusBadRequest, err.Error())
		return
	}
	respond(s, w, r, s.searches.Total(r.Context(), tube))
}

func tubeAndQuery(w http.ResponseWriter, r *http.Request) (string, string, bool) {
	var tube, q string
	if err := pathParam(r, "tube", true, &tube); err != nil {
		writeFailure(w, http.StatusBadRequest, err.Error())
		return "", "", false
	}
	if err := queryParam(r, "q", &q); err != nil {
		writeFailure(w, http.StatusBadRequest, err.Error())
		return "", "", false
	}
	return tube, q, true
}
