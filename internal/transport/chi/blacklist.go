package chi

import (
	"net/http"

	"github.com/roxby/tubesearch/internal/response"
)

type addTermsRequest struct {
	Terms []string `json:"terms"`
}

type renameTermRequest struct {
	Term string `json:"term"`
}

// ListBlacklist handles GET /v1/blacklist?term=&exact=.
func (s *Server) ListBlacklist(w http.ResponseWriter, r *http.Request) {
	var (
		term  string
		exact bool
	)
	if err := queryParam(r, "term", &term); err != nil {
		writeFailure(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := queryParam(r, "exact", &exact); err != nil {
		writeFailure(w, http.StatusBadRequest, err.Error())
		return
	}
	opts, err := bindPage(r)
	if err != nil {
		writeFailure(w, http.StatusBadRequest, err.Error())
		return
	}

	respond(s, w, r, s.blacklist.GetMany(r.Context(), term, exact, opts))
}

// AddBlacklist handles POST /v1/blacklist.
func (s *Server) AddBlacklist(w http.ResponseWriter, r *http.Request) {
	var req addTermsRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if len(req.Terms) == 1 {
		respond(s, w, r, s.blacklist.AddOne(r.Context(), req.Terms[0]))
		return
	}
	respond(s, w, r, s.blacklist.AddMany(r.Context(), req.Terms))
}

// BlacklistExists handles GET /v1/blacklist/exists?term=&similar=.
func (s *Server) BlacklistExists(w http.ResponseWriter, r *http.Request) {
	var (
		term    string
		similar bool
	)
	if err := queryParam(r, "term", &term); err != nil {
		writeFailure(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := queryParam(r, "similar", &similar); err != nil {
		writeFailure(w, http.StatusBadRequest, err.Error())
		return
	}

	var res response.Response[bool]
	if similar {
		res = s.blacklist.ExistsSimilar(r.Context(), term)
	} else {
		res = s.blacklist.ExistsExact(r.Context(), term)
	}
	respond(s, w, r, res)
}

// CountBlacklist handles GET /v1/blacklist/count.
func (s *Server) CountBlacklist(w http.ResponseWriter, r *http.Request) {
	respond(s, w, r, s.blacklist.Total(r.Context()))
}

// RenameBlacklist handles PUT /v1/blacklist/{term}.
func (s *Server) RenameBlacklist(w http.ResponseWriter, r *http.Request) {
	var term string
	if err := pathParam(r, "term", true, &term); err != nil {
		writeFailure(w, http.StatusBadRequest, err.Error())
		return
	}
	var req renameTermRequest
	if !decodeBody(w, r, &req) {
		return
	}

	respond(s, w, r, s.blacklist.UpdateOne(r.Context(), term, req.Term))
}

// DeleteBlacklist handles DELETE /v1/blacklist/{term}.
func (s *Server) DeleteBlacklist(w http.ResponseWriter, r *http.Request) {
	var term string
	if err := pathParam(r, "term", true, &term); err != nil {
		writeFailure(w, http.StatusBadRequest, err.Error())
		return
	}

	respond(s, w, r, s.blacklist.DeleteOne(r.Context(), term))
}
