package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/bngnha/sensu/internal/model"
)

// handlePostStash implements POST /stash/<path> (spec §4.5): arbitrary
// JSON stored verbatim.
func (s *Server) handlePostStash() http.Handler {
	decode := func(_ context.Context, r *http.Request) (interface{}, error) {
		var content interface{}
		if err := json.NewDecoder(r.Body).Decode(&content); err != nil {
			return nil, errBadRequest()
		}
		return struct {
			Path    string
			Content interface{}
		}{Path: mux.Vars(r)["path"], Content: content}, nil
	}
	e := func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(struct {
			Path    string
			Content interface{}
		})
		data, err := json.Marshal(req.Content)
		if err != nil {
			return nil, err
		}
		if err := s.Registry.Set(ctx, stashKey(req.Path), string(data)); err != nil {
			return nil, err
		}
		if err := s.Registry.SAdd(ctx, stashesSetKey(), req.Path); err != nil {
			return nil, err
		}
		return created(map[string]string{"path": req.Path}), nil
	}
	return s.newHandler(e, decode)
}

// handleGetStash implements GET /stash/<path> (spec §4.5).
func (s *Server) handleGetStash() http.Handler {
	decode := func(_ context.Context, r *http.Request) (interface{}, error) {
		return mux.Vars(r)["path"], nil
	}
	e := func(ctx context.Context, request interface{}) (interface{}, error) {
		path := request.(string)
		raw, err := s.Registry.Get(ctx, stashKey(path))
		if err != nil {
			return nil, errNotFound()
		}
		return ok(json.RawMessage(raw)), nil
	}
	return s.newHandler(e, decode)
}

// handleDeleteStash implements DELETE /stash/<path> (spec §4.5).
func (s *Server) handleDeleteStash() http.Handler {
	decode := func(_ context.Context, r *http.Request) (interface{}, error) {
		return mux.Vars(r)["path"], nil
	}
	e := func(ctx context.Context, request interface{}) (interface{}, error) {
		path := request.(string)
		exists, err := s.Registry.Exists(ctx, stashKey(path))
		if err != nil || !exists {
			return nil, errNotFound()
		}
		if err := s.Registry.SRem(ctx, stashesSetKey(), path); err != nil {
			return nil, err
		}
		if err := s.Registry.Del(ctx, stashKey(path)); err != nil {
			return nil, err
		}
		return noContent(), nil
	}
	return s.newHandler(e, decode)
}

// handleGetStashes implements GET /stashes (spec §4.5): every stashed
// path's content and TTL, paginated as an assembled array.
func (s *Server) handleGetStashes() http.Handler {
	decode := func(_ context.Context, r *http.Request) (interface{}, error) {
		return r, nil
	}
	e := func(ctx context.Context, request interface{}) (interface{}, error) {
		r := request.(*http.Request)
		paths, err := s.Registry.SMembers(ctx, stashesSetKey())
		if err != nil {
			return nil, err
		}

		entries := make([]interface{}, 0, len(paths))
		for _, path := range paths {
			raw, err := s.Registry.Get(ctx, stashKey(path))
			if err != nil {
				s.selfRepair(stashesSetKey(), path)
				continue
			}
			ttl, err := s.Registry.TTL(ctx, stashKey(path))
			if err != nil {
				ttl = -1
			}
			var content interface{}
			if err := json.Unmarshal([]byte(raw), &content); err != nil {
				continue
			}
			entries = append(entries, model.StashEntry{Path: path, Content: content, Expire: ttl})
		}

		paged, header, hasHeader := paginate(r, entries)
		resp := ok(paged)
		if hasHeader {
			resp = withHeader(resp, "X-Pagination", header)
		}
		return resp, nil
	}
	return s.newHandler(e, decode)
}

// handlePostStashes implements POST /stashes (spec §4.5).
func (s *Server) handlePostStashes() http.Handler {
	decode := func(_ context.Context, r *http.Request) (interface{}, error) {
		return readData(r, map[string]fieldRule{
			"path":    {Type: "string"},
			"content": {Type: "object"},
			"expire":  {Type: "number", NilOK: true},
		})
	}
	e := func(ctx context.Context, request interface{}) (interface{}, error) {
		body := request.(map[string]interface{})
		path := body["path"].(string)
		content := body["content"]

		data, err := json.Marshal(content)
		if err != nil {
			return nil, err
		}
		if err := s.Registry.Set(ctx, stashKey(path), string(data)); err != nil {
			return nil, err
		}
		if err := s.Registry.SAdd(ctx, stashesSetKey(), path); err != nil {
			return nil, err
		}
		if expire, ok := body["expire"].(float64); ok {
			if err := s.Registry.Expire(ctx, stashKey(path), int64(expire)); err != nil {
				return nil, err
			}
		}
		return created(map[string]string{"path": path}), nil
	}
	return s.newHandler(e, decode)
}
