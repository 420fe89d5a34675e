package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-adp-client/internal/query"
	"github.com/noah-isme/sma-adp-client/pkg/apiclient"
	appErrors "github.com/noah-isme/sma-adp-client/pkg/errors"
)

// API is the outbound transport used by repositories.
type API interface {
	Do(ctx context.Context, req apiclient.Request, out interface{}) error
}

// resourceSpec names one REST resource, e.g. kind "teacher" served under
// "/teacher/teachers" and cached under "teachers".
type resourceSpec struct {
	kind   string
	entity string
	base   string
}

func specFor(kind string) resourceSpec {
	plural := kind + "s"
	return resourceSpec{kind: kind, entity: plural, base: "/" + kind + "/" + plural}
}

type patch[U any] struct {
	ID    string
	Patch U
}

// resource implements list/retrieve/create/update for one entity kind. T is
// the record, C the create payload and U the partial update payload.
type resource[T, C, U any] struct {
	api    API
	cache  *query.Client
	logger *zap.Logger
	spec   resourceSpec

	create *query.Mutation[C, T]
	update *query.Mutation[patch[U], T]
}

func newResource[T, C, U any](api API, cache *query.Client, logger *zap.Logger, spec resourceSpec, keyOf func(T) string) *resource[T, C, U] {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &resource[T, C, U]{api: api, cache: cache, logger: logger, spec: spec}

	r.create = query.NewMutation(cache, query.MutationConfig[C, T]{
		Name: spec.entity + ".create",
		Fn: func(ctx context.Context, payload C) (T, error) {
			var out T
			err := api.Do(ctx, apiclient.Request{
				Method: http.MethodPost,
				Path:   "/users/api/register/" + spec.kind,
				Route:  spec.entity + ".create",
				Body:   payload,
			}, &out)
			return out, err
		},
		Invalidates: func(_ C, out T) []query.Key {
			return r.touched(keyOf(out))
		},
	})

	r.update = query.NewMutation(cache, query.MutationConfig[patch[U], T]{
		Name: spec.entity + ".update",
		Fn: func(ctx context.Context, in patch[U]) (T, error) {
			var out T
			err := api.Do(ctx, apiclient.Request{
				Method: http.MethodPut,
				Path:   fmt.Sprintf("%s/update/%s/", spec.base, url.PathEscape(in.ID)),
				Route:  spec.entity + ".update",
				Body:   in.Patch,
			}, &out)
			return out, err
		},
		Invalidates: func(in patch[U], _ T) []query.Key {
			return r.touched(in.ID)
		},
	})
	return r
}

// listKey is the cache key of one organization's roster.
func (r *resource[T, C, U]) listKey(organizationID int) query.Key {
	return query.NewKey(r.spec.entity, "list", organizationID)
}

func (r *resource[T, C, U]) retrieveKey(id string) query.Key {
	return query.NewKey(r.spec.entity, "retrieve", id)
}

// touched lists what a write to record id makes stale: every roster of the
// kind plus the record itself.
func (r *resource[T, C, U]) touched(id string) []query.Key {
	keys := []query.Key{query.NewKey(r.spec.entity, "list")}
	if id != "" && id != "0" {
		keys = append(keys, r.retrieveKey(id))
	}
	return keys
}

func (r *resource[T, C, U]) list(ctx context.Context, organizationID int) (query.Result[[]T], error) {
	return query.Fetch(ctx, r.cache, query.Query[[]T]{
		Key:      r.listKey(organizationID),
		Disabled: organizationID <= 0,
		Fetch: func(ctx context.Context) ([]T, error) {
			var raw json.RawMessage
			err := r.api.Do(ctx, apiclient.Request{
				Method: http.MethodGet,
				Path:   fmt.Sprintf("%s/list/%d/", r.spec.base, organizationID),
				Route:  r.spec.entity + ".list",
			}, &raw)
			if err != nil {
				return nil, err
			}
			items, err := decodeList[T](raw)
			if err != nil {
				return nil, appErrors.Fetch(err, http.StatusOK, "unexpected list response")
			}
			r.logger.Debug("roster fetched", zap.String("entity", r.spec.entity), zap.Int("organization", organizationID), zap.Int("count", len(items)))
			return items, nil
		},
	})
}

// refetch marks the roster stale so the next read goes to the network.
func (r *resource[T, C, U]) refetch(ctx context.Context, organizationID int) (query.Result[[]T], error) {
	r.cache.Invalidate(r.listKey(organizationID))
	return r.list(ctx, organizationID)
}

func (r *resource[T, C, U]) retrieve(ctx context.Context, id string) (query.Result[T], error) {
	return query.Fetch(ctx, r.cache, query.Query[T]{
		Key:      r.retrieveKey(id),
		Disabled: id == "" || id == "0",
		Fetch: func(ctx context.Context) (T, error) {
			var out T
			err := r.api.Do(ctx, apiclient.Request{
				Method: http.MethodGet,
				Path:   fmt.Sprintf("%s/retrieve/%s/", r.spec.base, url.PathEscape(id)),
				Route:  r.spec.entity + ".retrieve",
			}, &out)
			return out, err
		},
	})
}

// decodeList accepts a bare array or a paginated {"results": [...]} page.
func decodeList[T any](raw json.RawMessage) ([]T, error) {
	raw = bytes.TrimSpace(raw)
	out := []T{}
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return out, nil
	}
	if raw[0] == '[' {
		if err := json.Unmarshal(raw, &out); err != nil {
			return nil, fmt.Errorf("decode list: %w", err)
		}
		return out, nil
	}
	var page struct {
		Results json.RawMessage `json:"results"`
		Data    json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &page); err != nil {
		return nil, fmt.Errorf("decode list: %w", err)
	}
	items := page.Results
	if len(items) == 0 {
		items = page.Data
	}
	if len(items) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(items, &out); err != nil {
		return nil, fmt.Errorf("decode list: %w", err)
	}
	return out, nil
}
