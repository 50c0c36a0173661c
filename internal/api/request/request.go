// Package request holds what JSON-RPC method handlers read from a call: the actor the gateway
// authenticated and the named parameters.
package request

import (
	"bytes"
	"encoding/json"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cast"

	"github.com/steemit/circlemind/internal/apperr"
	"github.com/steemit/circlemind/internal/query"
	"github.com/steemit/circlemind/internal/social"
)

// Headers set by the upstream auth gateway.
const (
	HeaderActorID   = "X-Actor-ID"
	HeaderActorRole = "X-Actor-Role"
)

const actorKey = "circlemind.actor"

// SetActor stores the authenticated actor on the gin context.
func SetActor(c *gin.Context, actor social.Actor) {
	c.Set(actorKey, actor)
}

// Actor returns the authenticated actor, or a Forbidden error for anonymous calls.
func Actor(c *gin.Context) (social.Actor, error) {
	if v, ok := c.Get(actorKey); ok {
		if actor, ok := v.(social.Actor); ok && actor.ID != "" {
			return actor, nil
		}
	}
	return social.Actor{}, apperr.Forbidden("authentication required")
}

// Params are the named parameters of one call.
type Params map[string]interface{}

// Decode parses named params. Missing or null params decode to an empty map.
func Decode(raw json.RawMessage) (Params, error) {
	p := Params{}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return p, nil
	}
	if err := json.Unmarshal(trimmed, &p); err != nil {
		return nil, apperr.Validation("invalid parameters format")
	}
	return p, nil
}

// Require fails with a Validation error naming the first missing or empty key.
func (p Params) Require(keys ...string) error {
	for _, k := range keys {
		if p.String(k) == "" {
			return apperr.Validation("missing required parameter: %s", k)
		}
	}
	return nil
}

// String returns the parameter as a string, or "" when absent.
func (p Params) String(key string) string {
	v, ok := p[key]
	if !ok || v == nil {
		return ""
	}
	return cast.ToString(v)
}

// OptionalString returns nil when the key is absent, for partial updates.
func (p Params) OptionalString(key string) *string {
	if _, ok := p[key]; !ok {
		return nil
	}
	s := p.String(key)
	return &s
}

// Bool returns the parameter as a bool; absent or unparsable values are false.
func (p Params) Bool(key string) bool {
	return cast.ToBool(p[key])
}

// Strings returns a list parameter. A single string is a one-element list.
func (p Params) Strings(key string) []string {
	v, ok := p[key]
	if !ok || v == nil {
		return nil
	}
	return cast.ToStringSlice(v)
}

// Query converts the remaining parameters to list query parameters, leaving out keys that
// address the resource rather than filter it.
func (p Params) Query(skip ...string) query.Params {
	drop := make(map[string]bool, len(skip))
	for _, k := range skip {
		drop[k] = true
	}
	out := query.Params{}
	for k, v := range p {
		if drop[k] || v == nil {
			continue
		}
		out[k] = cast.ToString(v)
	}
	return out
}
