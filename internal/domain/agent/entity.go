// internal/domain/agent/entity.go
package agent

import (
	"strings"

	"junketops-service/internal/normalize"
)

// Agent is the canonical snapshot of one upstream agent record.
type Agent struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Active bool   `json:"active"`
}

// FromRaw canonicalizes one upstream record into an Agent.
func FromRaw(r normalize.Raw) Agent {
	r = normalize.Canonicalize(r)

	return Agent{
		ID:     normalize.Str(r["id"]),
		Name:   normalize.Str(r["name"]),
		Active: activeFlag(r),
	}
}

// FromRawList maps a whole upstream collection.
func FromRawList(rs []normalize.Raw) []Agent {
	out := make([]Agent, 0, len(rs))
	for _, r := range rs {
		out = append(out, FromRaw(r))
	}
	return out
}

func activeFlag(r normalize.Raw) bool {
	for _, k := range []string{"is_active", "isActive", "active"} {
		if v, ok := r[k]; ok && v != nil {
			return normalize.Bool(v)
		}
	}
	if s := normalize.FirstString(r, "status"); s != "" {
		return strings.EqualFold(s, "active")
	}
	return true
}
