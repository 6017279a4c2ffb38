// internal/domain/models/organization.go
package models

import (
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Top-level keys of the organization document that this module reads.
// Everything else, including _id and tenant, is opaque and round-trips as-is.
const (
	KeyID         = "_id"
	KeyTenant     = "tenant"
	KeyTenantCode = "tenantCode"
)

// Sub-collection keys.
const (
	CollReasonCodes = "reasonCodes"
	CollStates      = "states"
	CollCastes      = "castes"
)

// Organization is a tenant's organization document. It is kept as a plain map
// so that identity fields and unknown sub-collections are written back exactly
// as they were read, whichever backend produced them.
type Organization map[string]any

// TenantCode returns the document's tenantCode, or "" when absent.
func (o Organization) TenantCode() string {
	s, _ := o[KeyTenantCode].(string)
	return s
}

// Entries returns the named sub-collection as a list of plain maps.
// A missing or null key yields an empty list. Values decoded by the Mongo
// driver (primitive.A, primitive.D, bson.M) are accepted alongside the
// []any / map[string]any shapes produced by encoding/json.
func (o Organization) Entries(key string) ([]map[string]any, error) {
	v, ok := o[key]
	if !ok || v == nil {
		return []map[string]any{}, nil
	}

	var items []any
	switch arr := v.(type) {
	case []any:
		items = arr
	case primitive.A:
		items = arr
	case []map[string]any:
		out := make([]map[string]any, len(arr))
		copy(out, arr)
		return out, nil
	case []bson.M:
		out := make([]map[string]any, len(arr))
		for i, m := range arr {
			out[i] = map[string]any(m)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%s: expected array, got %T", key, v)
	}

	out := make([]map[string]any, 0, len(items))
	for i, it := range items {
		m, ok := asMap(it)
		if !ok {
			return nil, fmt.Errorf("%s[%d]: expected object, got %T", key, i, it)
		}
		out = append(out, m)
	}
	return out, nil
}

// SetEntries replaces the named sub-collection.
func (o Organization) SetEntries(key string, entries []map[string]any) {
	arr := make([]any, len(entries))
	for i, e := range entries {
		arr[i] = e
	}
	o[key] = arr
}

// Clone returns a deep copy of the document.
func (o Organization) Clone() Organization {
	if o == nil {
		return nil
	}
	m, _ := Normalize(map[string]any(o)).(map[string]any)
	return Organization(m)
}

// Normalize converts driver-specific container types (primitive.D,
// primitive.M, primitive.A) into plain maps and slices, recursively, and
// returns a deep copy. Scalars, including ObjectIDs, are returned unchanged.
func Normalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = Normalize(val)
		}
		return out
	case bson.M:
		return Normalize(map[string]any(t))
	case bson.D:
		out := make(map[string]any, len(t))
		for _, e := range t {
			out[e.Key] = Normalize(e.Value)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = Normalize(val)
		}
		return out
	case primitive.A:
		return Normalize([]any(t))
	case []map[string]any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = Normalize(val)
		}
		return out
	default:
		return v
	}
}

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case bson.M:
		return map[string]any(m), true
	case bson.D:
		out := make(map[string]any, len(m))
		for _, e := range m {
			out[e.Key] = e.Value
		}
		return out, true
	default:
		return nil, false
	}
}
