package main

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/dalemusser/refhub/internal/app/refdata"
)

// ops adapts one typed engine to raw JSON payloads so subcommands can stay
// kind-agnostic.
type ops struct {
	list   func(ctx context.Context, p refdata.Principal, filter string) (refdata.Result, error)
	get    func(ctx context.Context, p refdata.Principal, id string) (refdata.Result, error)
	create func(ctx context.Context, p refdata.Principal, data []byte) (refdata.Result, error)
	edit   func(ctx context.Context, p refdata.Principal, id string, data []byte) (refdata.Result, error)
	remove func(ctx context.Context, p refdata.Principal, id string, data []byte) (refdata.Result, error)

	// byCountry is set for states only.
	byCountry func(ctx context.Context, p refdata.Principal, country string) (refdata.Result, error)
}

func opsFor[E any](eng *refdata.Engine[E]) ops {
	decode := func(data []byte) (E, error) {
		var ent E
		if len(strings.TrimSpace(string(data))) == 0 {
			return ent, nil
		}
		if err := json.Unmarshal(data, &ent); err != nil {
			return ent, fmt.Errorf("--data: %w", err)
		}
		return ent, nil
	}
	return ops{
		list: func(ctx context.Context, p refdata.Principal, filter string) (refdata.Result, error) {
			switch filter {
			case "", "all":
				return eng.GetAll(ctx, p)
			case "active":
				return eng.GetActive(ctx, p)
			case "deleted":
				return eng.GetDeleted(ctx, p)
			}
			return refdata.Result{}, fmt.Errorf("unknown --filter %q (want all, active or deleted)", filter)
		},
		get: eng.GetByID,
		create: func(ctx context.Context, p refdata.Principal, data []byte) (refdata.Result, error) {
			ent, err := decode(data)
			if err != nil {
				return refdata.Result{}, err
			}
			return eng.Create(ctx, p, eng.WithID(ent, ""))
		},
		edit: func(ctx context.Context, p refdata.Principal, id string, data []byte) (refdata.Result, error) {
			ent, err := decode(data)
			if err != nil {
				return refdata.Result{}, err
			}
			return eng.Edit(ctx, p, eng.WithID(ent, id))
		},
		remove: func(ctx context.Context, p refdata.Principal, id string, data []byte) (refdata.Result, error) {
			ent, err := decode(data)
			if err != nil {
				return refdata.Result{}, err
			}
			return eng.Delete(ctx, p, eng.WithID(ent, id))
		},
	}
}

var kindAliases = map[string]string{
	"reason-codes": "reason-codes",
	"reason-code":  "reason-codes",
	"reasoncodes":  "reason-codes",
	"countries":    "countries",
	"country":      "countries",
	"states":       "states",
	"state":        "states",
	"castes":       "castes",
	"caste":        "castes",
}

// parseKind maps a user-supplied kind to its canonical plural name.
func parseKind(s string) (string, error) {
	if k, ok := kindAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return k, nil
	}
	return "", fmt.Errorf("unknown kind %q (want one of %s)", s, strings.Join(kindNames(), ", "))
}

func kindNames() []string {
	seen := map[string]bool{}
	var out []string
	for _, k := range kindAliases {
		if !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

func opsForKind(engines *refdata.Engines, kind string) ops {
	switch kind {
	case "reason-codes":
		return opsFor(engines.ReasonCodes)
	case "countries":
		return opsFor(engines.Countries)
	case "states":
		o := opsFor(engines.States.Engine)
		o.byCountry = engines.States.GetByCountry
		return o
	default:
		return opsFor(engines.Castes)
	}
}
