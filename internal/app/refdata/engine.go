// Package refdata keeps the reference sub-collections of an organization
// document consistent: duplicate detection, immutable identifying fields,
// parent references, no-op edit detection and one-way soft delete.
//
// One generic Engine serves every entity kind; a Schema supplies the field
// accessors and wording for each kind.
package refdata

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/refhub/internal/app/system/idgen"
	"github.com/dalemusser/refhub/internal/app/system/timestamps"
	"github.com/dalemusser/refhub/internal/domain/models"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

const (
	msgTenantNotFound = "Tenant code not found"
	msgOrgNotFound    = "Organization data not found"
	msgIDRequired     = "ID is required"

	maxIDAttempts = 8
)

var validate = validator.New()

type options struct {
	newID     IDGenerator
	now       Clock
	observers []Observer
}

// Option configures an Engine.
type Option func(*options)

// WithIDGenerator replaces idgen.New.
func WithIDGenerator(g IDGenerator) Option {
	return func(o *options) { o.newID = g }
}

// WithClock replaces timestamps.NowIST.
func WithClock(c Clock) Option {
	return func(o *options) { o.now = c }
}

// WithObserver adds an observer of mutations.
func WithObserver(obs Observer) Option {
	return func(o *options) {
		if obs != nil {
			o.observers = append(o.observers, obs)
		}
	}
}

// Engine manages one sub-collection of the organization document.
type Engine[E any] struct {
	schema    Schema[E]
	gw        Gateway
	log       *zap.Logger
	newID     IDGenerator
	now       Clock
	observers []Observer
}

// NewEngine returns an engine for schema backed by gw.
func NewEngine[E any](schema Schema[E], gw Gateway, logger *zap.Logger, opts ...Option) *Engine[E] {
	o := options{newID: idgen.New, now: timestamps.NowIST}
	for _, opt := range opts {
		opt(&o)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine[E]{
		schema:    schema,
		gw:        gw,
		log:       logger.With(zap.String("kind", schema.Kind)),
		newID:     o.newID,
		now:       o.now,
		observers: o.observers,
	}
}

// Kind returns the schema's kind label.
func (e *Engine[E]) Kind() string { return e.schema.Kind }

// WithID returns payload addressed to the entry id.
func (e *Engine[E]) WithID(payload E, id string) E {
	e.schema.Meta(&payload).ID = id
	return payload
}

// MapFields replaces every schema field of ent with fn applied to it.
func (e *Engine[E]) MapFields(ent *E, fn func(string) string) {
	for _, f := range e.schema.fields() {
		if v := f.Get(ent); v != "" {
			f.Set(ent, fn(v))
		}
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| Mutations                                                                    |
*─────────────────────────────────────────────────────────────────────────────*/

// Create validates payload and appends it as a new active entry.
func (e *Engine[E]) Create(ctx context.Context, p Principal, payload E) (res Result, err error) {
	s := &e.schema
	p = p.Normalized()
	start := time.Now()
	defer func() { e.observe(ctx, "create", p, s.Meta(&payload).ID, start, res, err) }()

	s.trim(&payload)
	if verr := validate.Struct(&payload); verr != nil {
		return Result{}, invalid(s.Messages.Required)
	}

	v, err := e.load(ctx, p)
	if err != nil {
		return Result{}, err
	}

	if s.Parent != nil {
		parents, err := s.Parent.parents(v.org)
		if err != nil {
			return Result{}, err
		}
		if ok, msg := ValidateParent(s.Parent.Label, parents, s.Parent.Code.Get(&payload), s.Parent.Name.Get(&payload)); !ok {
			return failed(msg), nil
		}
	}

	if IsDuplicateFold(v.scoped(&payload, s.Scope), payload, s.DuplicateOn) {
		return failed(s.DuplicateMsg(&payload)), nil
	}

	id, err := e.nextID(v)
	if err != nil {
		return Result{}, err
	}
	*s.Meta(&payload) = models.Meta{
		ID:        id,
		IsDeleted: false,
		CreatedOn: e.now(),
		CreatedBy: p.ActorID,
	}
	if err := v.add(payload); err != nil {
		return Result{}, err
	}

	saved, err := e.save(ctx, v)
	if err != nil {
		return Result{}, err
	}
	e.log.Info("reference entry created",
		zap.String("tenant", p.TenantCode),
		zap.String("id", id),
		zap.String("actor", p.ActorID))
	return Result{Status: true, Data: saved, TenantCode: p.TenantCode}, nil
}

// Edit changes the mutable fields of an existing active entry. Fields left
// empty in payload keep their stored values.
func (e *Engine[E]) Edit(ctx context.Context, p Principal, payload E) (res Result, err error) {
	s := &e.schema
	p = p.Normalized()
	id := strings.TrimSpace(s.Meta(&payload).ID)
	start := time.Now()
	defer func() { e.observe(ctx, "edit", p, id, start, res, err) }()

	if id == "" {
		return Result{}, invalid(s.Messages.EditMissingID)
	}
	s.trim(&payload)
	if !anySet(&payload, s.EditAny) {
		return Result{}, invalid(s.Messages.EditRequired)
	}

	v, err := e.load(ctx, p)
	if err != nil {
		return Result{}, err
	}
	it := v.find(id)
	if it == nil {
		return failed(s.Messages.NotFound), nil
	}
	stored := &it.entry
	if s.Meta(stored).IsDeleted {
		return failed(s.Messages.EditDeleted), nil
	}

	for _, f := range s.Identifying {
		if want := f.Get(&payload); want != "" && want != f.Get(stored) {
			return failed(f.Changed), nil
		}
	}

	changed := make(map[string]bool, len(s.Mutable))
	for _, f := range s.Mutable {
		if want := f.Get(&payload); want != "" && want != f.Get(stored) {
			changed[f.Name] = true
		}
	}
	if len(changed) == 0 {
		return failed(s.Messages.NoChange), nil
	}

	if ref := s.Parent; ref != nil && changed[ref.Name.Name] {
		parents, err := ref.parents(v.org)
		if err != nil {
			return Result{}, err
		}
		if ok, msg := ValidateParent(ref.Label, parents, ref.Code.Get(stored), ref.Name.Get(&payload)); !ok {
			return failed(msg), nil
		}
	}

	for _, f := range s.Recheck {
		if !changed[f.Name] {
			continue
		}
		want := f.Get(&payload)
		for i := range v.items {
			other := &v.items[i]
			if other.idx == it.idx {
				continue
			}
			if sameFold(f.Get(&other.entry), want) {
				return failed(s.Messages.NameTaken), nil
			}
		}
	}

	keys := make([]string, 0, len(changed))
	for _, f := range s.Mutable {
		if changed[f.Name] {
			f.Set(stored, f.Get(&payload))
			keys = append(keys, f.Name)
		}
	}
	if err := v.put(it, keys...); err != nil {
		return Result{}, err
	}

	saved, err := e.save(ctx, v)
	if err != nil {
		return Result{}, err
	}
	e.log.Info("reference entry updated",
		zap.String("tenant", p.TenantCode),
		zap.String("id", id),
		zap.String("actor", p.ActorID))
	return Result{Status: true, Data: saved, TenantCode: p.TenantCode}, nil
}

// Delete soft-deletes an entry. Apart from its id, payload is expected to be
// empty; see Schema.Guard.
func (e *Engine[E]) Delete(ctx context.Context, p Principal, payload E) (res Result, err error) {
	s := &e.schema
	p = p.Normalized()
	id := strings.TrimSpace(s.Meta(&payload).ID)
	start := time.Now()
	defer func() { e.observe(ctx, "delete", p, id, start, res, err) }()

	if id == "" {
		return Result{}, invalid(s.Messages.DeleteMissingID)
	}
	s.trim(&payload)

	v, err := e.load(ctx, p)
	if err != nil {
		return Result{}, err
	}
	it := v.find(id)
	if it == nil {
		return failed(s.Messages.NotFound), nil
	}
	stored := &it.entry

	for _, f := range s.fields() {
		carried := f.Get(&payload)
		if carried == "" {
			continue
		}
		if s.Guard == GuardPresent || carried != f.Get(stored) {
			return failed(s.Messages.DeleteGuard), nil
		}
	}

	if s.Meta(stored).IsDeleted {
		return failed(s.Messages.AlreadyDeleted), nil
	}
	s.Meta(stored).IsDeleted = true
	if err := v.put(it, models.KeyIsDeleted); err != nil {
		return Result{}, err
	}

	saved, err := e.save(ctx, v)
	if err != nil {
		return Result{}, err
	}
	e.log.Info("reference entry deleted",
		zap.String("tenant", p.TenantCode),
		zap.String("id", id),
		zap.String("actor", p.ActorID))
	return Result{Status: true, Message: s.Messages.Deleted, Data: saved, TenantCode: p.TenantCode}, nil
}

/*─────────────────────────────────────────────────────────────────────────────*
| Reads                                                                        |
*─────────────────────────────────────────────────────────────────────────────*/

// GetAll returns every entry of the kind, deleted ones included.
func (e *Engine[E]) GetAll(ctx context.Context, p Principal) (Result, error) {
	return e.List(ctx, p, nil)
}

// GetActive returns entries that are not deleted.
func (e *Engine[E]) GetActive(ctx context.Context, p Principal) (Result, error) {
	return e.List(ctx, p, func(x *E) bool { return !e.schema.Meta(x).IsDeleted })
}

// GetDeleted returns soft-deleted entries.
func (e *Engine[E]) GetDeleted(ctx context.Context, p Principal) (Result, error) {
	return e.List(ctx, p, func(x *E) bool { return e.schema.Meta(x).IsDeleted })
}

// List returns the entries for which keep reports true; a nil keep returns
// all of them. Data is always a non-nil []E.
func (e *Engine[E]) List(ctx context.Context, p Principal, keep func(*E) bool) (Result, error) {
	p = p.Normalized()
	v, res, err := e.read(ctx, p)
	if v == nil {
		return res, err
	}
	out := make([]E, 0, len(v.items))
	for i := range v.items {
		if keep == nil || keep(&v.items[i].entry) {
			out = append(out, v.items[i].entry)
		}
	}
	return listed(out, len(out), p.TenantCode), nil
}

// GetByID returns the entry with the given id, deleted or not.
func (e *Engine[E]) GetByID(ctx context.Context, p Principal, id string) (Result, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Result{}, invalid(msgIDRequired)
	}
	p = p.Normalized()
	v, res, err := e.read(ctx, p)
	if v == nil {
		return res, err
	}
	it := v.find(id)
	if it == nil {
		return failed(e.schema.Messages.NotFound), nil
	}
	return Result{Status: true, Data: it.entry, TenantCode: p.TenantCode}, nil
}

/*─────────────────────────────────────────────────────────────────────────────*
| Document access                                                              |
*─────────────────────────────────────────────────────────────────────────────*/

type item[E any] struct {
	idx   int // position in view.raw
	entry E
}

// view is one loaded document: the raw sub-collection plus decoded copies of
// the entries this kind owns. Entries of other kinds stay raw and are written
// back untouched.
type view[E any] struct {
	schema *Schema[E]
	org    models.Organization
	raw    []map[string]any
	items  []item[E]
}

func (e *Engine[E]) fetch(ctx context.Context, tenant string) (models.Organization, error) {
	org, err := e.gw.FetchByTenant(ctx, tenant)
	if err != nil {
		return nil, fmt.Errorf("fetch organization for tenant %q: %w", tenant, err)
	}
	return org, nil
}

// load is used by mutations: a missing tenant or document is fatal.
func (e *Engine[E]) load(ctx context.Context, p Principal) (*view[E], error) {
	if p.TenantCode == "" {
		return nil, ErrTenantRequired
	}
	org, err := e.fetch(ctx, p.TenantCode)
	if err != nil {
		return nil, err
	}
	if org == nil {
		return nil, ErrOrganizationNotFound
	}
	return e.view(org)
}

// read is used by getters: a missing tenant or document is a failed Result.
func (e *Engine[E]) read(ctx context.Context, p Principal) (*view[E], Result, error) {
	if p.TenantCode == "" {
		return nil, failed(msgTenantNotFound), nil
	}
	org, err := e.fetch(ctx, p.TenantCode)
	if err != nil {
		return nil, Result{}, err
	}
	if org == nil {
		return nil, failed(msgOrgNotFound), nil
	}
	v, err := e.view(org)
	if err != nil {
		return nil, Result{}, err
	}
	return v, Result{}, nil
}

func (e *Engine[E]) view(org models.Organization) (*view[E], error) {
	s := &e.schema
	raw, err := org.Entries(s.Collection)
	if err != nil {
		return nil, err
	}
	v := &view[E]{schema: s, org: org, raw: raw, items: make([]item[E], 0, len(raw))}
	for i, m := range raw {
		ent, err := decodeEntry[E](m)
		if err != nil {
			return nil, fmt.Errorf("decode %s[%d]: %w", s.Collection, i, err)
		}
		if !s.owns(&ent) {
			continue
		}
		v.items = append(v.items, item[E]{idx: i, entry: ent})
	}
	return v, nil
}

func (e *Engine[E]) save(ctx context.Context, v *view[E]) (models.Organization, error) {
	v.org.SetEntries(e.schema.Collection, v.raw)
	saved, err := e.gw.Save(ctx, v.org)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSaveFailed, err)
	}
	if saved == nil {
		saved = v.org
	}
	return saved, nil
}

var errNoFreeID = errors.New("could not allocate an unused entry id")

// nextID draws an id that no entry of the sub-collection uses yet.
func (e *Engine[E]) nextID(v *view[E]) (string, error) {
	taken := make(map[string]bool, len(v.raw))
	for _, m := range v.raw {
		if id, ok := m["id"].(string); ok {
			taken[id] = true
		}
	}
	seq := len(v.raw) + 1
	for i := 0; i < maxIDAttempts; i++ {
		id := e.newID(seq + i)
		if id != "" && !taken[id] {
			return id, nil
		}
	}
	return "", errNoFreeID
}

func (v *view[E]) find(id string) *item[E] {
	for i := range v.items {
		if v.schema.Meta(&v.items[i].entry).ID == id {
			return &v.items[i]
		}
	}
	return nil
}

// scoped returns the owned entries the candidate is compared against.
func (v *view[E]) scoped(candidate *E, scope func(candidate, existing *E) bool) []E {
	out := make([]E, 0, len(v.items))
	for i := range v.items {
		if scope == nil || scope(candidate, &v.items[i].entry) {
			out = append(out, v.items[i].entry)
		}
	}
	return out
}

// put writes the named keys of it.entry back into the stored map. Every other
// key of the stored entry, known or not, is left exactly as it was.
func (v *view[E]) put(it *item[E], keys ...string) error {
	m, err := encodeEntry(&it.entry)
	if err != nil {
		return fmt.Errorf("encode %s entry: %w", v.schema.Collection, err)
	}
	out := make(map[string]any, len(v.raw[it.idx])+len(keys))
	for k, val := range v.raw[it.idx] {
		out[k] = val
	}
	for _, k := range keys {
		out[k] = m[k]
	}
	v.raw[it.idx] = out
	return nil
}

func (v *view[E]) add(ent E) error {
	m, err := encodeEntry(&ent)
	if err != nil {
		return fmt.Errorf("encode %s entry: %w", v.schema.Collection, err)
	}
	v.raw = append(v.raw, m)
	v.items = append(v.items, item[E]{idx: len(v.raw) - 1, entry: ent})
	return nil
}

func (e *Engine[E]) observe(ctx context.Context, op string, p Principal, id string, start time.Time, res Result, err error) {
	if len(e.observers) == 0 {
		return
	}
	out, reason := outcome(res, err)
	ev := Event{
		Kind:       e.schema.Kind,
		Op:         op,
		TenantCode: p.TenantCode,
		ActorID:    p.ActorID,
		EntryID:    id,
		Outcome:    out,
		Reason:     reason,
		Duration:   time.Since(start),
	}
	for _, o := range e.observers {
		o.Observe(ctx, ev)
	}
}
