// Package codebooktest provides in-memory fakes for codebook tests.
package codebooktest

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	"workshop/internal/core/apperror"
	"workshop/internal/domain/codebook"
)

// NopTxManager satisfies tx.Manager without a database. Rollback is not
// simulated, tests assert error propagation instead.
type NopTxManager struct{}

func (NopTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (NopTxManager) ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// MemRepo is an in-memory codebook.Repository.
type MemRepo[T codebook.Row] struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]T
	name   string

	// InUseFunc overrides the referrer check, default reports unused.
	InUseFunc func(row T) (bool, string)
}

// NewMemRepo creates an empty repository.
func NewMemRepo[T codebook.Row](name string) *MemRepo[T] {
	return &MemRepo[T]{rows: make(map[int64]T), name: name}
}

var _ codebook.Repository[codebook.Row] = (*MemRepo[codebook.Row])(nil)

func (r *MemRepo[T]) Create(ctx context.Context, row T) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.rows {
		if existing.NaturalKey() == row.NaturalKey() {
			return apperror.NewDuplicateKey(r.name, "key", row.NaturalKey())
		}
	}

	r.nextID++
	row.SetID(r.nextID)
	r.rows[r.nextID] = clone(row)
	return nil
}

func (r *MemRepo[T]) Update(ctx context.Context, row T) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.rows[row.GetID()]
	if !ok {
		return apperror.NewNotFound(r.name, row.GetID())
	}
	if existing.GetVersion() != row.GetVersion() {
		return apperror.NewConcurrentModification(r.name, row.GetID())
	}

	row.SetVersion(row.GetVersion() + 1)
	r.rows[row.GetID()] = clone(row)
	return nil
}

func (r *MemRepo[T]) GetByID(ctx context.Context, id int64) (T, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	row, ok := r.rows[id]
	if !ok {
		var zero T
		return zero, apperror.NewNotFound(r.name, id)
	}
	return clone(row), nil
}

func (r *MemRepo[T]) GetByKey(ctx context.Context, conds map[string]any) (T, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, row := range r.sorted() {
		if matches(row, conds) {
			return clone(row), nil
		}
	}
	var zero T
	return zero, apperror.NewNotFound(r.name, conds)
}

func (r *MemRepo[T]) List(ctx context.Context, filter codebook.ListFilter) (codebook.ListResult[T], error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var items []T
	for _, row := range r.sorted() {
		if filter.ActiveOnly && !row.IsActive() {
			continue
		}
		if filter.Search != "" &&
			!strings.Contains(strings.ToLower(row.NaturalKey()), strings.ToLower(filter.Search)) {
			continue
		}
		items = append(items, clone(row))
	}

	total := int64(len(items))
	if filter.Offset > 0 && filter.Offset < len(items) {
		items = items[filter.Offset:]
	} else if filter.Offset >= len(items) {
		items = nil
	}
	if filter.Limit > 0 && filter.Limit < len(items) {
		items = items[:filter.Limit]
	}

	return codebook.ListResult[T]{
		Items:      items,
		TotalCount: total,
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	}, nil
}

func (r *MemRepo[T]) All(ctx context.Context) ([]T, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]T, 0, len(r.rows))
	for _, row := range r.sorted() {
		out = append(out, clone(row))
	}
	return out, nil
}

func (r *MemRepo[T]) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.rows[id]; !ok {
		return apperror.NewNotFound(r.name, id)
	}
	delete(r.rows, id)
	return nil
}

func (r *MemRepo[T]) SetActive(ctx context.Context, id int64, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	row, ok := r.rows[id]
	if !ok {
		return apperror.NewNotFound(r.name, id)
	}
	if err := setField(row, "active", active); err != nil {
		return err
	}
	row.SetVersion(row.GetVersion() + 1)
	r.rows[id] = row
	return nil
}

func (r *MemRepo[T]) InUse(ctx context.Context, row T) (bool, string, error) {
	if r.InUseFunc != nil {
		used, where := r.InUseFunc(row)
		return used, where, nil
	}
	return false, "", nil
}

// Len reports the stored row count.
func (r *MemRepo[T]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rows)
}

func (r *MemRepo[T]) sorted() []T {
	ids := make([]int64, 0, len(r.rows))
	for id := range r.rows {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]T, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.rows[id])
	}
	return out
}

// matches compares db-tagged fields against conditions.
func matches(row any, conds map[string]any) bool {
	values := fieldsByDBTag(row)
	for col, want := range conds {
		got, ok := values[col]
		if !ok {
			return false
		}
		if fmt.Sprint(normalize(got)) != fmt.Sprint(normalize(want)) {
			return false
		}
	}
	return true
}

func normalize(v any) any {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer && !rv.IsNil() {
		rv = rv.Elem()
	}
	if !rv.IsValid() {
		return nil
	}
	return rv.Interface()
}

func fieldsByDBTag(v any) map[string]any {
	out := make(map[string]any)
	collectFields(reflect.ValueOf(v), out)
	return out
}

func collectFields(rv reflect.Value, out map[string]any) {
	for rv.Kind() == reflect.Pointer {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return
	}
	t := rv.Type()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.Anonymous {
			collectFields(rv.Field(i), out)
			continue
		}
		tag := f.Tag.Get("db")
		if tag == "" || tag == "-" {
			continue
		}
		out[tag] = rv.Field(i).Interface()
	}
}

func setField(row any, dbTag string, value any) error {
	rv := reflect.ValueOf(row)
	for rv.Kind() == reflect.Pointer {
		rv = rv.Elem()
	}
	return setFieldIn(rv, dbTag, value)
}

func setFieldIn(rv reflect.Value, dbTag string, value any) error {
	t := rv.Type()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.Anonymous {
			if err := setFieldIn(rv.Field(i), dbTag, value); err == nil {
				return nil
			}
			continue
		}
		if f.Tag.Get("db") == dbTag {
			rv.Field(i).Set(reflect.ValueOf(value))
			return nil
		}
	}
	return fmt.Errorf("no field with db tag %q", dbTag)
}

// clone deep-copies a row so stored state never aliases caller state.
func clone[T any](row T) T {
	rv := reflect.ValueOf(row)
	if rv.Kind() != reflect.Pointer {
		return row
	}
	copied := reflect.New(rv.Type().Elem())
	copied.Elem().Set(rv.Elem())
	return copied.Interface().(T)
}
