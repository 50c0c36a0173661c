// Package query turns a raw list-request parameter map into a filtered, sorted, projected and
// paginated gorm query, and computes the matching page metadata.
package query

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cast"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/schema"

	"github.com/steemit/circlemind/internal/apperr"
)

// DefaultLimit is used by Paginate callers that have no configured default.
const DefaultLimit = 20

// PageMeta summarises one page of a list result.
type PageMeta struct {
	TotalItems   int64 `json:"totalItems"`
	TotalPages   int   `json:"totalPages"`
	CurrentPage  int   `json:"currentPage"`
	ItemsPerPage int   `json:"itemsPerPage"`
}

// Page is a list result with its metadata.
type Page[T any] struct {
	Meta PageMeta `json:"meta"`
	Data []T      `json:"data"`
}

// Option configures a Builder.
type Option func(*options)

type options struct {
	maxLimit int
	hidden   []string
}

// WithMaxLimit caps positive limits at max. Zero disables the cap.
func WithMaxLimit(max int) Option {
	return func(o *options) { o.maxLimit = max }
}

// Builder applies search, filter, sort, pagination and projection to a gorm query over T.
//
// Conditions from Search and Filter are recorded on both the find query and a separate count
// query, so PaginateMeta always counts the filtered, unpaginated set regardless of the order in
// which the steps were called. The first error is kept and returned by Find and PaginateMeta.
type Builder[T any] struct {
	find   *gorm.DB
	count  *gorm.DB
	params Params
	schema *schema.Schema
	opts   options
	err    error

	paginated    bool
	page         int
	limit        int
	defaultLimit int
}

// New wraps db, which may already carry conditions, for the model T.
func New[T any](db *gorm.DB, params Params, opts ...Option) *Builder[T] {
	o := options{hidden: []string{"version"}}
	for _, opt := range opts {
		opt(&o)
	}
	if params == nil {
		params = Params{}
	}

	b := &Builder[T]{
		find:         db.Session(&gorm.Session{}).Model(new(T)),
		count:        db.Session(&gorm.Session{}).Model(new(T)),
		params:       params,
		opts:         o,
		defaultLimit: DefaultLimit,
	}

	stmt := &gorm.Statement{DB: db}
	if err := stmt.Parse(new(T)); err != nil {
		b.err = fmt.Errorf("query: parse model: %w", err)
	} else {
		b.schema = stmt.Schema
	}
	return b
}

// Err returns the first error recorded by the builder.
func (b *Builder[T]) Err() error {
	return b.err
}

func (b *Builder[T]) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}

// where records a condition on both the find and the count query.
func (b *Builder[T]) where(expr clause.Expression) {
	b.find = b.find.Clauses(clause.Where{Exprs: []clause.Expression{expr}})
	b.count = b.count.Clauses(clause.Where{Exprs: []clause.Expression{expr}})
}

// field resolves a column name, Go field name or camelCase name against the schema of T.
func (b *Builder[T]) field(name string) (*schema.Field, error) {
	if b.schema == nil {
		return nil, b.err
	}
	f := b.schema.LookUpField(name)
	if f == nil || f.DBName == "" {
		return nil, apperr.Validation("unknown field %q", name)
	}
	return f, nil
}

// Search keeps records where any of fields contains the searchTerm parameter as a literal,
// case-insensitive substring. An absent or empty term matches everything.
func (b *Builder[T]) Search(fields ...string) *Builder[T] {
	term := b.params[KeySearch]
	if term == "" || len(fields) == 0 {
		return b
	}

	pattern := "%" + escapeLike(strings.ToLower(term)) + "%"
	exprs := make([]clause.Expression, 0, len(fields))
	for _, name := range fields {
		f, err := b.field(name)
		if err != nil {
			b.fail(err)
			return b
		}
		exprs = append(exprs, clause.Expr{
			SQL:  `LOWER(?) LIKE ? ESCAPE '\'`,
			Vars: []interface{}{clause.Column{Name: f.DBName}, pattern},
		})
	}

	if len(exprs) == 1 {
		b.where(exprs[0])
	} else {
		b.where(clause.Or(exprs...))
	}
	return b
}

// Filter applies every non-reserved parameter as a filter. A key may carry an operator as
// "field[op]" with op one of eq, ne, gt, gte, lt, lte, in, nin; in and nin take
// comma-separated values.
func (b *Builder[T]) Filter() *Builder[T] {
	keys := make([]string, 0, len(b.params))
	for k := range b.params {
		if !reserved[k] {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	for _, key := range keys {
		expr, err := b.filterExpr(key, b.params[key])
		if err != nil {
			b.fail(err)
			return b
		}
		b.where(expr)
	}
	return b
}

func (b *Builder[T]) filterExpr(key, raw string) (clause.Expression, error) {
	name, op := key, "eq"
	if i := strings.IndexByte(key, '['); i > 0 && strings.HasSuffix(key, "]") {
		name, op = key[:i], key[i+1:len(key)-1]
	}

	f, err := b.field(name)
	if err != nil {
		return nil, err
	}
	col := clause.Column{Name: f.DBName}

	if op == "in" || op == "nin" {
		parts := splitList(raw)
		values := make([]interface{}, 0, len(parts))
		for _, part := range parts {
			v, err := coerce(f, part)
			if err != nil {
				return nil, err
			}
			values = append(values, v)
		}
		if op == "in" {
			return clause.IN{Column: col, Values: values}, nil
		}
		return clause.Not(clause.IN{Column: col, Values: values}), nil
	}

	v, err := coerce(f, raw)
	if err != nil {
		return nil, err
	}
	switch op {
	case "eq":
		return clause.Eq{Column: col, Value: v}, nil
	case "ne":
		return clause.Neq{Column: col, Value: v}, nil
	case "gt":
		return clause.Gt{Column: col, Value: v}, nil
	case "gte":
		return clause.Gte{Column: col, Value: v}, nil
	case "lt":
		return clause.Lt{Column: col, Value: v}, nil
	case "lte":
		return clause.Lte{Column: col, Value: v}, nil
	default:
		return nil, apperr.Validation("unsupported operator %q on field %q", op, name)
	}
}

var timeType = reflect.TypeOf(time.Time{})

// coerce converts a raw parameter to the Go type of the column.
func coerce(f *schema.Field, raw string) (interface{}, error) {
	if f.Serializer != nil {
		return nil, apperr.Validation("field %q cannot be filtered", f.Name)
	}

	t := f.FieldType
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	var (
		v   interface{}
		err error
	)
	switch {
	case t == timeType:
		v, err = cast.ToTimeE(raw)
	case t.Kind() == reflect.String:
		v = raw
	case t.Kind() == reflect.Bool:
		v, err = cast.ToBoolE(raw)
	case t.Kind() >= reflect.Int && t.Kind() <= reflect.Int64:
		v, err = cast.ToInt64E(raw)
	case t.Kind() >= reflect.Uint && t.Kind() <= reflect.Uint64:
		v, err = cast.ToUint64E(raw)
	case t.Kind() == reflect.Float32 || t.Kind() == reflect.Float64:
		v, err = cast.ToFloat64E(raw)
	default:
		return nil, apperr.Validation("field %q cannot be filtered", f.Name)
	}
	if err != nil {
		return nil, apperr.Validation("invalid value %q for field %q", raw, f.Name)
	}
	return v, nil
}

// Sort orders by the comma-separated sort parameter, or by defaultSort when it is absent.
// A leading "-" sorts that field descending.
func (b *Builder[T]) Sort(defaultSort string) *Builder[T] {
	raw := b.params[KeySort]
	if strings.TrimSpace(raw) == "" {
		raw = defaultSort
	}

	for _, part := range splitList(raw) {
		desc := strings.HasPrefix(part, "-")
		f, err := b.field(strings.TrimPrefix(part, "-"))
		if err != nil {
			b.fail(err)
			return b
		}
		b.find = b.find.Order(clause.OrderByColumn{Column: clause.Column{Name: f.DBName}, Desc: desc})
	}
	return b
}

// Paginate applies page (default 1) and limit (default defaultLimit). A limit of 0 returns
// every matching record.
func (b *Builder[T]) Paginate(defaultLimit int) *Builder[T] {
	b.defaultLimit = defaultLimit
	b.page, b.limit = b.pageAndLimit()
	b.paginated = true

	if b.limit > 0 {
		b.find = b.find.Limit(b.limit).Offset((b.page - 1) * b.limit)
	}
	return b
}

func (b *Builder[T]) pageAndLimit() (int, int) {
	if b.paginated {
		return b.page, b.limit
	}
	page := ParseIntDefault(b.params[KeyPage], 1, 1)
	limit := ParseIntDefault(b.params[KeyLimit], b.defaultLimit, 0)
	if b.opts.maxLimit > 0 && limit > b.opts.maxLimit {
		limit = b.opts.maxLimit
	}
	return page, limit
}

// Fields projects the comma-separated fields parameter. Names prefixed with "-" are excluded
// instead; the two forms may not be mixed. Without the parameter the hidden columns are
// excluded.
func (b *Builder[T]) Fields() *Builder[T] {
	parts := splitList(b.params[KeyFields])
	if len(parts) == 0 {
		var omit []string
		for _, col := range b.opts.hidden {
			if b.schema != nil && b.schema.LookUpField(col) != nil {
				omit = append(omit, col)
			}
		}
		if len(omit) > 0 {
			b.find = b.find.Omit(omit...)
		}
		return b
	}

	var include, exclude []string
	for _, part := range parts {
		name := strings.TrimPrefix(part, "-")
		f, err := b.field(name)
		if err != nil {
			b.fail(err)
			return b
		}
		if strings.HasPrefix(part, "-") {
			exclude = append(exclude, f.DBName)
		} else {
			include = append(include, f.DBName)
		}
	}

	switch {
	case len(include) > 0 && len(exclude) > 0:
		b.fail(apperr.Validation("fields cannot mix inclusion and exclusion"))
	case len(include) > 0:
		if pk := b.schema.PrioritizedPrimaryField; pk != nil && !contains(include, pk.DBName) {
			include = append([]string{pk.DBName}, include...)
		}
		b.find = b.find.Select(include)
	default:
		b.find = b.find.Omit(exclude...)
	}
	return b
}

// Find executes the query.
func (b *Builder[T]) Find(ctx context.Context) ([]T, error) {
	if b.err != nil {
		return nil, b.err
	}
	items := make([]T, 0)
	if err := b.find.WithContext(ctx).Find(&items).Error; err != nil {
		return nil, fmt.Errorf("query: find: %w", err)
	}
	return items, nil
}

// PaginateMeta counts the filtered records and validates the requested page against them.
func (b *Builder[T]) PaginateMeta(ctx context.Context) (PageMeta, error) {
	if b.err != nil {
		return PageMeta{}, b.err
	}

	var total int64
	if err := b.count.WithContext(ctx).Count(&total).Error; err != nil {
		return PageMeta{}, fmt.Errorf("query: count: %w", err)
	}
	page, limit := b.pageAndLimit()
	return computeMeta(total, page, limit, b.defaultLimit)
}

// Page runs PaginateMeta and, when the page exists, Find.
func (b *Builder[T]) Page(ctx context.Context) (*Page[T], error) {
	meta, err := b.PaginateMeta(ctx)
	if err != nil {
		return nil, err
	}
	items, err := b.Find(ctx)
	if err != nil {
		return nil, err
	}
	return &Page[T]{Meta: meta, Data: items}, nil
}

func computeMeta(total int64, page, limit, defaultLimit int) (PageMeta, error) {
	perPage := limit
	if perPage == 0 {
		perPage = int(total)
		if perPage == 0 {
			perPage = defaultLimit
		}
	}

	if total == 0 {
		return PageMeta{TotalItems: 0, TotalPages: 0, CurrentPage: 1, ItemsPerPage: perPage}, nil
	}

	totalPages := int((total + int64(perPage) - 1) / int64(perPage))
	if page > totalPages {
		return PageMeta{}, apperr.OutOfRangePage(page, totalPages)
	}
	return PageMeta{TotalItems: total, TotalPages: totalPages, CurrentPage: page, ItemsPerPage: perPage}, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
