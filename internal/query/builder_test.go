package query

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/steemit/circlemind/internal/apperr"
	"github.com/steemit/circlemind/internal/db/dbtest"
)

type article struct {
	ID        uint `gorm:"primaryKey"`
	Title     string
	Views     int
	Published bool
	Version   int
	CreatedAt time.Time
}

func seedArticles(t *testing.T, titles ...string) *gorm.DB {
	t.Helper()
	gdb := dbtest.Open(t).DB
	require.NoError(t, gdb.AutoMigrate(&article{}))
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, title := range titles {
		a := article{
			Title:     title,
			Views:     i * 10,
			Published: i%2 == 0,
			Version:   3,
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		}
		require.NoError(t, gdb.Create(&a).Error)
	}
	return gdb
}

func titlesOf(items []article) []string {
	out := make([]string, len(items))
	for i, a := range items {
		out[i] = a.Title
	}
	return out
}

func TestParseIntDefault(t *testing.T) {
	tests := []struct {
		raw  string
		def  int
		min  int
		want int
	}{
		{"", 20, 0, 20},
		{"abc", 20, 0, 20},
		{"0", 20, 0, 0},
		{"0", 1, 1, 1},
		{"-3", 20, 0, 20},
		{" 7 ", 20, 0, 7},
		{"010", 20, 0, 10},
		{"2.5", 20, 0, 20},
	}
	for _, tt := range tests {
		if got := ParseIntDefault(tt.raw, tt.def, tt.min); got != tt.want {
			t.Errorf("ParseIntDefault(%q, %d, %d) = %d, want %d", tt.raw, tt.def, tt.min, got, tt.want)
		}
	}
}

func TestSearchTreatsMetacharactersLiterally(t *testing.T) {
	gdb := seedArticles(t, "100% pure", "1000 pure", "a_b", "axb", "a.*b", `back\slash`, "Plain Text")
	ctx := context.Background()

	tests := []struct {
		term string
		want []string
	}{
		{"100%", []string{"100% pure"}},
		{"a_b", []string{"a_b"}},
		{".*", []string{"a.*b"}},
		{`\s`, []string{`back\slash`}},
		{"plain", []string{"Plain Text"}},
		{"[a-z]", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.term, func(t *testing.T) {
			items, err := New[article](gdb, Params{KeySearch: tt.term}).Search("title").Sort("title").Find(ctx)
			require.NoError(t, err)
			assert.ElementsMatch(t, tt.want, titlesOf(items))
		})
	}

	all, err := New[article](gdb, Params{KeySearch: ""}).Search("title").Find(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 7)
}

func TestPaginateMetaZeroItems(t *testing.T) {
	gdb := seedArticles(t, "one", "two")
	b := New[article](gdb, Params{"title": "missing", KeyPage: "5"}).Filter().Paginate(20)

	meta, err := b.PaginateMeta(context.Background())
	require.NoError(t, err)
	assert.Equal(t, PageMeta{TotalItems: 0, TotalPages: 0, CurrentPage: 1, ItemsPerPage: 20}, meta)
}

func TestPaginateMetaOutOfRange(t *testing.T) {
	gdb := seedArticles(t, "a", "b", "c")
	ctx := context.Background()

	_, err := New[article](gdb, Params{KeyLimit: "2", KeyPage: "3"}).Paginate(20).PaginateMeta(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrOutOfRangePage))
	assert.Contains(t, err.Error(), "3")
	assert.Contains(t, err.Error(), "2")

	page, err := New[article](gdb, Params{KeyLimit: "2", KeyPage: "2"}).Sort("title").Paginate(20).Page(ctx)
	require.NoError(t, err)
	assert.Equal(t, PageMeta{TotalItems: 3, TotalPages: 2, CurrentPage: 2, ItemsPerPage: 2}, page.Meta)
	assert.Equal(t, []string{"c"}, titlesOf(page.Data))
}

func TestLimitZeroReturnsEverything(t *testing.T) {
	gdb := seedArticles(t, "a", "b", "c", "d")
	page, err := New[article](gdb, Params{KeyLimit: "0"}).Paginate(2).Page(context.Background())
	require.NoError(t, err)
	assert.Len(t, page.Data, 4)
	assert.Equal(t, 4, page.Meta.ItemsPerPage)
	assert.Equal(t, 1, page.Meta.TotalPages)
}

func TestMaxLimitClamp(t *testing.T) {
	gdb := seedArticles(t, "a", "b", "c", "d")
	page, err := New[article](gdb, Params{KeyLimit: "500"}, WithMaxLimit(3)).Paginate(2).Page(context.Background())
	require.NoError(t, err)
	assert.Len(t, page.Data, 3)
	assert.Equal(t, 3, page.Meta.ItemsPerPage)
}

func TestMetaCountsFilteredSetRegardlessOfOrder(t *testing.T) {
	gdb := seedArticles(t, "a", "b", "c", "d", "e")
	params := Params{"published": "true", KeyLimit: "1"}

	// paginate before filtering; the count must still see the filter
	b := New[article](gdb, params).Paginate(20).Filter()
	meta, err := b.PaginateMeta(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), meta.TotalItems)
	assert.Equal(t, 3, meta.TotalPages)
}

func TestFilterOperators(t *testing.T) {
	gdb := seedArticles(t, "a", "b", "c", "d", "e")
	ctx := context.Background()

	tests := []struct {
		name   string
		params Params
		want   []string
	}{
		{"eq", Params{"title": "c"}, []string{"c"}},
		{"gte", Params{"views[gte]": "20"}, []string{"c", "d", "e"}},
		{"lt", Params{"views[lt]": "20"}, []string{"a", "b"}},
		{"ne", Params{"title[ne]": "a"}, []string{"b", "c", "d", "e"}},
		{"in", Params{"title[in]": "a,e"}, []string{"a", "e"}},
		{"nin", Params{"title[nin]": "a,e"}, []string{"b", "c", "d"}},
		{"bool", Params{"published": "false"}, []string{"b", "d"}},
		{"camelCase", Params{"createdAt[gt]": "2024-01-01T02:30:00Z"}, []string{"d", "e"}},
		{"combined", Params{"views[gt]": "0", "published": "true"}, []string{"c", "e"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, err := New[article](gdb, tt.params).Filter().Sort("title").Find(ctx)
			require.NoError(t, err)
			assert.Equal(t, tt.want, titlesOf(items))
		})
	}
}

func TestValidationErrors(t *testing.T) {
	gdb := seedArticles(t, "a")
	ctx := context.Background()

	tests := []struct {
		name  string
		build func() *Builder[article]
	}{
		{"unknown filter", func() *Builder[article] { return New[article](gdb, Params{"nope": "1"}).Filter() }},
		{"bad operator", func() *Builder[article] { return New[article](gdb, Params{"views[like]": "1"}).Filter() }},
		{"bad value", func() *Builder[article] { return New[article](gdb, Params{"views": "many"}).Filter() }},
		{"unknown sort", func() *Builder[article] { return New[article](gdb, Params{KeySort: "-nope"}).Sort("title") }},
		{"mixed fields", func() *Builder[article] { return New[article](gdb, Params{KeyFields: "title,-views"}).Fields() }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.build().Find(ctx)
			require.Error(t, err)
			assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
		})
	}
}

func TestSortDefaultAndExplicit(t *testing.T) {
	gdb := seedArticles(t, "b", "a", "c")
	ctx := context.Background()

	items, err := New[article](gdb, nil).Sort("-created_at").Find(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a", "b"}, titlesOf(items))

	items, err = New[article](gdb, Params{KeySort: "title"}).Sort("-created_at").Find(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, titlesOf(items))
}

func TestFieldsProjection(t *testing.T) {
	gdb := seedArticles(t, "a")
	ctx := context.Background()

	items, err := New[article](gdb, nil).Fields().Find(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 0, items[0].Version, "version is hidden by default")
	assert.Equal(t, "a", items[0].Title)

	items, err = New[article](gdb, Params{KeyFields: "title"}).Fields().Find(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.NotZero(t, items[0].ID, "primary key is always selected")
	assert.Equal(t, "a", items[0].Title)
	assert.True(t, items[0].CreatedAt.IsZero())

	items, err = New[article](gdb, Params{KeyFields: "-title"}).Fields().Find(ctx)
	require.NoError(t, err)
	assert.Empty(t, items[0].Title)
	assert.Equal(t, 3, items[0].Version)
}
