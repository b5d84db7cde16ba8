package query

import (
	"fmt"
	"net/url"
	"testing"
	"time"

	"trading-journal-go/internal/database/dbtest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type row struct {
	ID       string    `gorm:"primaryKey" json:"id"`
	Owner    string    `json:"-"`
	Symbol   string    `json:"symbol"`
	Profit   float64   `json:"profit"`
	OpenTime time.Time `json:"openTime"`
	Closed   bool      `json:"closed"`
}

var testSchema = NewSchema("-openTime",
	Field{Name: "id", Column: "id", Kind: String},
	Field{Name: "symbol", Column: "symbol", Kind: String},
	Field{Name: "profit", Column: "profit", Kind: Number},
	Field{Name: "openTime", Column: "open_time", Kind: Time},
	Field{Name: "closed", Column: "closed", Kind: Bool},
)

func mustParse(t *testing.T, raw string) *Query {
	t.Helper()
	values, err := url.ParseQuery(raw)
	require.NoError(t, err)
	q, err := Parse(values, testSchema)
	require.NoError(t, err)
	return q
}

func TestParse(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		q := mustParse(t, "")
		assert.Equal(t, DefaultPage, q.Page)
		assert.Equal(t, DefaultLimit, q.Limit)
		assert.Empty(t, q.Predicates)
		require.Len(t, q.Sort, 1)
		assert.Equal(t, "open_time", q.Sort[0].Field.Column)
		assert.True(t, q.Sort[0].Desc)
	})

	t.Run("Reserved keys are not filters", func(t *testing.T) {
		q := mustParse(t, "select=symbol&sort=profit&page=2&limit=5")
		assert.Empty(t, q.Predicates)
		assert.Equal(t, 2, q.Page)
		assert.Equal(t, 5, q.Limit)
		require.Len(t, q.Fields, 1)
		assert.Equal(t, []string{"id", "symbol"}, q.columns())
	})

	t.Run("Operators become typed predicates", func(t *testing.T) {
		q := mustParse(t, "profit[gt]=0&symbol=EURUSD&openTime[lte]=2024-03-01&closed=true")
		require.Len(t, q.Predicates, 4)

		byField := map[string]Predicate{}
		for _, p := range q.Predicates {
			byField[p.Field.Name] = p
		}
		assert.Equal(t, Gt, byField["profit"].Op)
		assert.Equal(t, []any{0.0}, byField["profit"].Values)
		assert.Equal(t, Eq, byField["symbol"].Op)
		assert.Equal(t, Lte, byField["openTime"].Op)
		assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), byField["openTime"].Values[0])
		assert.Equal(t, []any{true}, byField["closed"].Values)
	})

	t.Run("In accepts lists and repeats", func(t *testing.T) {
		q := mustParse(t, "symbol[in]=EURUSD,GBPUSD&symbol[in]=USDJPY")
		require.Len(t, q.Predicates, 1)
		assert.Equal(t, In, q.Predicates[0].Op)
		assert.Equal(t, []any{"EURUSD", "GBPUSD", "USDJPY"}, q.Predicates[0].Values)

		q = mustParse(t, "symbol=EURUSD&symbol=GBPUSD")
		assert.Equal(t, In, q.Predicates[0].Op)
	})

	t.Run("Bad page and limit fall back", func(t *testing.T) {
		q := mustParse(t, "page=0&limit=abc")
		assert.Equal(t, 1, q.Page)
		assert.Equal(t, 10, q.Limit)
	})

	t.Run("Page and limit are capped", func(t *testing.T) {
		q := mustParse(t, "page=922337203685477581&limit=1000000000000")
		assert.Equal(t, MaxPage, q.Page)
		assert.Equal(t, MaxLimit, q.Limit)

		q = mustParse(t, "limit=100")
		assert.Equal(t, 100, q.Limit)
	})

	t.Run("Multi-field sort", func(t *testing.T) {
		q := mustParse(t, "sort=-profit,symbol")
		require.Len(t, q.Sort, 2)
		assert.True(t, q.Sort[0].Desc)
		assert.Equal(t, "symbol", q.Sort[1].Field.Name)
		assert.False(t, q.Sort[1].Desc)
	})
}

func TestParse_Rejects(t *testing.T) {
	testCases := []struct {
		name string
		raw  string
	}{
		{name: "Unknown field", raw: "owner=someone-else"},
		{name: "Unknown operator", raw: "profit[ne]=0"},
		{name: "Operator injection", raw: "profit[$where]=1"},
		{name: "Malformed bracket", raw: "profit[gt=0"},
		{name: "Non-numeric value", raw: "profit[gt]=lots"},
		{name: "Bad date", raw: "openTime[gte]=yesterday"},
		{name: "Unknown select", raw: "select=symbol,password"},
		{name: "Unknown sort", raw: "sort=-owner"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			values, err := url.ParseQuery(tc.raw)
			require.NoError(t, err)
			_, err = Parse(values, testSchema)
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}
}

func TestPagination(t *testing.T) {
	testCases := []struct {
		name     string
		page     int
		limit    int
		total    int64
		wantNext *PageRef
		wantPrev *PageRef
	}{
		{name: "First of two", page: 1, limit: 10, total: 15, wantNext: &PageRef{Page: 2, Limit: 10}},
		{name: "Last page", page: 2, limit: 10, total: 15, wantPrev: &PageRef{Page: 1, Limit: 10}},
		{name: "Middle", page: 2, limit: 5, total: 15, wantNext: &PageRef{Page: 3, Limit: 5}, wantPrev: &PageRef{Page: 1, Limit: 5}},
		{name: "Exact fit", page: 1, limit: 10, total: 10},
		{name: "Empty", page: 1, limit: 10, total: 0},
		{name: "Past the end", page: MaxPage, limit: MaxLimit, total: 3, wantPrev: &PageRef{Page: MaxPage - 1, Limit: MaxLimit}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			q := &Query{Page: tc.page, Limit: tc.limit}
			p := q.Pagination(tc.total)
			assert.Equal(t, tc.wantNext, p.Next)
			assert.Equal(t, tc.wantPrev, p.Prev)
		})
	}
}

func TestQueryAgainstStore(t *testing.T) {
	db := dbtest.New(t)
	require.NoError(t, db.AutoMigrate(&row{}))

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 15; i++ {
		r := row{
			ID:       fmt.Sprintf("r%02d", i),
			Owner:    "alice",
			Symbol:   []string{"EURUSD", "USDJPY", "GBPUSD"}[i%3],
			Profit:   float64(i - 7),
			OpenTime: base.Add(time.Duration(i) * time.Hour),
		}
		require.NoError(t, db.Create(&r).Error)
	}
	require.NoError(t, db.Create(&row{ID: "x1", Owner: "bob", Profit: 100, OpenTime: base}).Error)

	run := func(raw string) ([]row, int64, *Query) {
		q := mustParse(t, raw)
		var total int64
		require.NoError(t, db.Model(&row{}).Where("owner = ?", "alice").Scopes(q.Filter).Count(&total).Error)
		var rows []row
		require.NoError(t, db.Where("owner = ?", "alice").Scopes(q.Filter, q.Order, q.Paginate, q.Project).Find(&rows).Error)
		return rows, total, q
	}

	t.Run("Strictly positive profit", func(t *testing.T) {
		rows, total, _ := run("profit[gt]=0&limit=100")
		assert.Equal(t, int64(7), total)
		for _, r := range rows {
			assert.Greater(t, r.Profit, 0.0)
		}
	})

	t.Run("Second page of fifteen", func(t *testing.T) {
		rows, total, q := run("page=2&limit=10")
		assert.Len(t, rows, 5)
		p := q.Pagination(total)
		assert.Nil(t, p.Next)
		assert.Equal(t, &PageRef{Page: 1, Limit: 10}, p.Prev)
	})

	t.Run("Default newest first", func(t *testing.T) {
		rows, _, _ := run("limit=3")
		require.Len(t, rows, 3)
		assert.Equal(t, "r14", rows[0].ID)
		assert.Equal(t, "r12", rows[2].ID)
	})

	t.Run("Sort ascending by profit then symbol", func(t *testing.T) {
		rows, _, _ := run("sort=profit,symbol&limit=2")
		assert.Equal(t, "r00", rows[0].ID)
		assert.Equal(t, "r01", rows[1].ID)
	})

	t.Run("In and date range", func(t *testing.T) {
		rows, total, _ := run("symbol[in]=USDJPY,GBPUSD&openTime[gte]=2024-01-01T05:00:00Z&limit=100")
		assert.Equal(t, int64(7), total)
		for _, r := range rows {
			assert.NotEqual(t, "EURUSD", r.Symbol)
			assert.False(t, r.OpenTime.Before(base.Add(5*time.Hour)))
		}
	})

	t.Run("Projection keeps id", func(t *testing.T) {
		rows, _, q := run("select=symbol&limit=1")
		require.Len(t, rows, 1)
		assert.NotEmpty(t, rows[0].ID)
		assert.NotEmpty(t, rows[0].Symbol)
		assert.Zero(t, rows[0].Profit)

		projected, err := q.ProjectRecords(rows)
		require.NoError(t, err)
		out := projected.([]map[string]any)
		assert.Equal(t, map[string]any{"id": rows[0].ID, "symbol": rows[0].Symbol}, out[0])
	})
}
