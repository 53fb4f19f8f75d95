package catalog

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db, mock
}

func TestCreateValidation(t *testing.T) {
	svc := NewService(nil, nil) // validation rejects before any I/O

	valid := CreateItemInput{
		Title:     "Study table",
		Price:     1500,
		Category:  "Furniture",
		Condition: "Used",
		Images:    []ImageUpload{{Name: "a.jpg", ContentType: "image/jpeg", Data: []byte{1}}},
	}

	cases := []struct {
		name   string
		mutate func(*CreateItemInput)
	}{
		{"empty title", func(in *CreateItemInput) { in.Title = "   " }},
		{"negative price", func(in *CreateItemInput) { in.Price = -1 }},
		{"unknown category", func(in *CreateItemInput) { in.Category = "Boats" }},
		{"unknown condition", func(in *CreateItemInput) { in.Condition = "Mint" }},
		{"no images", func(in *CreateItemInput) { in.Images = nil }},
		{"too many images", func(in *CreateItemInput) {
			in.Images = make([]ImageUpload, MaxImages+1)
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			input := valid
			tc.mutate(&input)

			_, err := svc.Create(context.Background(), "uid-1", input)
			require.Error(t, err)

			var verr *ValidationError
			assert.ErrorAs(t, err, &verr)
		})
	}
}

func TestNormalizeStored(t *testing.T) {
	got := normalizeStored([]string{" Desk ", "WOOD", "desk", "", "  "})
	assert.Equal(t, pq.StringArray{"desk", "wood"}, got)
}

func TestListFiltersConjunctively(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewService(db, nil)

	itemID := uuid.New()
	sellerID := uuid.New()

	// Every supplied predicate must appear, ANDed, in both queries
	where := `WHERE is_available = \$1 AND \(title ILIKE \$2 OR description ILIKE \$3\) ` +
		`AND category = \$4 AND condition = \$5 AND tags && \$6 ` +
		`AND price >= \$7 AND price <= \$8`
	mock.ExpectQuery(`SELECT count\(\*\) FROM "items" ` + where).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))
	mock.ExpectQuery(`SELECT \* FROM "items" ` + where + ` ORDER BY created_at DESC`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "price", "category", "seller_id"}).
			AddRow(itemID.String(), "Study table", 1500.0, "Furniture", sellerID.String()))
	mock.ExpectQuery(`SELECT \* FROM "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "full_name"}).AddRow(sellerID.String(), "Asha"))

	items, pagination, err := svc.List(context.Background(), Filter{
		Search:    "desk",
		Category:  "Furniture",
		Condition: "Used",
		Tags:      []string{"wood"},
		MinPrice:  1000,
		MaxPrice:  2000,
		SortBy:    SortRecent,
		Page:      2,
		Limit:     5,
	})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Study table", items[0].Title)
	require.NotNil(t, items[0].Seller)
	assert.Equal(t, "Asha", items[0].Seller.FullName)

	assert.Equal(t, int64(7), pagination.Total)
	assert.Equal(t, 2, pagination.Pages)
	assert.False(t, pagination.HasMore)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListOrdersByPrice(t *testing.T) {
	cases := []struct {
		name  string
		sort  SortOrder
		order string
	}{
		{"price_low ascends", SortPriceLow, `ORDER BY price ASC`},
		{"price_high descends", SortPriceHigh, `ORDER BY price DESC`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			svc := NewService(db, nil)

			mock.ExpectQuery(`SELECT count\(\*\) FROM "items"`).
				WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
			mock.ExpectQuery(`SELECT \* FROM "items" .*` + tc.order).
				WillReturnRows(sqlmock.NewRows([]string{"id"}))

			_, _, err := svc.List(context.Background(), Filter{
				SortBy:   tc.sort,
				MaxPrice: MaxPrice,
				Page:     1,
				Limit:    DefaultLimit,
			})
			require.NoError(t, err)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
