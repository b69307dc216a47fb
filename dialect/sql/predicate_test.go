package sql

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type orderPredicate func(*Selector)

var (
	orderStatus  = StringField[orderPredicate]("status")
	orderAmount  = NumberField[orderPredicate, int64]("amount")
	orderPaidAt  = TimeField[orderPredicate, time.Time]("paid_at")
	orderChannel = StringField[orderPredicate]("channel")
)

func TestFieldPredicates(t *testing.T) {
	day := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name      string
		preds     []orderPredicate
		wantQuery string
		wantArgs  []any
	}{
		{
			name:      "string",
			preds:     []orderPredicate{orderStatus.EQ("paid"), orderChannel.NotIn("web", "app")},
			wantQuery: "SELECT * FROM `orders` WHERE `status` = ? AND `channel` NOT IN (?, ?)",
			wantArgs:  []any{"paid", "web", "app"},
		},
		{
			name:      "like",
			preds:     []orderPredicate{orderStatus.HasPrefix("re_"), orderChannel.Contains("50%")},
			wantQuery: "SELECT * FROM `orders` WHERE `status` LIKE ? AND `channel` LIKE ?",
			wantArgs:  []any{`re\_%`, `%50\%%`},
		},
		{
			name:      "number",
			preds:     []orderPredicate{orderAmount.Between(10, 20), orderAmount.NEQ(15)},
			wantQuery: "SELECT * FROM `orders` WHERE `amount` BETWEEN ? AND ? AND `amount` <> ?",
			wantArgs:  []any{int64(10), int64(20), int64(15)},
		},
		{
			name:      "time",
			preds:     []orderPredicate{orderPaidAt.GTE(day), orderStatus.NotNull()},
			wantQuery: "SELECT * FROM `orders` WHERE `paid_at` >= ? AND `status` IS NOT NULL",
			wantArgs:  []any{day},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Select().From(Table("orders"))
			for _, p := range tt.preds {
				p(s)
			}
			require.NoError(t, s.Err())
			query, args := s.Query()
			require.Equal(t, tt.wantQuery, query)
			require.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestFieldPredicates_InvalidName(t *testing.T) {
	s := Select().From(Table("orders"))
	StringField[orderPredicate]("bad name").EQ("x")(s)
	require.ErrorContains(t, s.Err(), `invalid column "bad name"`)
}
