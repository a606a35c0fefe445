package catalog

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/tablebook/internal/internaltypes"
	"github.com/example/tablebook/internal/storage/memory"
)

const sample = `[
  {
    "id": "rest_1",
    "name": "Trattoria Roma",
    "location": "Downtown",
    "cuisine": "Italian",
    "price_range": 2,
    "seating_capacity": 0,
    "tables": [
      {"id": "t1", "seats": 2, "description": "Window"},
      {"id": "t2", "seats": 4, "description": "Booth"}
    ],
    "operating_hours": {
      "Monday": {"open": "11:00", "close": "22:00"},
      "Saturday": {"open": "12:00", "close": "23:30"}
    },
    "rating": 4.5,
    "description": "Classic Roman dishes"
  },
  {
    "id": "rest_2",
    "name": "Sakura",
    "location": "Uptown",
    "cuisine": "Japanese",
    "price_range": 3,
    "seating_capacity": 40,
    "tables": [{"id": "t1", "seats": 6}],
    "operating_hours": {}
  }
]`

func TestLoad(t *testing.T) {
	t.Parallel()

	rs, err := Load(strings.NewReader(sample))
	require.NoError(t, err)
	require.Len(t, rs, 2)

	roma := rs[0]
	assert.Equal(t, "Trattoria Roma", roma.Name)
	assert.Equal(t, 6, roma.SeatingCapacity, "derived from tables")
	assert.Equal(t, "23:30", roma.OperatingHours["Saturday"].Close)
	assert.InDelta(t, 4.5, roma.Rating, 0.001)
	assert.Equal(t, 40, rs[1].SeatingCapacity, "explicit capacity kept")
}

func TestLoadRejects(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"duplicate id":  `[{"id":"a","price_range":1},{"id":"a","price_range":1}]`,
		"missing id":    `[{"price_range":1}]`,
		"price range":   `[{"id":"a","price_range":5}]`,
		"empty table":   `[{"id":"a","price_range":1,"tables":[{"id":"t","seats":0}]}]`,
		"bad weekday":   `[{"id":"a","price_range":1,"operating_hours":{"Funday":{"open":"10:00","close":"11:00"}}}]`,
		"bad open time": `[{"id":"a","price_range":1,"operating_hours":{"Monday":{"open":"10am","close":"11:00"}}}]`,
	}
	for name, in := range cases {
		_, err := Load(strings.NewReader(in))
		assert.Error(t, err, name)
	}

	_, err := Load(strings.NewReader(`[{"id":"a","price_range":9}]`))
	assert.ErrorIs(t, err, internaltypes.ErrInvalidArgument)

	_, err = Load(strings.NewReader(`{"id":"a"}`))
	assert.Error(t, err, "not an array")

	_, err = Load(strings.NewReader(`[{"id":"a","price_range":1,"michelin":3}]`))
	assert.Error(t, err, "unknown field")
}

func TestImport(t *testing.T) {
	t.Parallel()

	rs, err := Load(strings.NewReader(sample))
	require.NoError(t, err)

	store := memory.New()
	n, err := Import(context.Background(), store, rs)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	got, err := store.FindRestaurant(context.Background(), "rest_2")
	require.NoError(t, err)
	assert.Equal(t, "Sakura", got.Name)
}
