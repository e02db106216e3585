package database

import (
	"context"
	"os"
	"strings"
	"testing"

	"sales-dashboard/dataset"
	"sales-dashboard/history"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// openTestStore connects to the database named by TEST_DATABASE_URL.
func openTestStore(t *testing.T) *PostgresStore {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	s, err := NewPostgresStore(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestDatasetRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	f, err := dataset.ReadCSV(strings.NewReader(
		"Month,Region,Product,Sales,Units Sold,Customer Satisfaction\n" +
			"2024-01-01,North,Widget,100,10,4\n" +
			"2024-02-01,South,Gadget,200.5,20,3.5\n"))
	require.NoError(t, err)

	require.NoError(t, s.Save(ctx, f))
	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.True(t, f.Equal(got))
}

func TestMessagesOrder(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Clear(ctx))

	for _, c := range []string{"a", "b", "c", "d"} {
		require.NoError(t, s.Append(ctx, history.NewTurn(history.RoleUser, c)))
	}
	last, err := s.LastN(ctx, 2)
	require.NoError(t, err)
	require.Len(t, last, 2)
	assert.Equal(t, "c", last[0].Content)
	assert.Equal(t, "d", last[1].Content)

	n, err := s.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	require.NoError(t, s.Clear(ctx))
	n, err = s.Len(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}
