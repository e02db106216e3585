package history

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stores(t *testing.T) map[string]Store {
	t.Helper()
	b, err := OpenBadgerInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { b.Close() })
	return map[string]Store{
		"memory": NewMemory(),
		"badger": b,
	}
}

func contents(turns []Turn) []string {
	out := make([]string, len(turns))
	for i, t := range turns {
		out[i] = t.Content
	}
	return out
}

func TestLastNWindow(t *testing.T) {
	ctx := context.Background()
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			for i := 0; i < 15; i++ {
				role := RoleUser
				if i%2 == 1 {
					role = RoleAssistant
				}
				require.NoError(t, store.Append(ctx, NewTurn(role, fmt.Sprintf("m%d", i))))
			}

			n, err := store.Len(ctx)
			require.NoError(t, err)
			assert.Equal(t, 15, n)

			last, err := store.LastN(ctx, DefaultWindow)
			require.NoError(t, err)
			assert.Equal(t, []string{"m5", "m6", "m7", "m8", "m9", "m10", "m11", "m12", "m13", "m14"}, contents(last))

			all, err := store.LastN(ctx, 100)
			require.NoError(t, err)
			assert.Len(t, all, 15)
			assert.Equal(t, "m0", all[0].Content)

			none, err := store.LastN(ctx, 0)
			require.NoError(t, err)
			assert.Empty(t, none)
		})
	}
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, store.Append(ctx, NewTurn(RoleUser, "hello")))
			require.NoError(t, store.Clear(ctx))

			n, err := store.Len(ctx)
			require.NoError(t, err)
			assert.Zero(t, n)

			require.NoError(t, store.Append(ctx, NewTurn(RoleUser, "again")))
			all, err := store.All(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"again"}, contents(all))
		})
	}
}

func TestLastNReturnsCopy(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.Append(ctx, NewTurn(RoleUser, "original")))

	got, err := m.LastN(ctx, 1)
	require.NoError(t, err)
	got[0].Content = "changed"

	again, err := m.LastN(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "original", again[0].Content)
}

func TestBadgerSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	b, err := OpenBadger(dir)
	require.NoError(t, err)
	require.NoError(t, b.Append(ctx, NewTurn(RoleUser, "first")))
	require.NoError(t, b.Append(ctx, NewTurn(RoleAssistant, "second")))
	require.NoError(t, b.Close())

	b, err = OpenBadger(dir)
	require.NoError(t, err)
	defer b.Close()
	require.NoError(t, b.Append(ctx, NewTurn(RoleUser, "third")))

	all, err := b.All(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second", "third"}, contents(all))
	assert.Equal(t, RoleAssistant, all[1].Role)
	assert.NotEmpty(t, all[0].ID)
}
