package dataset

import (
	"context"
	"math"
	"strings"
	"testing"
	"time"

	"sales-dashboard/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func sampleFrame(t *testing.T) *Frame {
	t.Helper()
	f, err := ReadCSV(strings.NewReader(header +
		"2024-01-01,North,Widget,100,10,4\n" +
		"2024-01-01,South,Gadget,200,20,3\n" +
		"2024-02-01,North,Gadget,300,30,5\n"))
	require.NoError(t, err)
	return f
}

func TestNewFrameValidation(t *testing.T) {
	a := NewStringColumn("a", []string{"x", "y"})
	b := NewNumberColumn("b", []float64{1})
	_, err := NewFrame(a, b)
	assert.Error(t, err)

	_, err = NewFrame(a, NewStringColumn("a", []string{"z", "w"}))
	assert.Error(t, err)

	f, err := NewFrame(a, NewNumberColumn("b", []float64{1, 2}))
	require.NoError(t, err)
	assert.Equal(t, 2, f.Len())
	assert.Equal(t, []string{"a", "b"}, f.Columns())
}

func TestFilterAndHead(t *testing.T) {
	f := sampleFrame(t)
	region, _ := f.Column(ColRegion)

	north := f.Filter(func(i int) bool { return region.Text(i) == "North" })
	assert.Equal(t, 2, north.Len())
	assert.Equal(t, 3, f.Len(), "filter must not change the source frame")

	assert.Equal(t, 1, f.Head(1).Len())
	assert.Equal(t, 3, f.Head(50).Len())
}

func TestWithColumnLeavesSourceUntouched(t *testing.T) {
	f := sampleFrame(t)
	derived, err := f.WithColumn(NewNumberColumn("Sales per Unit", []float64{10, 10, 10}))
	require.NoError(t, err)
	assert.True(t, derived.HasColumn("Sales per Unit"))
	assert.False(t, f.HasColumn("Sales per Unit"))

	replaced, err := f.WithColumn(NewNumberColumn(ColSales, []float64{1, 2, 3}))
	require.NoError(t, err)
	assert.Equal(t, len(f.Columns()), len(replaced.Columns()))
	sales, _ := f.Column(ColSales)
	assert.InDelta(t, 100, sales.Float(0), 1e-9)
}

func TestColumnText(t *testing.T) {
	assert.Equal(t, "NaT", NewTimeColumn("m", []time.Time{{}}).Text(0))
	assert.Equal(t, "2.5", NewNumberColumn("n", []float64{2.5}).Text(0))
	assert.Equal(t, "NaN", NewNumberColumn("n", []float64{math.NaN()}).Text(0))
	assert.True(t, math.IsNaN(NewStringColumn("s", []string{"x"}).Float(0)))
}

func TestYearMonths(t *testing.T) {
	assert.Equal(t, []string{"2024-01", "2024-02"}, sampleFrame(t).YearMonths())
}

func TestStoreEmpty(t *testing.T) {
	store := NewStore(NewFilePersister(t.TempDir()), zap.NewNop())
	_, err := store.Current(context.Background())
	assert.True(t, errors.IsNotFound(err))

	memOnly := NewStore(nil, nil)
	_, err = memOnly.Current(context.Background())
	assert.True(t, errors.IsNotFound(err))
}

func TestStoreSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	f := sampleFrame(t)

	store := NewStore(NewFilePersister(dir), zap.NewNop())
	require.NoError(t, store.SetCurrent(ctx, f))

	got, err := store.Current(ctx)
	require.NoError(t, err)
	assert.Same(t, f, got)

	store.Reset()
	reloaded, err := store.Current(ctx)
	require.NoError(t, err)
	assert.True(t, f.Equal(reloaded))

	// A fresh store over the same directory behaves like a restarted process.
	restarted := NewStore(NewFilePersister(dir), zap.NewNop())
	again, err := restarted.Current(ctx)
	require.NoError(t, err)
	assert.True(t, f.Equal(again))
}

func TestStoreReplace(t *testing.T) {
	ctx := context.Background()
	store := NewStore(NewFilePersister(t.TempDir()), zap.NewNop())
	first := sampleFrame(t)
	second := first.Head(1)

	require.NoError(t, store.SetCurrent(ctx, first))
	require.NoError(t, store.SetCurrent(ctx, second))
	store.Reset()

	got, err := store.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Len())
}

type failingPersister struct{}

func (failingPersister) Save(context.Context, *Frame) error {
	return errors.New("disk full")
}

func (failingPersister) Load(context.Context) (*Frame, error) {
	return nil, errors.ErrNotFound
}

func TestStoreKeepsPreviousOnPersistFailure(t *testing.T) {
	ctx := context.Background()
	store := NewStore(failingPersister{}, zap.NewNop())
	err := store.SetCurrent(ctx, sampleFrame(t))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrPersistence))

	_, err = store.Current(ctx)
	assert.True(t, errors.IsNotFound(err))
}
