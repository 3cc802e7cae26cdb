package conversion

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockRepository struct {
	mock.Mock
}

func (m *mockRepository) EntriesByYear(ctx context.Context, year string) ([]Entry, error) {
	args := m.Called(ctx, year)
	entries, _ := args.Get(0).([]Entry)
	return entries, args.Error(1)
}

func (m *mockRepository) UpdateAmountInBaseCurrency(ctx context.Context, key string, amount float64) (bool, error) {
	args := m.Called(ctx, key, amount)
	return args.Bool(0), args.Error(1)
}

func newTestService(repo Repository) *Service {
	return NewService(repo, DefaultTables(), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestConvertByYear_EmptyYear(t *testing.T) {
	repo := new(mockRepository)

	res, err := newTestService(repo).ConvertByYear(context.Background(), "  ")
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.NotEmpty(t, res.Message)
	repo.AssertNotCalled(t, "EntriesByYear", mock.Anything, mock.Anything)
}

func TestConvertByYear_NoEntries(t *testing.T) {
	repo := new(mockRepository)
	repo.On("EntriesByYear", mock.Anything, "2019").Return([]Entry{}, nil)

	res, err := newTestService(repo).ConvertByYear(context.Background(), "2019")
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "2019", res.Year)
	repo.AssertNotCalled(t, "UpdateAmountInBaseCurrency", mock.Anything, mock.Anything, mock.Anything)
}

func TestConvertByYear_ReadFailure(t *testing.T) {
	repo := new(mockRepository)
	repo.On("EntriesByYear", mock.Anything, "2025").Return(nil, errors.New("connection refused"))

	_, err := newTestService(repo).ConvertByYear(context.Background(), "2025")
	assert.Error(t, err)
}

func TestConvertByYear_Accounting(t *testing.T) {
	repo := new(mockRepository)
	repo.On("EntriesByYear", mock.Anything, "2025").Return([]Entry{
		{BlockCode: "COL1", Amount: 1000, RecordKey: "TX-1"},
		{BlockCode: "col1", Amount: 500, RecordKey: "TX-2"},
		{BlockCode: "USA1", Amount: 10, RecordKey: "AUTH-3"},
		{BlockCode: "MARTE", Amount: 10, RecordKey: "TX-4"},
		{BlockCode: "CHI", Amount: 100, RecordKey: "TX-5"},
		{BlockCode: "HON", Amount: 100, RecordKey: "sin_id"},
	}, nil)
	repo.On("UpdateAmountInBaseCurrency", mock.Anything, "TX-1", 4.57).Return(true, nil)
	repo.On("UpdateAmountInBaseCurrency", mock.Anything, "TX-2", 2.29).Return(true, nil)
	repo.On("UpdateAmountInBaseCurrency", mock.Anything, "AUTH-3", 187.5).Return(true, nil)
	repo.On("UpdateAmountInBaseCurrency", mock.Anything, "TX-5", 1.9).Return(false, errors.New("deadlock"))
	repo.On("UpdateAmountInBaseCurrency", mock.Anything, "sin_id", 71.0).Return(false, nil)

	res, err := newTestService(repo).ConvertByYear(context.Background(), "2025")
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.Equal(t, 6, res.RecordsFound)
	assert.Equal(t, 3, res.RecordsUpdated)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, 1, res.NotMatched)

	require.Contains(t, res.Blocks, "COL1")
	col := res.Blocks["COL1"]
	assert.Equal(t, "Colombia", col.Country)
	assert.Equal(t, "COP", col.Currency)
	assert.Equal(t, 2, col.Count)
	assert.Equal(t, "1500", col.AmountTotal.String())
	assert.Equal(t, "6.86", col.ConvertedTotal.String())

	assert.NotContains(t, res.Blocks, "CHI")
	assert.NotContains(t, res.Blocks, "MARTE")
	repo.AssertExpectations(t)
}

func TestTablesConvert(t *testing.T) {
	tables := DefaultTables()

	converted, region, rate, err := tables.Convert("COL1", 1000)
	require.NoError(t, err)
	assert.Equal(t, "4.57", converted.String())
	assert.Equal(t, "Colombia", region.Country)
	assert.Equal(t, "0.004573", rate.String())

	_, _, _, err = tables.Convert("XYZ", 1)
	assert.ErrorIs(t, err, ErrUnknownBlock)
}

func TestTablesBaseAmount(t *testing.T) {
	tables := DefaultTables()

	tests := []struct {
		block  string
		amount float64
		want   float64
		ok     bool
	}{
		{"MEX", 120, 120, true},
		{"SIN2", 80, 80, true},
		{"USA1", 10, 187.5, true},
		{"ESP1", 1, 21.82, true},
		{"XYZ", 10, 0, false},
		{"", 10, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.block, func(t *testing.T) {
			got, ok := tables.BaseAmount(tt.block, tt.amount)
			assert.Equal(t, tt.ok, ok)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestParseTables(t *testing.T) {
	data := []byte(`
regions:
  per1:
    country: Perú
    currency: pen
rates:
  PEN: 5.1
`)
	tables, err := ParseTables(data)
	require.NoError(t, err)

	converted, region, _, err := tables.Convert("PER1", 10)
	require.NoError(t, err)
	assert.Equal(t, "PEN", region.Currency)
	assert.Equal(t, "51", converted.String())

	_, ok := tables.Region("COL1")
	assert.False(t, ok, "regions section replaces the defaults")

	base, ok := tables.BaseAmount("MEX", 3)
	assert.True(t, ok, "domestic blocks keep their defaults")
	assert.Equal(t, 3.0, base)

	_, err = ParseTables([]byte("rates:\n  USD: -1\n"))
	assert.Error(t, err)

	_, err = ParseTables([]byte("regions: [unclosed"))
	assert.Error(t, err)
}
