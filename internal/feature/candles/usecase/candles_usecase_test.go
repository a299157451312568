package usecase_test

import (
	"context"
	"errors"
	"stock_simulator/internal/feature/candles/domain/entity"
	"stock_simulator/internal/feature/candles/usecase"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ErrDB はモックと期待値の間で共有されるセンチネルエラーです。
var ErrDB = errors.New("database error")

// mockCandleRepository はCandleRepositoryインターフェースのモック実装です。
type mockCandleRepository struct {
	FindFunc  func(ctx context.Context, symbol string, limit int) ([]entity.Candle, error)
	FindCalls int
	lastLimit int
}

// Find はFindFuncが設定されていればそれを呼び出し、呼び出し回数を記録します。
func (m *mockCandleRepository) Find(ctx context.Context, symbol string, limit int) ([]entity.Candle, error) {
	m.FindCalls++
	m.lastLimit = limit
	if m.FindFunc != nil {
		return m.FindFunc(ctx, symbol, limit)
	}
	return nil, errors.New("FindFunc is not implemented")
}

type mockOpenReader struct {
	candle entity.Candle
	ok     bool
}

func (m *mockOpenReader) Open(string) (entity.Candle, bool) { return m.candle, m.ok }

// TestCandlesUsecase_GetCandles はGetCandlesメソッドのパラメータ処理とリポジトリ呼び出しをテストします。
func TestCandlesUsecase_GetCandles(t *testing.T) {
	t.Parallel()

	stored := []entity.Candle{
		{Symbol: "X", BucketStartMillis: 120_000, Open: 3},
		{Symbol: "X", BucketStartMillis: 60_000, Open: 2},
	}

	testCases := []struct {
		name          string
		limit         int
		includeOpen   bool
		open          *mockOpenReader
		findErr       error
		expectedLimit int
		expectedOpens []int64
		expectedErr   error
	}{
		{
			name:          "success: explicit limit",
			limit:         50,
			expectedLimit: 50,
			expectedOpens: []int64{3, 2},
		},
		{
			name:          "success: default limit when zero",
			limit:         0,
			expectedLimit: usecase.DefaultLimit,
			expectedOpens: []int64{3, 2},
		},
		{
			name:          "success: default limit when too large",
			limit:         usecase.MaxLimit + 1,
			expectedLimit: usecase.DefaultLimit,
			expectedOpens: []int64{3, 2},
		},
		{
			name:          "success: open candle is prepended",
			limit:         10,
			includeOpen:   true,
			open:          &mockOpenReader{candle: entity.Candle{Symbol: "X", BucketStartMillis: 180_000, Open: 4}, ok: true},
			expectedLimit: 10,
			expectedOpens: []int64{4, 3, 2},
		},
		{
			name:          "success: open candle replaces stored bucket",
			limit:         10,
			includeOpen:   true,
			open:          &mockOpenReader{candle: entity.Candle{Symbol: "X", BucketStartMillis: 120_000, Open: 9}, ok: true},
			expectedLimit: 10,
			expectedOpens: []int64{9, 2},
		},
		{
			name:          "success: open requested but none",
			limit:         2,
			includeOpen:   true,
			open:          &mockOpenReader{},
			expectedLimit: 2,
			expectedOpens: []int64{3, 2},
		},
		{
			name:          "success: open candle respects limit",
			limit:         2,
			includeOpen:   true,
			open:          &mockOpenReader{candle: entity.Candle{Symbol: "X", BucketStartMillis: 180_000, Open: 4}, ok: true},
			expectedLimit: 2,
			expectedOpens: []int64{4, 3},
		},
		{
			name:          "error: repository error",
			limit:         10,
			findErr:       ErrDB,
			expectedLimit: 10,
			expectedErr:   ErrDB,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			repo := &mockCandleRepository{FindFunc: func(_ context.Context, _ string, _ int) ([]entity.Candle, error) {
				if tc.findErr != nil {
					return nil, tc.findErr
				}
				return append([]entity.Candle(nil), stored...), nil
			}}
			var open usecase.OpenCandleReader
			if tc.open != nil {
				open = tc.open
			}
			uc := usecase.NewCandlesUsecase(repo, open)

			got, err := uc.GetCandles(context.Background(), "X", tc.limit, tc.includeOpen)

			assert.Equal(t, 1, repo.FindCalls)
			assert.Equal(t, tc.expectedLimit, repo.lastLimit)
			if tc.expectedErr != nil {
				assert.ErrorIs(t, err, tc.expectedErr)
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			opens := make([]int64, 0, len(got))
			for _, c := range got {
				opens = append(opens, c.Open)
			}
			assert.Equal(t, tc.expectedOpens, opens)
		})
	}
}
