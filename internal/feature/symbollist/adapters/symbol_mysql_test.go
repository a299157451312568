package adapters

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"stock_simulator/internal/feature/symbollist/domain/entity"
)

// setupTestDB はテスト用のインメモリSQLiteデータベースを準備します。
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err, "failed to initialize test database")

	// Symbolテーブルを作成
	err = db.AutoMigrate(&entity.Symbol{})
	require.NoError(t, err, "failed to migrate table")

	return db
}

// seedSymbol はテスト用の銘柄データをデータベースに作成します。
func seedSymbol(t *testing.T, db *gorm.DB, code, name, market string, isActive bool, sortKey int) *entity.Symbol {
	t.Helper()

	symbol := &entity.Symbol{
		Code:     code,
		Name:     name,
		Market:   market,
		IsActive: isActive,
		SortKey:  sortKey,
	}
	err := db.Create(symbol).Error
	require.NoError(t, err, "failed to seed symbol")

	return symbol
}

// updateSymbolActive は銘柄のis_activeフィールドを更新します。
// SQLiteはINSERT時にbooleanの扱いが異なるため、この関数が必要です。
func updateSymbolActive(t *testing.T, db *gorm.DB, symbol *entity.Symbol, isActive bool) {
	t.Helper()
	err := db.Model(symbol).Update("is_active", isActive).Error
	require.NoError(t, err, "failed to update symbol active status")
}

// TestNewSymbolRepository はNewSymbolRepositoryコンストラクタが正しくインスタンスを生成することを検証します。
func TestNewSymbolRepository(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	repo := NewSymbolRepository(db)

	assert.NotNil(t, repo, "repository should not be nil")
	assert.NotNil(t, repo.db, "database connection should not be nil")
}

// TestSymbolMySQL_ListActive はListActiveメソッドの各種シナリオをテーブル駆動テストで検証します。
func TestSymbolMySQL_ListActive(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		setupFunc     func(t *testing.T, db *gorm.DB)
		expectedCount int
		expectedCodes []string
		wantErr       bool
	}{
		{
			name: "success: returns active symbols sorted by sort_key",
			setupFunc: func(t *testing.T, db *gorm.DB) {
				seedSymbol(t, db, "000660", "SK hynix", "KRX", true, 2)
				seedSymbol(t, db, "005930", "Samsung Electronics", "KRX", true, 1)
				seedSymbol(t, db, "035420", "NAVER", "KRX", true, 3)
			},
			expectedCount: 3,
			expectedCodes: []string{"005930", "000660", "035420"}, // Sorted by sort_key
			wantErr:       false,
		},
		{
			name: "success: excludes inactive symbols",
			setupFunc: func(t *testing.T, db *gorm.DB) {
				seedSymbol(t, db, "005930", "Samsung Electronics", "KRX", true, 1)
				inactiveSymbol := seedSymbol(t, db, "000660", "SK hynix", "KRX", true, 2)
				updateSymbolActive(t, db, inactiveSymbol, false) // Set to inactive
				seedSymbol(t, db, "035420", "NAVER", "KRX", true, 3)
			},
			expectedCount: 2,
			expectedCodes: []string{"005930", "035420"},
			wantErr:       false,
		},
		{
			name: "success: returns empty list when no symbols",
			setupFunc: func(t *testing.T, db *gorm.DB) {
				// No symbols seeded
			},
			expectedCount: 0,
			expectedCodes: []string{},
			wantErr:       false,
		},
		{
			name: "success: returns empty list when all symbols are inactive",
			setupFunc: func(t *testing.T, db *gorm.DB) {
				s1 := seedSymbol(t, db, "005930", "Samsung Electronics", "KRX", true, 1)
				updateSymbolActive(t, db, s1, false)
				s2 := seedSymbol(t, db, "000660", "SK hynix", "KRX", true, 2)
				updateSymbolActive(t, db, s2, false)
			},
			expectedCount: 0,
			expectedCodes: []string{},
			wantErr:       false,
		},
		{
			name: "success: returns single active symbol",
			setupFunc: func(t *testing.T, db *gorm.DB) {
				seedSymbol(t, db, "005930", "Samsung Electronics", "KRX", true, 1)
			},
			expectedCount: 1,
			expectedCodes: []string{"005930"},
			wantErr:       false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			db := setupTestDB(t)
			repo := NewSymbolRepository(db)

			if tt.setupFunc != nil {
				tt.setupFunc(t, db)
			}

			symbols, err := repo.ListActive(context.Background())

			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Len(t, symbols, tt.expectedCount)

				// 順序とコードを検証
				for i, expectedCode := range tt.expectedCodes {
					assert.Equal(t, expectedCode, symbols[i].Code)
				}
			}
		})
	}
}

// TestSymbolMySQL_ListActiveCodes はListActiveCodesメソッドの各種シナリオをテーブル駆動テストで検証します。
func TestSymbolMySQL_ListActiveCodes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		setupFunc     func(t *testing.T, db *gorm.DB)
		expectedCodes []string
		wantErr       bool
	}{
		{
			name: "success: returns active symbol codes sorted by sort_key",
			setupFunc: func(t *testing.T, db *gorm.DB) {
				seedSymbol(t, db, "000660", "SK hynix", "KRX", true, 2)
				seedSymbol(t, db, "005930", "Samsung Electronics", "KRX", true, 1)
				seedSymbol(t, db, "035420", "NAVER", "KRX", true, 3)
			},
			expectedCodes: []string{"005930", "000660", "035420"}, // Sorted by sort_key
			wantErr:       false,
		},
		{
			name: "success: excludes inactive symbol codes",
			setupFunc: func(t *testing.T, db *gorm.DB) {
				seedSymbol(t, db, "005930", "Samsung Electronics", "KRX", true, 1)
				inactiveSymbol := seedSymbol(t, db, "000660", "SK hynix", "KRX", true, 2)
				updateSymbolActive(t, db, inactiveSymbol, false) // Set to inactive
				seedSymbol(t, db, "035420", "NAVER", "KRX", true, 3)
			},
			expectedCodes: []string{"005930", "035420"},
			wantErr:       false,
		},
		{
			name: "success: returns empty list when no symbols",
			setupFunc: func(t *testing.T, db *gorm.DB) {
				// No symbols seeded
			},
			expectedCodes: []string{},
			wantErr:       false,
		},
		{
			name: "success: returns empty list when all symbols are inactive",
			setupFunc: func(t *testing.T, db *gorm.DB) {
				s1 := seedSymbol(t, db, "005930", "Samsung Electronics", "KRX", true, 1)
				updateSymbolActive(t, db, s1, false)
				s2 := seedSymbol(t, db, "000660", "SK hynix", "KRX", true, 2)
				updateSymbolActive(t, db, s2, false)
			},
			expectedCodes: []string{},
			wantErr:       false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			db := setupTestDB(t)
			repo := NewSymbolRepository(db)

			if tt.setupFunc != nil {
				tt.setupFunc(t, db)
			}

			codes, err := repo.ListActiveCodes(context.Background())

			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				if len(tt.expectedCodes) == 0 {
					assert.Empty(t, codes)
				} else {
					assert.Equal(t, tt.expectedCodes, codes)
				}
			}
		})
	}
}

// TestSymbolMySQL_ListActive_FieldValues はListActiveが返す銘柄の全フィールド値が正しいことを検証します。
func TestSymbolMySQL_ListActive_FieldValues(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	repo := NewSymbolRepository(db)

	// 全フィールドを持つ銘柄をシード
	expected := seedSymbol(t, db, "005930", "Samsung Electronics Co., Ltd.", "Korea Exchange", true, 42)

	symbols, err := repo.ListActive(context.Background())

	require.NoError(t, err)
	require.Len(t, symbols, 1)

	symbol := symbols[0]
	assert.Equal(t, expected.ID, symbol.ID)
	assert.Equal(t, "005930", symbol.Code)
	assert.Equal(t, "Samsung Electronics Co., Ltd.", symbol.Name)
	assert.Equal(t, "Korea Exchange", symbol.Market)
	assert.True(t, symbol.IsActive)
	assert.Equal(t, 42, symbol.SortKey)
	assert.False(t, symbol.UpdatedAt.IsZero(), "UpdatedAt should be set")
}

// TestSymbolMySQL_ContextCancellation はコンテキストがキャンセルされた場合の動作を検証します。
func TestSymbolMySQL_ContextCancellation(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	repo := NewSymbolRepository(db)

	seedSymbol(t, db, "005930", "Samsung Electronics", "KRX", true, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // Cancel context immediately

	// 注意: SQLiteはコンテキストキャンセルを尊重しない場合がありますが、
	// このテストはコンテキストが正しく伝播されることを確認します
	_, err := repo.ListActive(ctx)
	// インメモリSQLiteはキャンセルされたコンテキストで常にエラーを返すとは限りません
	// このテストは主にコンテキストが正しく渡されることを検証します
	if err != nil {
		assert.ErrorIs(t, err, context.Canceled)
	}
}

// TestSymbolMySQL_Upsert は code をキーに登録と更新が行われることを検証します。
func TestSymbolMySQL_Upsert(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	repo := NewSymbolRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, []entity.Symbol{
		{Code: "005930", Name: "Samsung", Market: "KRX", IsActive: true, SortKey: 2},
		{Code: "000660", Name: "SK hynix", Market: "KRX", IsActive: true, SortKey: 1},
	}))
	require.NoError(t, repo.Upsert(ctx, []entity.Symbol{
		{Code: "005930", Name: "Samsung Electronics", Market: "KRX", IsActive: true, SortKey: 0},
	}))

	symbols, err := repo.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, symbols, 2)
	assert.Equal(t, "005930", symbols[0].Code, "sort_key updated to 0")
	assert.Equal(t, "Samsung Electronics", symbols[0].Name)

	var count int64
	require.NoError(t, db.Model(&entity.Symbol{}).Count(&count).Error)
	assert.Equal(t, int64(2), count)

	assert.NoError(t, repo.Upsert(ctx, nil), "empty upsert is a no-op")
}
