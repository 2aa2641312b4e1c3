package categorize_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/ledgersync/internal/categorize"
	"github.com/MrJamesThe3rd/ledgersync/internal/category"
)

var (
	ownerID       = uuid.New()
	groceriesID   = uuid.New()
	restaurantsID = uuid.New()
	uncatID       = uuid.New()
	historyID     = uuid.New()
)

func ownerCategories() []*category.Category {
	return []*category.Category{
		{ID: groceriesID, OwnerID: ownerID, Name: "Groceries", Type: category.TypeExpense},
		{ID: restaurantsID, OwnerID: ownerID, Name: "restaurants", Type: category.TypeExpense},
		{ID: uncatID, OwnerID: ownerID, Name: "UNCATEGORIZED", Type: category.TypeExpense},
	}
}

func testTables() *categorize.Tables {
	return categorize.NewTables(
		map[string]string{
			"Silpo":      "Groceries",
			"Night Club": "Entertainment",
			"Cafe Lviv":  "Restaurants",
		},
		map[int]string{
			5411: "Groceries",
			5812: "Restaurants",
			7832: "Entertainment",
		},
	)
}

func newResolver(lister categorize.CategoryLister, history categorize.HistoryFinder) *categorize.Resolver {
	cache := categorize.NewCache(0, func() (*categorize.Tables, error) { return testTables(), nil })
	return categorize.NewResolver(lister, history, cache)
}

func TestResolver_Resolve(t *testing.T) {
	type args struct {
		description string
		mcc         int
		externalID  string
	}

	type testCase struct {
		name         string
		args         args
		setupHistory func(m *categorize.MockHistoryFinder)
		want         *uuid.UUID
	}

	tests := []testCase{
		{
			name: "DictionaryMatch",
			args: args{description: "  Silpo ", mcc: 5812, externalID: "x1"},
			want: &groceriesID,
		},
		{
			name: "DictionaryWinsOverConflictingMCC",
			args: args{description: "Cafe Lviv", mcc: 5411, externalID: "x2"},
			want: &restaurantsID,
		},
		{
			name: "DictionaryCategoryMissingFallsToMCC",
			args: args{description: "Night Club", mcc: 5812, externalID: "x3"},
			want: &restaurantsID,
		},
		{
			name: "MCCMatch",
			args: args{description: "Unknown shop", mcc: 5411, externalID: "x4"},
			want: &groceriesID,
		},
		{
			name: "HistoryMatch",
			args: args{description: "Corner kiosk", mcc: 9999, externalID: "x5"},
			setupHistory: func(m *categorize.MockHistoryFinder) {
				m.EXPECT().LatestCategory(gomock.Any(), ownerID, "Corner kiosk", "x5").Return(&historyID, nil)
			},
			want: &historyID,
		},
		{
			name: "MCCCategoryMissingFallsToHistory",
			args: args{description: "Cinema", mcc: 7832, externalID: "x6"},
			setupHistory: func(m *categorize.MockHistoryFinder) {
				m.EXPECT().LatestCategory(gomock.Any(), ownerID, "Cinema", "x6").Return(&historyID, nil)
			},
			want: &historyID,
		},
		{
			name: "FallbackUncategorized",
			args: args{description: "Mystery", externalID: "x7"},
			setupHistory: func(m *categorize.MockHistoryFinder) {
				m.EXPECT().LatestCategory(gomock.Any(), ownerID, "Mystery", "x7").Return(nil, nil)
			},
			want: &uncatID,
		},
		{
			name: "EmptyDescriptionSkipsHistory",
			args: args{description: "   ", externalID: "x8"},
			want: &uncatID,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)

			lister := categorize.NewMockCategoryLister(ctrl)
			lister.EXPECT().ListCategories(gomock.Any(), ownerID).Return(ownerCategories(), nil)

			history := categorize.NewMockHistoryFinder(ctrl)
			if tt.setupHistory != nil {
				tt.setupHistory(history)
			}

			got, err := newResolver(lister, history).Resolve(context.Background(), ownerID, tt.args.description, tt.args.mcc, tt.args.externalID)
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, *tt.want, *got)
		})
	}
}

func TestResolver_Resolve_NoMatchIsNil(t *testing.T) {
	ctrl := gomock.NewController(t)

	lister := categorize.NewMockCategoryLister(ctrl)
	lister.EXPECT().ListCategories(gomock.Any(), ownerID).Return([]*category.Category{
		{ID: groceriesID, OwnerID: ownerID, Name: "Groceries"},
	}, nil)

	history := categorize.NewMockHistoryFinder(ctrl)
	history.EXPECT().LatestCategory(gomock.Any(), ownerID, "Mystery", "x1").Return(nil, nil)

	got, err := newResolver(lister, history).Resolve(context.Background(), ownerID, "Mystery", 0, "x1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestResolver_Resolve_CachesOwnerIndex(t *testing.T) {
	ctrl := gomock.NewController(t)

	lister := categorize.NewMockCategoryLister(ctrl)
	lister.EXPECT().ListCategories(gomock.Any(), ownerID).Return(ownerCategories(), nil).Times(1)

	history := categorize.NewMockHistoryFinder(ctrl)
	r := newResolver(lister, history)

	for range 5 {
		got, err := r.Resolve(context.Background(), ownerID, "Silpo", 0, "")
		require.NoError(t, err)
		assert.Equal(t, groceriesID, *got)
	}
}

func TestResolver_Resolve_Errors(t *testing.T) {
	t.Run("CategoryListFails", func(t *testing.T) {
		ctrl := gomock.NewController(t)

		lister := categorize.NewMockCategoryLister(ctrl)
		lister.EXPECT().ListCategories(gomock.Any(), ownerID).Return(nil, errors.New("db down"))

		_, err := newResolver(lister, categorize.NewMockHistoryFinder(ctrl)).
			Resolve(context.Background(), ownerID, "Silpo", 0, "")
		assert.ErrorContains(t, err, "db down")
	})

	t.Run("HistoryFails", func(t *testing.T) {
		ctrl := gomock.NewController(t)

		lister := categorize.NewMockCategoryLister(ctrl)
		lister.EXPECT().ListCategories(gomock.Any(), ownerID).Return(ownerCategories(), nil)

		history := categorize.NewMockHistoryFinder(ctrl)
		history.EXPECT().LatestCategory(gomock.Any(), ownerID, "Mystery", "").Return(nil, errors.New("timeout"))

		_, err := newResolver(lister, history).Resolve(context.Background(), ownerID, "Mystery", 0, "")
		assert.ErrorContains(t, err, "timeout")
	})

	t.Run("TablesFail", func(t *testing.T) {
		ctrl := gomock.NewController(t)

		cache := categorize.NewCache(0, func() (*categorize.Tables, error) { return nil, errors.New("bad yaml") })
		r := categorize.NewResolver(categorize.NewMockCategoryLister(ctrl), categorize.NewMockHistoryFinder(ctrl), cache)

		_, err := r.Resolve(context.Background(), ownerID, "Silpo", 0, "")
		assert.ErrorContains(t, err, "bad yaml")
	})
}
