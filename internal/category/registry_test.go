package category

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/tally/internal/common"
	"github.com/Veraticus/tally/internal/model"
)

type fakeRecorder struct {
	err   error
	saved []model.Category
}

func (f *fakeRecorder) SaveCategory(_ context.Context, c model.Category) error {
	if f.err != nil {
		return f.err
	}
	f.saved = append(f.saved, c)
	return nil
}

func TestNewRegistry_SeedsDefaults(t *testing.T) {
	r := NewRegistry()

	var ids []string
	for _, c := range r.List() {
		ids = append(ids, c.ID)
		assert.True(t, c.BuiltIn, "default %s should be built in", c.ID)
	}
	assert.Equal(t, []string{
		"food", "transport", "entertainment", "housing", "health",
		"shopping", "bills", "salary", "other",
	}, ids)
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		label string
		want  string
	}{
		{label: "Subscriptions", want: "subscriptions"},
		{label: "Eating Out", want: "eating-out"},
		{label: "  Pet Care  ", want: "pet-care"},
		{label: "Kids\tSchool", want: "kids-school"},
		{label: "Two  Spaces", want: "two--spaces"},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			assert.Equal(t, tt.want, Slugify(tt.label))
		})
	}
}

func TestRegistry_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("round trip through resolve", func(t *testing.T) {
		r := NewRegistry()
		cat, err := r.Register(ctx, "Subscriptions", "")
		require.NoError(t, err)

		resolved, ok := r.Resolve(cat.ID)
		require.True(t, ok)
		assert.Equal(t, "Subscriptions", resolved.Label)
		assert.Equal(t, "subscriptions", resolved.ID)
		assert.Equal(t, model.DefaultIcon, resolved.Icon)
		assert.False(t, resolved.BuiltIn)
	})

	t.Run("custom categories follow built-ins in creation order", func(t *testing.T) {
		r := NewRegistry()
		_, err := r.Register(ctx, "Pets", "paw")
		require.NoError(t, err)
		_, err = r.Register(ctx, "Gifts", "")
		require.NoError(t, err)

		list := r.List()
		require.Len(t, list, len(Defaults())+2)
		assert.Equal(t, "pets", list[len(list)-2].ID)
		assert.Equal(t, "paw", list[len(list)-2].Icon)
		assert.Equal(t, "gifts", list[len(list)-1].ID)
	})

	t.Run("rejects short labels", func(t *testing.T) {
		r := NewRegistry()
		for _, label := range []string{"", " ", "A", "  b  "} {
			_, err := r.Register(ctx, label, "")
			require.Error(t, err, "label %q", label)
			assert.ErrorIs(t, err, common.ErrValidation)
		}
		assert.Len(t, r.List(), len(Defaults()))
	})

	t.Run("rejects duplicate ids", func(t *testing.T) {
		r := NewRegistry()
		_, err := r.Register(ctx, "food", "")
		require.ErrorIs(t, err, common.ErrValidation)

		_, err = r.Register(ctx, "Eating Out", "")
		require.NoError(t, err)
		_, err = r.Register(ctx, "eating out", "")
		require.ErrorIs(t, err, common.ErrValidation)

		assert.Len(t, r.List(), len(Defaults())+1)
	})

	t.Run("records custom categories", func(t *testing.T) {
		rec := &fakeRecorder{}
		r := NewRegistry(WithRecorder(rec))
		_, err := r.Register(ctx, "Travel", "plane")
		require.NoError(t, err)
		require.Len(t, rec.saved, 1)
		assert.Equal(t, "travel", rec.saved[0].ID)
	})

	t.Run("recorder failure leaves registry unchanged", func(t *testing.T) {
		rec := &fakeRecorder{err: errors.New("disk full")}
		r := NewRegistry(WithRecorder(rec))
		_, err := r.Register(ctx, "Travel", "")
		require.Error(t, err)
		assert.False(t, r.Exists("travel"))
	})
}

func TestRegistry_Restore(t *testing.T) {
	r := NewRegistry()
	err := r.Restore([]model.Category{
		{ID: "pets", Label: "Pets"},
		{ID: "eating-out", Label: "Eating Out", Icon: "pizza"},
	})
	require.NoError(t, err)

	pets, ok := r.Resolve("pets")
	require.True(t, ok)
	assert.Equal(t, model.DefaultIcon, pets.Icon)

	err = r.Restore([]model.Category{{ID: "food", Label: "Food"}})
	assert.ErrorIs(t, err, common.ErrDuplicateEntry)

	err = r.Restore([]model.Category{{ID: "wrong", Label: "Right"}})
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestRegistry_MatchLabel(t *testing.T) {
	r := NewRegistry()
	_, err := r.Register(context.Background(), "Eating Out", "")
	require.NoError(t, err)

	tests := []struct {
		label  string
		wantID string
		found  bool
	}{
		{label: "Food", wantID: "food", found: true},
		{label: "food", wantID: "food", found: true},
		{label: "  TRANSPORT ", wantID: "transport", found: true},
		{label: "eating out", wantID: "eating-out", found: true},
		{label: "Dining", found: false},
		{label: "", found: false},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			c, ok := r.MatchLabel(tt.label)
			assert.Equal(t, tt.found, ok)
			if tt.found {
				assert.Equal(t, tt.wantID, c.ID)
			}
		})
	}
}

func TestRegistry_ForKind(t *testing.T) {
	r := NewRegistry()
	_, err := r.Register(context.Background(), "Pets", "")
	require.NoError(t, err)

	ids := func(cats []model.Category) []string {
		out := make([]string, 0, len(cats))
		for _, c := range cats {
			out = append(out, c.ID)
		}
		return out
	}

	assert.Equal(t, []string{Salary, Other}, ids(r.ForKind(model.KindIncome)))

	expense := ids(r.ForKind(model.KindExpense))
	assert.NotContains(t, expense, Salary)
	assert.Contains(t, expense, Other)
	assert.Contains(t, expense, "pets")
}

func TestRegistry_Labels(t *testing.T) {
	r := NewRegistry()
	labels := r.Labels()
	assert.Equal(t, "Food", labels[0])
	assert.Equal(t, "Other", labels[len(labels)-1])
}
