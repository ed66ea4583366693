package validation

import (
	"testing"

	"backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectDuplicates(t *testing.T) {
	t.Run("distinct materials are clean", func(t *testing.T) {
		materials := []models.BOMMaterial{
			{MaterialID: 1, Alternatives: []models.BOMAlternative{{AlternativeMaterialID: 4, Priority: 1}}},
			{MaterialID: 2},
			{MaterialID: 3},
		}
		has, dups := DetectDuplicates(materials)
		assert.False(t, has)
		assert.Empty(t, dups)
	})

	t.Run("repeated primary line", func(t *testing.T) {
		materials := []models.BOMMaterial{
			{MaterialID: 1},
			{MaterialID: 2},
			{MaterialID: 1},
		}
		has, dups := DetectDuplicates(materials)
		require.True(t, has)
		require.Len(t, dups, 1)
		assert.Equal(t, 1, dups[0].MaterialID)
		require.Len(t, dups[0].Occurrences, 2)
		assert.Equal(t, ConflictPrimary, dups[0].Occurrences[0].Type)
		assert.Equal(t, 0, dups[0].Occurrences[0].Line)
		assert.Equal(t, 2, dups[0].Occurrences[1].Line)
	})

	t.Run("primary also listed as alternative elsewhere", func(t *testing.T) {
		materials := []models.BOMMaterial{
			{MaterialID: 1},
			{MaterialID: 2, Alternatives: []models.BOMAlternative{{AlternativeMaterialID: 1, Priority: 1}}},
		}
		has, dups := DetectDuplicates(materials)
		require.True(t, has)
		require.Len(t, dups, 1)
		require.Len(t, dups[0].Occurrences, 2)
		assert.Equal(t, ConflictPrimary, dups[0].Occurrences[0].Type)
		assert.Equal(t, ConflictAlternative, dups[0].Occurrences[1].Type)
		assert.Contains(t, dups[0].Occurrences[1].Context, "alternative of material 2")
	})

	t.Run("same alternative under two lines", func(t *testing.T) {
		materials := []models.BOMMaterial{
			{MaterialID: 1, Alternatives: []models.BOMAlternative{{AlternativeMaterialID: 7, Priority: 1}}},
			{MaterialID: 2, Alternatives: []models.BOMAlternative{{AlternativeMaterialID: 7, Priority: 1}}},
		}
		has, dups := DetectDuplicates(materials)
		require.True(t, has)
		require.Len(t, dups, 1)
		assert.Equal(t, 7, dups[0].MaterialID)
	})

	t.Run("results ordered by material id", func(t *testing.T) {
		materials := []models.BOMMaterial{
			{MaterialID: 8},
			{MaterialID: 3},
			{MaterialID: 8},
			{MaterialID: 3},
		}
		_, dups := DetectDuplicates(materials)
		require.Len(t, dups, 2)
		assert.Equal(t, 3, dups[0].MaterialID)
		assert.Equal(t, 8, dups[1].MaterialID)
	})

	t.Run("empty input", func(t *testing.T) {
		has, dups := DetectDuplicates(nil)
		assert.False(t, has)
		assert.Empty(t, dups)
	})
}
