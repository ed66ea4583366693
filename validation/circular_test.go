package validation

import (
	"testing"

	"backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectCircularDependency(t *testing.T) {
	t.Run("clean BOM has no conflicts", func(t *testing.T) {
		materials := []models.BOMMaterial{
			{MaterialID: 1},
			{MaterialID: 2, Alternatives: []models.BOMAlternative{{AlternativeMaterialID: 3, Priority: 1}}},
		}
		has, conflicts := DetectCircularDependency(9, materials)
		assert.False(t, has)
		assert.Empty(t, conflicts)
	})

	t.Run("output product as primary material", func(t *testing.T) {
		materials := []models.BOMMaterial{
			{MaterialID: 1},
			{MaterialID: 9},
		}
		has, conflicts := DetectCircularDependency(9, materials)
		require.True(t, has)
		require.Len(t, conflicts, 1)
		assert.Equal(t, ConflictPrimary, conflicts[0].Type)
		assert.Equal(t, 1, conflicts[0].Line)
		assert.Equal(t, 9, conflicts[0].MaterialID)
	})

	t.Run("output product hidden in an alternative", func(t *testing.T) {
		materials := []models.BOMMaterial{
			{MaterialID: 1, Alternatives: []models.BOMAlternative{
				{AlternativeMaterialID: 5, Priority: 1},
				{AlternativeMaterialID: 9, Priority: 2},
			}},
		}
		has, conflicts := DetectCircularDependency(9, materials)
		require.True(t, has)
		require.Len(t, conflicts, 1)
		assert.Equal(t, ConflictAlternative, conflicts[0].Type)
		assert.Equal(t, 0, conflicts[0].Line)
		assert.Equal(t, 2, conflicts[0].Priority)
	})

	t.Run("all conflicts reported, not just the first", func(t *testing.T) {
		materials := []models.BOMMaterial{
			{MaterialID: 9},
			{MaterialID: 2, Alternatives: []models.BOMAlternative{{AlternativeMaterialID: 9, Priority: 1}}},
			{MaterialID: 9},
		}
		has, conflicts := DetectCircularDependency(9, materials)
		require.True(t, has)
		assert.Len(t, conflicts, 3)
	})

	t.Run("empty material list", func(t *testing.T) {
		has, conflicts := DetectCircularDependency(9, nil)
		assert.False(t, has)
		assert.Empty(t, conflicts)
	})
}

func TestHasCircularDependency(t *testing.T) {
	assert.True(t, HasCircularDependency(4, []models.BOMMaterial{{MaterialID: 4}}))
	assert.False(t, HasCircularDependency(4, []models.BOMMaterial{{MaterialID: 5}}))
}
