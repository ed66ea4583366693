package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResultsPartition(t *testing.T) {
	results := Results{
		Block("C4", "conflict", "xung đột", nil),
		Warning("C3", "remainder", "dư", nil),
		Warning("C11", "duplicate", "trùng", nil),
		Block("C2", "quantity", "số lượng", nil),
	}

	// Every result is either a block or a warning, never both or neither.
	assert.Equal(t, len(results), len(results.Blocks())+len(results.Warnings()))
	assert.True(t, results.HasBlocks())
	assert.True(t, results.HasWarnings())
	assert.False(t, results.IsValid())
	assert.Equal(t, []string{"C4", "C2"}, results.Blocks().RuleIDs())
	assert.Equal(t, []string{"C3", "C11"}, results.Warnings().RuleIDs())

	warningsOnly := Results{Warning("X2", "no reason", "chưa có lý do", nil)}
	assert.False(t, warningsOnly.HasBlocks())
	assert.True(t, warningsOnly.IsValid())

	var empty Results
	assert.True(t, empty.IsValid())
	assert.Empty(t, empty.RuleIDs())
}
