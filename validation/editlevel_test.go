package validation

import (
	"testing"

	"backend/models"

	"github.com/stretchr/testify/assert"
)

func TestGetEditLevel(t *testing.T) {
	tests := []struct {
		name string
		bom  models.BOMSnapshot
		want EditLevel
	}{
		{
			name: "draft is always fully editable",
			bom:  models.BOMSnapshot{Status: models.BOMStatusDraft, TotalUsage: 5, ActiveOrders: 3},
			want: EditLevelFullEdit,
		},
		{
			name: "active without usage is fully editable",
			bom:  models.BOMSnapshot{Status: models.BOMStatusActive, TotalUsage: 0},
			want: EditLevelFullEdit,
		},
		{
			name: "active with in-flight orders allows alternatives only",
			bom:  models.BOMSnapshot{Status: models.BOMStatusActive, TotalUsage: 4, ActiveOrders: 2},
			want: EditLevelAlternativesPlus,
		},
		{
			name: "active with only completed orders is read only",
			bom:  models.BOMSnapshot{Status: models.BOMStatusActive, TotalUsage: 4, ActiveOrders: 0},
			want: EditLevelReadOnly,
		},
		{
			name: "inactive without usage is fully editable",
			bom:  models.BOMSnapshot{Status: models.BOMStatusInactive, TotalUsage: 0},
			want: EditLevelFullEdit,
		},
		{
			name: "inactive with usage is read only",
			bom:  models.BOMSnapshot{Status: models.BOMStatusInactive, TotalUsage: 1},
			want: EditLevelReadOnly,
		},
		{
			name: "unknown status degrades to read only",
			bom:  models.BOMSnapshot{Status: "ARCHIVED"},
			want: EditLevelReadOnly,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GetEditLevel(tt.bom))
		})
	}
}

func TestCanEditField(t *testing.T) {
	fields := []FieldType{FieldHeader, FieldMaterials, FieldAlternatives, FieldMetadata}

	allowed := map[EditLevel]map[FieldType]bool{
		EditLevelFullEdit: {
			FieldHeader: true, FieldMaterials: true, FieldAlternatives: true, FieldMetadata: true,
		},
		EditLevelAlternativesPlus: {
			FieldAlternatives: true, FieldMetadata: true,
		},
		EditLevelMetadataOnly: {
			FieldMetadata: true,
		},
		EditLevelReadOnly: {},
	}

	for level, perms := range allowed {
		for _, f := range fields {
			assert.Equalf(t, perms[f], CanEditField(level, f), "level %s field %s", level, f)
		}
	}
}

func TestEditLevelString(t *testing.T) {
	assert.Equal(t, "FULL_EDIT", EditLevelFullEdit.String())
	assert.Equal(t, "ALTERNATIVES_PLUS", EditLevelAlternativesPlus.String())
	assert.Equal(t, "METADATA_ONLY", EditLevelMetadataOnly.String())
	assert.Equal(t, "READ_ONLY", EditLevelReadOnly.String())
}
