package validation

import (
	"backend/models"
)

// EditLevel classifies how much of a BOM may still be changed, driven purely
// by its status and usage counters. Higher value = more permissive. The level
// is computed on demand and never stored.
type EditLevel int

const (
	EditLevelReadOnly         EditLevel = 0
	EditLevelMetadataOnly     EditLevel = 1
	EditLevelAlternativesPlus EditLevel = 2
	EditLevelFullEdit         EditLevel = 4
)

// String returns the wire name of the level.
func (l EditLevel) String() string {
	switch l {
	case EditLevelFullEdit:
		return "FULL_EDIT"
	case EditLevelAlternativesPlus:
		return "ALTERNATIVES_PLUS"
	case EditLevelMetadataOnly:
		return "METADATA_ONLY"
	default:
		return "READ_ONLY"
	}
}

// FieldType names the editable areas of a BOM for CanEditField.
type FieldType string

const (
	FieldHeader       FieldType = "header"
	FieldMaterials    FieldType = "materials"
	FieldAlternatives FieldType = "alternatives"
	FieldMetadata     FieldType = "metadata"
)

// GetEditLevel maps a BOM snapshot to its edit level. Rules are evaluated in
// priority order; an unknown status degrades to READ_ONLY rather than
// failing.
func GetEditLevel(bom models.BOMSnapshot) EditLevel {
	switch bom.Status {
	case models.BOMStatusDraft:
		return EditLevelFullEdit
	case models.BOMStatusActive:
		if bom.TotalUsage == 0 {
			return EditLevelFullEdit
		}
		if bom.ActiveOrders > 0 {
			return EditLevelAlternativesPlus
		}
		// Completed orders only: the recipe is history now.
		return EditLevelReadOnly
	case models.BOMStatusInactive:
		if bom.TotalUsage == 0 {
			return EditLevelFullEdit
		}
		return EditLevelReadOnly
	default:
		return EditLevelReadOnly
	}
}

// CanEditField reports whether the given area may be changed at the given
// level. FULL_EDIT allows everything; ALTERNATIVES_PLUS only alternatives and
// metadata; METADATA_ONLY only metadata; READ_ONLY nothing.
func CanEditField(level EditLevel, field FieldType) bool {
	switch level {
	case EditLevelFullEdit:
		return field == FieldHeader || field == FieldMaterials ||
			field == FieldAlternatives || field == FieldMetadata
	case EditLevelAlternativesPlus:
		return field == FieldAlternatives || field == FieldMetadata
	case EditLevelMetadataOnly:
		return field == FieldMetadata
	default:
		return false
	}
}
