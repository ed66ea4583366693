package validation

import (
	"backend/models"
)

// Conflict types for circular-dependency findings.
const (
	ConflictPrimary     = "PRIMARY"
	ConflictAlternative = "ALTERNATIVE"
)

// CircularConflict pinpoints one place where the BOM's output product shows
// up among its own inputs. Line is the zero-based position of the material
// line; Priority is set for ALTERNATIVE conflicts only.
type CircularConflict struct {
	Type       string `json:"type" example:"ALTERNATIVE"`
	Line       int    `json:"line" example:"1"`
	MaterialID int    `json:"material_id" example:"9"`
	Priority   int    `json:"priority,omitempty" example:"1"`
}

// DetectCircularDependency reports every position where outputProductID is
// listed as an input of its own BOM, either as a primary material or as an
// alternative. All conflicts are returned, not just the first, so the caller
// can highlight every offending row at once.
func DetectCircularDependency(outputProductID int, materials []models.BOMMaterial) (bool, []CircularConflict) {
	var conflicts []CircularConflict

	for i, m := range materials {
		if m.MaterialID == outputProductID {
			conflicts = append(conflicts, CircularConflict{
				Type:       ConflictPrimary,
				Line:       i,
				MaterialID: m.MaterialID,
			})
		}
		for _, alt := range m.Alternatives {
			if alt.AlternativeMaterialID == outputProductID {
				conflicts = append(conflicts, CircularConflict{
					Type:       ConflictAlternative,
					Line:       i,
					MaterialID: alt.AlternativeMaterialID,
					Priority:   alt.Priority,
				})
			}
		}
	}

	return len(conflicts) > 0, conflicts
}

// HasCircularDependency is the existence-only form used by the batch scan,
// where positional detail is not needed.
func HasCircularDependency(outputProductID int, materials []models.BOMMaterial) bool {
	has, _ := DetectCircularDependency(outputProductID, materials)
	return has
}
