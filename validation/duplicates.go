package validation

import (
	"fmt"
	"sort"

	"backend/models"
)

// Occurrence is one sighting of a material id within a BOM, tagged with
// where it sits: a primary line or an alternative under one.
type Occurrence struct {
	Type    string `json:"type" example:"ALTERNATIVE"`
	Line    int    `json:"line" example:"1"`
	Context string `json:"context" example:"alternative of material 2, priority 1"`
}

// Duplicate groups every occurrence of a material id that appears more than
// once in the same BOM.
type Duplicate struct {
	MaterialID  int          `json:"material_id" example:"1"`
	Occurrences []Occurrence `json:"occurrences"`
}

// DetectDuplicates flattens every primary material id and every alternative
// material id into one multiset and reports the ids occurring more than once.
// The input shape is identical for wizard payloads held in memory and for
// rows loaded from storage, so both contexts share these exact semantics.
// Duplicates are returned ordered by material id for deterministic output.
func DetectDuplicates(materials []models.BOMMaterial) (bool, []Duplicate) {
	seen := map[int][]Occurrence{}

	for i, m := range materials {
		seen[m.MaterialID] = append(seen[m.MaterialID], Occurrence{
			Type:    ConflictPrimary,
			Line:    i,
			Context: fmt.Sprintf("primary material at line %d", i),
		})
		for _, alt := range m.Alternatives {
			seen[alt.AlternativeMaterialID] = append(seen[alt.AlternativeMaterialID], Occurrence{
				Type:    ConflictAlternative,
				Line:    i,
				Context: fmt.Sprintf("alternative of material %d, priority %d", m.MaterialID, alt.Priority),
			})
		}
	}

	var ids []int
	for id, occ := range seen {
		if len(occ) > 1 {
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)

	var dups []Duplicate
	for _, id := range ids {
		dups = append(dups, Duplicate{MaterialID: id, Occurrences: seen[id]})
	}

	return len(dups) > 0, dups
}
