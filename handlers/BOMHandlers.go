package handlers

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"backend/models"
	"backend/repository"
	"backend/utils"
	"backend/validation"

	"github.com/gin-gonic/gin"
	"github.com/jung-kurt/gofpdf"
)

// GetBOMEditLevelHandler godoc
// @Summary      Get BOM edit level
// @Description  Classifies how editable a BOM is from its status and usage
// @Tags         bom
// @Param        id  path  int  true  "BOM ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  models.ErrorResponse
// @Router       /api/bom/{id}/edit_level [get]
func GetBOMEditLevelHandler(db *sql.DB) gin.HandlerFunc {
	repo := repository.New(db)
	return func(c *gin.Context) {
		bomID, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid BOM ID"})
			return
		}

		snap, err := repo.BOMSnapshot(bomID)
		if err != nil {
			if errorsIsNotFound(err) {
				c.JSON(http.StatusNotFound, gin.H{"error": "BOM not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		level := validation.GetEditLevel(*snap)
		c.JSON(http.StatusOK, gin.H{
			"bom_id":     snap.ID,
			"status":     snap.Status,
			"edit_level": level.String(),
			"editable_fields": gin.H{
				"header":       validation.CanEditField(level, validation.FieldHeader),
				"materials":    validation.CanEditField(level, validation.FieldMaterials),
				"alternatives": validation.CanEditField(level, validation.FieldAlternatives),
				"metadata":     validation.CanEditField(level, validation.FieldMetadata),
			},
			"usage": gin.H{
				"total_orders":  snap.TotalUsage,
				"active_orders": snap.ActiveOrders,
			},
		})
	}
}

// TransitionBOMStatusHandler godoc
// @Summary      Change BOM status
// @Description  Moves a BOM along DRAFT/ACTIVE/INACTIVE. Activating a BOM
// @Description  whose product already has other ACTIVE BOMs requires a
// @Description  resolution choice.
// @Tags         bom
// @Param        id       path  int  true  "BOM ID"
// @Param        request  body  models.StatusTransitionRequest  true  "Target status"
// @Success      200  {object}  map[string]interface{}
// @Failure      409  {object}  map[string]interface{}
// @Failure      422  {object}  map[string]interface{}
// @Router       /api/bom/{id}/status [put]
func TransitionBOMStatusHandler(db *sql.DB) gin.HandlerFunc {
	repo := repository.New(db)
	return func(c *gin.Context) {
		bomID, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid BOM ID"})
			return
		}

		var req models.StatusTransitionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
			return
		}
		req.TargetStatus = strings.ToUpper(strings.TrimSpace(req.TargetStatus))

		snap, err := repo.BOMSnapshot(bomID)
		if err != nil {
			if errorsIsNotFound(err) {
				c.JSON(http.StatusNotFound, gin.H{"error": "BOM not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		ok, reason := validation.ValidateStatusTransition(snap.Status, req.TargetStatus, *snap)
		if !ok {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":           reason,
				"current_status":  snap.Status,
				"target_status":   req.TargetStatus,
				"allowed_targets": validation.AllowedTargets(snap.Status),
			})
			return
		}

		deactivateOthers := false
		conflictAcknowledged := false
		if req.TargetStatus == models.BOMStatusActive {
			siblings, err := repo.ActiveBOMs(snap.ProductID, bomID)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			if len(siblings) > 0 {
				switch req.Resolution {
				case "deactivate_others":
					deactivateOthers = true
				case "keep_both":
					conflictAcknowledged = true
				default:
					// No resolution chosen: surface the conflict and do
					// nothing.
					c.JSON(http.StatusConflict, gin.H{
						"error":       fmt.Sprintf("Product %d already has %d ACTIVE BOM(s)", snap.ProductID, len(siblings)),
						"active_boms": siblings,
						"resolutions": []string{"deactivate_others", "keep_both"},
					})
					return
				}
			}
		}

		if err := repo.SetBOMStatus(c.Request.Context(), bomID, req.TargetStatus, deactivateOthers); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		logEvent(c, db, "BOM", "StatusChange",
			fmt.Sprintf("BOM %d: %s -> %s", bomID, snap.Status, req.TargetStatus))

		resp := gin.H{
			"message":         "Status updated",
			"bom_id":          bomID,
			"previous_status": snap.Status,
			"status":          req.TargetStatus,
		}
		if conflictAcknowledged {
			// keep_both leaves the product in conflict; order confirmation
			// against it will keep raising F5.
			resp["warning"] = fmt.Sprintf("Product %d now has multiple ACTIVE BOMs", snap.ProductID)
		}
		c.JSON(http.StatusOK, resp)
	}
}

// CheckCircularHandler godoc
// @Summary      Check a draft material list for circular dependencies
// @Description  Validates a not-yet-saved BOM payload: the output product
// @Description  must not appear among its own inputs or alternatives.
// @Tags         bom
// @Param        request  body  models.CircularCheckRequest  true  "Draft BOM"
// @Success      200  {object}  map[string]interface{}
// @Router       /api/bom/check_circular [post]
func CheckCircularHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.CircularCheckRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
			return
		}

		has, conflicts := validation.DetectCircularDependency(req.OutputProductID, req.Materials)
		c.JSON(http.StatusOK, gin.H{
			"has_circular": has,
			"conflicts":    conflicts,
		})
	}
}

// CheckBOMCircularHandler godoc
// @Summary      Check a saved BOM for circular dependencies
// @Tags         bom
// @Param        id  path  int  true  "BOM ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  models.ErrorResponse
// @Router       /api/bom/{id}/check_circular [get]
func CheckBOMCircularHandler(db *sql.DB) gin.HandlerFunc {
	repo := repository.New(db)
	return func(c *gin.Context) {
		bomID, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid BOM ID"})
			return
		}

		snap, err := repo.BOMSnapshot(bomID)
		if err != nil {
			if errorsIsNotFound(err) {
				c.JSON(http.StatusNotFound, gin.H{"error": "BOM not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		materials, err := repo.BOMMaterials(bomID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		has, conflicts := validation.DetectCircularDependency(snap.ProductID, materials)
		c.JSON(http.StatusOK, gin.H{
			"bom_id":       bomID,
			"product_id":   snap.ProductID,
			"has_circular": has,
			"conflicts":    conflicts,
		})
	}
}

// CheckDuplicatesHandler godoc
// @Summary      Check a draft material list for duplicate materials
// @Tags         bom
// @Param        request  body  models.DuplicateCheckRequest  true  "Draft BOM"
// @Success      200  {object}  map[string]interface{}
// @Router       /api/bom/check_duplicates [post]
func CheckDuplicatesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.DuplicateCheckRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
			return
		}

		has, duplicates := validation.DetectDuplicates(req.Materials)
		c.JSON(http.StatusOK, gin.H{
			"has_duplicates": has,
			"duplicates":     duplicates,
		})
	}
}

// CheckBOMDuplicatesHandler godoc
// @Summary      Check a saved BOM for duplicate materials
// @Tags         bom
// @Param        id  path  int  true  "BOM ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  models.ErrorResponse
// @Router       /api/bom/{id}/check_duplicates [get]
func CheckBOMDuplicatesHandler(db *sql.DB) gin.HandlerFunc {
	repo := repository.New(db)
	return func(c *gin.Context) {
		bomID, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid BOM ID"})
			return
		}

		has, duplicates, err := repo.PersistedDuplicates(bomID)
		if err != nil {
			if errorsIsNotFound(err) {
				c.JSON(http.StatusNotFound, gin.H{"error": "BOM not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"bom_id":         bomID,
			"has_duplicates": has,
			"duplicates":     duplicates,
		})
	}
}

// GenerateBOMPDF godoc
// @Summary      Generate BOM sheet PDF
// @Tags         bom
// @Param        id  path  int  true  "BOM ID"
// @Success      200  "PDF file"
// @Failure      404  {object}  models.ErrorResponse
// @Router       /api/bom_pdf/{id} [get]
func GenerateBOMPDF(db *sql.DB) gin.HandlerFunc {
	repo := repository.New(db)
	return func(c *gin.Context) {
		bomID, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid BOM ID"})
			return
		}

		// --- Fetch header details ---
		var (
			code, status, productName string
			outputQty                 float64
			version                   sql.NullInt64
		)
		err = db.QueryRow(`
			SELECT b.code, b.status, COALESCE(p.name, ''), b.output_qty, b.version
			FROM prod_bom b
			LEFT JOIN product p ON b.product_id = p.id
			WHERE b.id = $1 AND b.deleted_at IS NULL`, bomID).Scan(
			&code, &status, &productName, &outputQty, &version)
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "BOM not found"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		materials, err := repo.BOMMaterials(bomID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		// --- Generate PDF ---
		pdf := gofpdf.New("P", "mm", "A4", "")
		pdf.AddPage()
		pdf.SetMargins(10, 10, 10)

		// --- Header ---
		pdf.SetFont("Arial", "B", 18)
		pdf.Cell(190, 10, "BILL OF MATERIALS")
		pdf.Ln(12)

		pdf.SetFont("Arial", "B", 11)
		pdf.Cell(95, 6, fmt.Sprintf("BOM: %s", code))
		pdf.Cell(95, 6, fmt.Sprintf("Status: %s", status))
		pdf.Ln(6)
		pdf.SetFont("Arial", "", 10)
		pdf.Cell(95, 6, fmt.Sprintf("Product: %s", productName))
		pdf.Cell(95, 6, fmt.Sprintf("Output Qty: %.2f", outputQty))
		pdf.Ln(10)

		// --- Table Header ---
		pdf.SetFont("Arial", "B", 11)
		pdf.SetFillColor(240, 240, 240)
		pdf.CellFormat(25, 8, "Line", "1", 0, "C", true, 0, "")
		pdf.CellFormat(45, 8, "Material", "1", 0, "L", true, 0, "")
		pdf.CellFormat(35, 8, "Type", "1", 0, "C", true, 0, "")
		pdf.CellFormat(40, 8, "Quantity", "1", 0, "C", true, 0, "")
		pdf.CellFormat(45, 8, "Scrap (%)", "1", 1, "C", true, 0, "")

		pdf.SetFont("Arial", "", 10)
		for i, m := range materials {
			pdf.CellFormat(25, 8, strconv.Itoa(i+1), "1", 0, "C", false, 0, "")
			pdf.CellFormat(45, 8, strconv.Itoa(m.MaterialID), "1", 0, "L", false, 0, "")
			pdf.CellFormat(35, 8, m.MaterialType, "1", 0, "C", false, 0, "")
			pdf.CellFormat(40, 8, fmt.Sprintf("%.3f", m.Quantity), "1", 0, "C", false, 0, "")
			pdf.CellFormat(45, 8, fmt.Sprintf("%.1f", m.ScrapRate*100), "1", 1, "C", false, 0, "")

			for _, alt := range m.Alternatives {
				pdf.CellFormat(25, 8, "", "1", 0, "C", false, 0, "")
				pdf.CellFormat(45, 8, fmt.Sprintf("alt %d (p%d)", alt.AlternativeMaterialID, alt.Priority), "1", 0, "L", false, 0, "")
				pdf.CellFormat(35, 8, "ALTERNATIVE", "1", 0, "C", false, 0, "")
				pdf.CellFormat(40, 8, fmt.Sprintf("%.3f", alt.Quantity), "1", 0, "C", false, 0, "")
				pdf.CellFormat(45, 8, fmt.Sprintf("%.1f", alt.ScrapRate*100), "1", 1, "C", false, 0, "")
			}
		}

		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s.pdf", code))
		c.Header("Content-Type", "application/pdf")
		if err := pdf.Output(c.Writer); err != nil {
			utils.ErrorResponse(c, "Failed to render PDF", http.StatusInternalServerError)
		}
	}
}

// errorsIsNotFound reports whether err wraps the shared not-found sentinel.
func errorsIsNotFound(err error) bool {
	return errors.Is(err, validation.ErrNotFound)
}
