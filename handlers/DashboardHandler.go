package handlers

import (
	"database/sql"
	"net/http"

	"backend/models"
	"backend/repository"
	"backend/storage"

	"github.com/gin-gonic/gin"
)

// GetBOMConflictsHandler godoc
// @Summary      List products with multiple ACTIVE BOMs
// @Description  Each conflicted product is returned with its full ACTIVE BOM
// @Description  list so the planner can pick which one survives.
// @Tags         dashboard
// @Success      200  {object}  map[string]interface{}
// @Router       /api/dashboard/bom_conflicts [get]
func GetBOMConflictsHandler(db *sql.DB) gin.HandlerFunc {
	repo := repository.New(db)
	return func(c *gin.Context) {
		conflicts, err := repo.ProductsWithMultipleActiveBOMs()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		type conflictEntry struct {
			ProductID int                 `json:"product_id"`
			BOMs      []models.BOMSummary `json:"boms"`
		}
		entries := []conflictEntry{}
		for productID, boms := range conflicts {
			entries = append(entries, conflictEntry{ProductID: productID, BOMs: boms})
		}

		c.JSON(http.StatusOK, gin.H{
			"conflicted_products": len(entries),
			"conflicts":           entries,
		})
	}
}

// GetCircularBOMsHandler godoc
// @Summary      List circular BOMs found by the latest scan
// @Tags         dashboard
// @Success      200  {object}  map[string]interface{}
// @Router       /api/dashboard/circular_boms [get]
func GetCircularBOMsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		gormDB := storage.GetGormDB()

		var job models.ScanJob
		err := gormDB.Where("job_type = ? AND status = ?", models.ScanJobTypeNightly, models.ScanJobStatusCompleted).
			Order("completed_at DESC").First(&job).Error
		if err != nil {
			c.JSON(http.StatusOK, gin.H{
				"message":  "No completed scan yet",
				"findings": []models.ScanFinding{},
			})
			return
		}

		var findings []models.ScanFinding
		if err := gormDB.Where("job_id = ? AND finding_type = ?", job.ID, models.FindingTypeCircular).
			Order("bom_id").Find(&findings).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"scan_job":     job.JobUUID,
			"completed_at": job.CompletedAt,
			"findings":     findings,
		})
	}
}

// GetValidationSummaryHandler godoc
// @Summary      BOM and order health counters for the dashboard
// @Tags         dashboard
// @Success      200  {object}  map[string]interface{}
// @Router       /api/dashboard/validation_summary [get]
func GetValidationSummaryHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		bomCounts := map[string]int{}
		rows, err := db.Query(`
			SELECT status, COUNT(*) FROM prod_bom
			WHERE deleted_at IS NULL GROUP BY status`)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error counting BOMs"})
			return
		}
		defer rows.Close()
		for rows.Next() {
			var status string
			var count int
			if err := rows.Scan(&status, &count); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Error scanning BOM counts"})
				return
			}
			bomCounts[status] = count
		}

		orderCounts := map[string]int{}
		orderRows, err := db.Query(`SELECT status, COUNT(*) FROM prod_order GROUP BY status`)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error counting orders"})
			return
		}
		defer orderRows.Close()
		for orderRows.Next() {
			var status string
			var count int
			if err := orderRows.Scan(&status, &count); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Error scanning order counts"})
				return
			}
			orderCounts[status] = count
		}

		var conflictedProducts int
		err = db.QueryRow(`
			SELECT COUNT(*) FROM (
				SELECT product_id FROM prod_bom
				WHERE status = $1 AND deleted_at IS NULL
				GROUP BY product_id HAVING COUNT(*) > 1) conflicted`,
			models.BOMStatusActive).Scan(&conflictedProducts)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error counting conflicts"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"bom_counts":          bomCounts,
			"order_counts":        orderCounts,
			"conflicted_products": conflictedProducts,
		})
	}
}
