package handlers

import (
	"database/sql"
	"log"
	"net/http"
	"strconv"

	"backend/models"
	"backend/services"
	"backend/storage"

	"github.com/gin-gonic/gin"
)

// ListScanJobsHandler godoc
// @Summary      List BOM scan jobs
// @Tags         scan-jobs
// @Param        page   query  int  false  "Page"
// @Param        limit  query  int  false  "Limit"
// @Success      200  {object}  map[string]interface{}
// @Router       /api/scan_jobs [get]
func ListScanJobsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
		if page < 1 {
			page = 1
		}
		if limit < 1 {
			limit = 20
		}

		gormDB := storage.GetGormDB()

		var total int64
		if err := gormDB.Model(&models.ScanJob{}).Count(&total).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error counting scan jobs"})
			return
		}

		var jobs []models.ScanJob
		err := gormDB.Order("started_at DESC").
			Limit(limit).Offset((page - 1) * limit).
			Find(&jobs).Error
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error querying scan jobs"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"jobs": jobs,
			"pagination": gin.H{
				"current_page":  page,
				"page_size":     limit,
				"total_records": total,
			},
		})
	}
}

// GetScanJobHandler godoc
// @Summary      Get one scan job with its findings
// @Tags         scan-jobs
// @Param        uuid  path  string  true  "Job UUID"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  models.ErrorResponse
// @Router       /api/scan_jobs/{uuid} [get]
func GetScanJobHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		jobUUID := c.Param("uuid")
		gormDB := storage.GetGormDB()

		var job models.ScanJob
		if err := gormDB.Where("job_uuid = ?", jobUUID).First(&job).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Scan job not found"})
			return
		}

		var findings []models.ScanFinding
		if err := gormDB.Where("job_id = ?", job.ID).Order("finding_type, bom_id").Find(&findings).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error querying findings"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"job":      job,
			"findings": findings,
		})
	}
}

// TriggerScanHandler godoc
// @Summary      Trigger a manual BOM scan
// @Description  Starts the scan in the background and returns immediately.
// @Tags         scan-jobs
// @Success      202  {object}  map[string]interface{}
// @Router       /api/scan_jobs [post]
func TriggerScanHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		scanner := services.NewScanService(db, storage.GetGormDB(), services.NewAlertService())

		go func() {
			defer func() {
				if r := recover(); r != nil {
					log.Printf("manual scan panicked: %v", r)
				}
			}()
			if _, err := scanner.RunScan(models.ScanJobTypeManual); err != nil {
				log.Printf("manual scan failed: %v", err)
			}
		}()

		logEvent(c, db, "SCAN", "Trigger", "Manual BOM scan started")

		c.JSON(http.StatusAccepted, gin.H{"message": "Scan started"})
	}
}
