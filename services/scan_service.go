package services

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"backend/models"
	"backend/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ScanService runs the batch BOM integrity scan: the whole-catalog
// circular-dependency pass plus the active-BOM conflict refresh. One ScanJob
// row tracks each run; findings are replaced wholesale on completion.
type ScanService struct {
	repo   *repository.Repository
	gormDB *gorm.DB
	alerts *AlertService
}

func NewScanService(db *sql.DB, gormDB *gorm.DB, alerts *AlertService) *ScanService {
	return &ScanService{
		repo:   repository.New(db),
		gormDB: gormDB,
		alerts: alerts,
	}
}

// RunScan executes one scan under a fresh job row and returns the completed
// job. A failure is recorded on the row rather than lost in the logs.
func (ss *ScanService) RunScan(jobType string) (*models.ScanJob, error) {
	job := models.ScanJob{
		JobUUID:   uuid.New().String(),
		JobType:   jobType,
		Status:    models.ScanJobStatusRunning,
		StartedAt: time.Now(),
	}
	if err := ss.gormDB.Create(&job).Error; err != nil {
		return nil, fmt.Errorf("failed to create scan job: %v", err)
	}

	if err := ss.execute(&job); err != nil {
		msg := err.Error()
		now := time.Now()
		job.Status = models.ScanJobStatusFailed
		job.Error = &msg
		job.CompletedAt = &now
		ss.gormDB.Save(&job)
		return &job, err
	}
	return &job, nil
}

func (ss *ScanService) execute(job *models.ScanJob) error {
	scanned, circular, err := ss.repo.ScanCircularBOMs()
	if err != nil {
		return err
	}

	conflicts, err := ss.repo.ProductsWithMultipleActiveBOMs()
	if err != nil {
		return err
	}

	var findings []models.ScanFinding
	for _, f := range circular {
		findings = append(findings, models.ScanFinding{
			JobID:       job.ID,
			FindingType: models.FindingTypeCircular,
			BOMID:       f.BOMID,
			ProductID:   f.ProductID,
			Detail:      fmt.Sprintf("%d circular line(s)", f.Conflicts),
			CreatedAt:   time.Now(),
		})
	}
	for productID, boms := range conflicts {
		findings = append(findings, models.ScanFinding{
			JobID:       job.ID,
			FindingType: models.FindingTypeConflict,
			ProductID:   productID,
			Detail:      fmt.Sprintf("%d ACTIVE BOMs", len(boms)),
			CreatedAt:   time.Now(),
		})
	}
	if len(findings) > 0 {
		if err := ss.gormDB.Create(&findings).Error; err != nil {
			return fmt.Errorf("failed to save scan findings: %v", err)
		}
	}

	now := time.Now()
	job.Status = models.ScanJobStatusCompleted
	job.ScannedBOMs = scanned
	job.CircularBOMs = len(circular)
	job.ConflictedSKUs = len(conflicts)
	job.CompletedAt = &now

	summary, _ := json.Marshal(map[string]int{
		"scanned_boms":        scanned,
		"circular_boms":       len(circular),
		"conflicted_products": len(conflicts),
	})
	result := string(summary)
	job.Result = &result

	if err := ss.gormDB.Save(job).Error; err != nil {
		return fmt.Errorf("failed to complete scan job: %v", err)
	}

	if ss.alerts != nil && (job.CircularBOMs > 0 || job.ConflictedSKUs > 0) {
		if err := ss.alerts.SendScanReport(*job); err != nil {
			log.Printf("scan %s: alert mail failed: %v", job.JobUUID, err)
		}
	}
	return nil
}
