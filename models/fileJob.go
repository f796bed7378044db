package models

import (
	"context"
	"time"

	"github.com/granformato/pedidos_backend/config"
	"gorm.io/gorm"
)

// File-processing job statuses. FAILED is terminal: retry_count is
// bookkeeping only, no scheduler re-queues failed jobs.
type FileJobStatus string

const (
	FileJobStatusPending    FileJobStatus = "PENDING"
	FileJobStatusProcessing FileJobStatus = "PROCESSING"
	FileJobStatusCompleted  FileJobStatus = "COMPLETED"
	FileJobStatusFailed     FileJobStatus = "FAILED"
)

// FileProcessingJob is one upload batch awaiting metrics extraction.
// Created by the HTTP layer on upload; the state machine is driven solely
// by the file worker. Rows are append-only history per pedido.
type FileProcessingJob struct {
	ID          int           `gorm:"primary_key" json:"id"`
	PedidoId    int           `gorm:"index;not null" json:"pedido_id"`
	Status      FileJobStatus `gorm:"type:enum('PENDING','PROCESSING','COMPLETED','FAILED');default:PENDING;index" json:"status"`
	Payload     []byte        `gorm:"type:json" json:"-"`
	RetryCount  int           `gorm:"not null;default:0" json:"retry_count"`
	LastError   *string       `gorm:"size:1000" json:"last_error"`
	ClaimedBy   *string       `gorm:"size:100" json:"claimed_by"`
	CreatedAt   time.Time     `gorm:"autoCreateTime" json:"created_at"`
	StartedAt   *time.Time    `json:"started_at"`
	CompletedAt *time.Time    `json:"completed_at"`
	UpdatedAt   time.Time     `gorm:"autoUpdateTime" json:"updated_at"`
}

// EnqueueFileProcessingJob creates a PENDING job for a pedido's upload batch.
func EnqueueFileProcessingJob(ctx context.Context, pedidoId int, payload []byte) (*FileProcessingJob, error) {
	job := FileProcessingJob{
		PedidoId: pedidoId,
		Status:   FileJobStatusPending,
		Payload:  payload,
	}
	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&job).Error; err != nil {
		return nil, err
	}
	return &job, nil
}

func GetFileProcessingJob(ctx context.Context, id int) (*FileProcessingJob, error) {
	var job FileProcessingJob
	db := config.GetDB()
	err := db.WithContext(ctx).Where("id = ?", id).First(&job).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// PendingFileJobs selects up to limit PENDING jobs, oldest first.
func PendingFileJobs(ctx context.Context, db *gorm.DB, limit int) ([]*FileProcessingJob, error) {
	var jobs []*FileProcessingJob
	err := db.WithContext(ctx).
		Where("status = ?", FileJobStatusPending).
		Order("id ASC").
		Limit(limit).
		Find(&jobs).Error
	if err != nil {
		return nil, err
	}
	return jobs, nil
}

// ClaimFileJob transitions PENDING -> PROCESSING with a conditional update.
// The affected-row count is the sole guard against two worker instances
// double-processing the same job: only the caller whose update applied has
// the claim.
func ClaimFileJob(ctx context.Context, db *gorm.DB, id int, workerId string) (bool, error) {
	now := time.Now().UTC()
	res := db.WithContext(ctx).Model(&FileProcessingJob{}).
		Where("id = ? AND status = ?", id, FileJobStatusPending).
		Updates(map[string]interface{}{
			"status":     FileJobStatusProcessing,
			"started_at": &now,
			"claimed_by": &workerId,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func MarkFileJobCompleted(ctx context.Context, db *gorm.DB, id int) error {
	now := time.Now().UTC()
	return db.WithContext(ctx).Model(&FileProcessingJob{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":       FileJobStatusCompleted,
			"completed_at": &now,
			"last_error":   nil,
		}).Error
}

func MarkFileJobFailed(ctx context.Context, db *gorm.DB, id int, errMsg string) error {
	return db.WithContext(ctx).Model(&FileProcessingJob{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":      FileJobStatusFailed,
			"last_error":  &errMsg,
			"retry_count": gorm.Expr("retry_count + 1"),
		}).Error
}

// ResetStaleFileJobs returns PROCESSING jobs whose claim is older than
// staleBefore back to PENDING. Covers workers that crashed mid-flight;
// without it a PROCESSING row would stay stuck forever.
func ResetStaleFileJobs(ctx context.Context, db *gorm.DB, staleBefore time.Time) (int64, error) {
	res := db.WithContext(ctx).Model(&FileProcessingJob{}).
		Where("status = ? AND started_at IS NOT NULL AND started_at <= ?", FileJobStatusProcessing, staleBefore).
		Updates(map[string]interface{}{
			"status":     FileJobStatusPending,
			"started_at": nil,
			"claimed_by": nil,
		})
	return res.RowsAffected, res.Error
}
