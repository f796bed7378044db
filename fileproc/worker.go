package fileproc

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/granformato/pedidos_backend/config"
	"github.com/granformato/pedidos_backend/models"
	"github.com/granformato/pedidos_backend/utils"
	"github.com/granformato/pedidos_backend/workflow"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Worker polls the file-processing job table, claims PENDING jobs via a
// conditional status update, and turns each job's staged files into
// measured attachments plus the matching stock-ledger delta, all inside
// one transaction per job.
//
// Multiple instances may run concurrently: correctness relies on the
// per-job claim and the ledger's guarded mutations, not on there being a
// single worker.
type Worker struct {
	DB           *gorm.DB
	Logger       *logrus.Logger
	WorkerID     string
	BatchSize    int
	Interval     time.Duration
	StaleAfter   time.Duration
	ThumbnailDir string
}

func NewWorker(db *gorm.DB, logger *logrus.Logger) *Worker {
	return &Worker{
		DB:           db,
		Logger:       logger,
		WorkerID:     "fileproc-" + time.Now().Format("20060102-150405.000"),
		BatchSize:    1,
		Interval:     2 * time.Second,
		StaleAfter:   10 * time.Minute,
		ThumbnailDir: filepath.Join(os.TempDir(), "pedidos-thumbnails"),
	}
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.DB == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		w.processOnce(ctx)
		select {
		case <-ctx.Done():
			return
		case <-time.After(w.Interval):
		}
	}
}

func (w *Worker) processOnce(ctx context.Context) {
	if config.ResetStaleProcessingJobs() && w.StaleAfter > 0 {
		staleBefore := time.Now().UTC().Add(-w.StaleAfter)
		if n, err := models.ResetStaleFileJobs(ctx, w.DB, staleBefore); err != nil {
			config.LogError(w.Logger, "fileproc", "processOnce", "ResetStaleFileJobs", nil, err)
		} else if n > 0 && w.Logger != nil {
			w.Logger.WithFields(logrus.Fields{
				"module":    "fileproc",
				"worker_id": w.WorkerID,
				"count":     n,
			}).Warn("reset stale PROCESSING jobs back to PENDING")
		}
	}

	jobs, err := models.PendingFileJobs(ctx, w.DB, w.BatchSize)
	if err != nil {
		config.LogError(w.Logger, "fileproc", "processOnce", "PendingFileJobs", nil, err)
		return
	}

	for _, job := range jobs {
		claimed, err := models.ClaimFileJob(ctx, w.DB, job.ID, w.WorkerID)
		if err != nil {
			config.LogError(w.Logger, "fileproc", "processOnce", "ClaimFileJob", job.ID, err)
			continue
		}
		if !claimed {
			// another instance got there first
			continue
		}
		// a failure in one job must not block the rest of the batch
		w.processJob(ctx, job)
	}
}

type measuredFile struct {
	descriptor    StagedFileDescriptor
	content       []byte
	metrics       *AttachmentMetrics
	thumbnailPath string
}

func (w *Worker) processJob(ctx context.Context, job *models.FileProcessingJob) {
	procCtx := utils.SetWorkerIdInContext(ctx, w.WorkerID)
	procCtx = utils.SetCorrelationIdInContext(procCtx, uuid.NewString())

	payload, err := DecodeJobPayload(job.Payload)
	if err != nil {
		w.failJob(procCtx, job, fmt.Errorf("invalid job payload: %w", err))
		return
	}
	if payload.ClienteEmail != nil {
		procCtx = utils.SetClienteEmailInContext(procCtx, *payload.ClienteEmail)
	}

	// Material context: the pedido's own recorded values win over the
	// payload's fallbacks recorded at enqueue time.
	pedido, err := models.GetPedido(w.DB.WithContext(procCtx), job.PedidoId)
	if err != nil {
		w.failJob(procCtx, job, err)
		return
	}
	materialId := models.ExtractMaterialIdFromPedido(pedido, utils.DereferencePtr(payload.MaterialId, ""))
	widthOverride := models.ExtractMaterialWidthFromPedido(pedido, payload.FallbackWidth)
	effectiveWidthCm := models.EffectiveMaterialWidth(widthOverride, materialId)

	measured := make([]measuredFile, 0, len(payload.Files))
	for _, descriptor := range payload.Files {
		content, err := ReadStagedFile(descriptor)
		if err != nil {
			w.failJob(procCtx, job, fmt.Errorf("read staged file %s: %w", descriptor.Path, err))
			return
		}
		metrics, err := CalculateAttachmentMetrics(content, descriptor.OriginalName, descriptor.MimeType, effectiveWidthCm)
		if err != nil {
			w.failJob(procCtx, job, err)
			return
		}
		measured = append(measured, measuredFile{
			descriptor:    descriptor,
			content:       content,
			metrics:       metrics,
			thumbnailPath: w.makeThumbnail(content, descriptor),
		})
	}

	// Best-effort outer lock; the recompute also serializes per pedido via
	// a MySQL advisory lock, so reliability never depends on Redis.
	redisLock := utils.ObtainPedidoLock(procCtx, job.PedidoId)
	defer utils.ReleasePedidoLock(procCtx, redisLock)

	err = w.DB.WithContext(procCtx).Transaction(func(tx *gorm.DB) error {
		for _, m := range measured {
			attachment := &models.Attachment{
				PedidoId:      job.PedidoId,
				Filename:      m.descriptor.OriginalName,
				MimeType:      m.descriptor.MimeType,
				SizeBytes:     m.descriptor.SizeBytes,
				WidthCm:       m.metrics.WidthCm,
				HeightCm:      m.metrics.HeightCm,
				AreaCm2:       m.metrics.AreaCm2,
				LengthCm:      m.metrics.LengthCm,
				Content:       m.content,
				ThumbnailPath: m.thumbnailPath,
			}
			if err := models.CreateAttachment(tx, attachment); err != nil {
				return err
			}
		}
		_, err := workflow.RecomputePedidoAggregates(tx, w.Logger, job.PedidoId)
		return err
	})
	if err != nil {
		// attachments + ledger rolled back together; staged files are
		// kept on disk for forensic inspection
		w.failJob(procCtx, job, err)
		return
	}

	RemoveStagedFiles(w.Logger, payload.Files)

	if err := models.MarkFileJobCompleted(procCtx, w.DB, job.ID); err != nil {
		config.LogError(w.Logger, "fileproc", "processJob", "MarkFileJobCompleted", job.ID, err)
		return
	}
	if w.Logger != nil {
		fields := logrus.Fields{
			"module":    "fileproc",
			"worker_id": w.WorkerID,
			"job_id":    job.ID,
			"pedido_id": job.PedidoId,
			"files":     len(payload.Files),
		}
		if correlationId, ok := utils.GetCorrelationIdFromContext(procCtx); ok {
			fields["correlation_id"] = correlationId
		}
		if email, ok := utils.GetClienteEmailFromContext(procCtx); ok {
			fields["cliente_email"] = email
		}
		w.Logger.WithFields(fields).Info("file processing job completed")
	}
}

func (w *Worker) failJob(ctx context.Context, job *models.FileProcessingJob, cause error) {
	errMsg := utils.TruncateErrorMessage(cause, 1000)
	if err := models.MarkFileJobFailed(ctx, w.DB, job.ID, errMsg); err != nil {
		config.LogError(w.Logger, "fileproc", "failJob", "MarkFileJobFailed", job.ID, err)
	}
	if w.Logger != nil {
		workerId := w.WorkerID
		if ctxWorkerId, ok := utils.GetWorkerIdFromContext(ctx); ok {
			workerId = ctxWorkerId
		}
		fields := logrus.Fields{
			"module":    "fileproc",
			"worker_id": workerId,
			"job_id":    job.ID,
			"pedido_id": job.PedidoId,
		}
		if correlationId, ok := utils.GetCorrelationIdFromContext(ctx); ok {
			fields["correlation_id"] = correlationId
		}
		w.Logger.WithFields(fields).Error("file processing job failed: " + errMsg)
	}
}

// makeThumbnail renders a small preview for raster artwork. Best-effort:
// documents and undecodable content simply get no thumbnail.
func (w *Worker) makeThumbnail(content []byte, descriptor StagedFileDescriptor) string {
	if w.ThumbnailDir == "" || !isRasterImage(content, descriptor.OriginalName, descriptor.MimeType) {
		return ""
	}
	img, err := imaging.Decode(bytes.NewReader(content))
	if err != nil {
		return ""
	}
	if err := os.MkdirAll(w.ThumbnailDir, 0o755); err != nil {
		return ""
	}
	thumbnail := imaging.Resize(img, 200, 0, imaging.Lanczos)
	path := filepath.Join(w.ThumbnailDir, uuid.NewString()+".jpg")
	if err := imaging.Save(thumbnail, path); err != nil {
		return ""
	}
	return path
}
