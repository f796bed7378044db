package fileproc

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/granformato/pedidos_backend/config"
	"github.com/granformato/pedidos_backend/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupWorkerDB(t *testing.T) *gorm.DB {
	t.Helper()
	if strings.TrimSpace(os.Getenv("INTEGRATION_TESTS")) == "" {
		t.Skip("set INTEGRATION_TESTS=1 to run integration tests (requires docker)")
	}

	mysqlName, mysqlPort := startMySQLContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(mysqlName) })

	t.Setenv("DB_USER", "root")
	t.Setenv("DB_PASSWORD", "testpw")
	t.Setenv("DB_HOST", "127.0.0.1")
	t.Setenv("DB_PORT", mysqlPort)
	t.Setenv("DB_NAME", "pedidos_test")

	config.ConnectDatabaseWithRetry()
	models.MigrateTable()

	db := config.GetDB()
	if db == nil {
		t.Fatal("db is nil after ConnectDatabaseWithRetry")
	}
	return db
}

func stageTestFile(t *testing.T, name string, content []byte) StagedFileDescriptor {
	t.Helper()
	path := filepath.Join(StagingDir(), name)
	if err := os.MkdirAll(StagingDir(), 0o755); err != nil {
		t.Fatalf("mkdir staging: %v", err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("stage file: %v", err)
	}
	return StagedFileDescriptor{
		Path:         path,
		OriginalName: name,
		SizeBytes:    int64(len(content)),
	}
}

func enqueueAndClaim(t *testing.T, db *gorm.DB, pedidoId int, descriptor StagedFileDescriptor) *models.FileProcessingJob {
	t.Helper()
	ctx := context.Background()
	payload, err := EncodeJobPayload(JobPayload{Files: []StagedFileDescriptor{descriptor}})
	if err != nil {
		t.Fatalf("encode payload: %v", err)
	}
	job, err := models.EnqueueFileProcessingJob(ctx, pedidoId, payload)
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	claimed, err := models.ClaimFileJob(ctx, db, job.ID, "worker-test")
	if err != nil || !claimed {
		t.Fatalf("claim job: claimed=%v err=%v", claimed, err)
	}
	return job
}

func TestWorkerMarksJobFailedOnUnsupportedFile(t *testing.T) {
	db := setupWorkerDB(t)
	t.Setenv("FILEPROC_STAGING_DIR", t.TempDir())
	ctx := context.Background()

	pedido := models.Pedido{MaterialId: "vinilo106"}
	if err := db.Create(&pedido).Error; err != nil {
		t.Fatalf("create pedido: %v", err)
	}
	descriptor := stageTestFile(t, "notas.txt", []byte("plain text, not artwork"))
	job := enqueueAndClaim(t, db, pedido.ID, descriptor)

	w := NewWorker(db, config.GetLogger())
	w.ThumbnailDir = t.TempDir()
	w.processJob(ctx, job)

	reloaded, err := models.GetFileProcessingJob(ctx, job.ID)
	if err != nil || reloaded == nil {
		t.Fatalf("reload job: %v", err)
	}
	if reloaded.Status != models.FileJobStatusFailed {
		t.Fatalf("status = %s, want FAILED", reloaded.Status)
	}
	if reloaded.RetryCount != 1 {
		t.Fatalf("retry_count = %d, want 1", reloaded.RetryCount)
	}
	if reloaded.LastError == nil || !strings.Contains(*reloaded.LastError, "unsupported file format") {
		t.Fatalf("last_error = %v, want unsupported file format", reloaded.LastError)
	}
	// failed jobs keep their staged files on disk for inspection
	if _, err := os.Stat(descriptor.Path); err != nil {
		t.Fatalf("staged file missing after failure: %v", err)
	}
}

func TestWorkerFailureTruncatesError(t *testing.T) {
	db := setupWorkerDB(t)
	ctx := context.Background()

	pedido := models.Pedido{MaterialId: "vinilo106"}
	if err := db.Create(&pedido).Error; err != nil {
		t.Fatalf("create pedido: %v", err)
	}
	job, err := models.EnqueueFileProcessingJob(ctx, pedido.ID,
		[]byte(`{"files":[{"path":"/tmp/x","originalName":"x.pdf"}]}`))
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	w := NewWorker(db, config.GetLogger())
	w.failJob(ctx, job, errors.New(strings.Repeat("x", 5000)))

	reloaded, err := models.GetFileProcessingJob(ctx, job.ID)
	if err != nil || reloaded == nil {
		t.Fatalf("reload job: %v", err)
	}
	if reloaded.Status != models.FileJobStatusFailed {
		t.Fatalf("status = %s, want FAILED", reloaded.Status)
	}
	if reloaded.LastError == nil || len(*reloaded.LastError) != 1000 {
		t.Fatalf("last_error length = %d, want 1000", len(derefString(reloaded.LastError)))
	}

	// a second failure only bumps the bookkeeping counter
	w.failJob(ctx, job, errors.New("segunda causa"))
	reloaded, err = models.GetFileProcessingJob(ctx, job.ID)
	if err != nil || reloaded == nil {
		t.Fatalf("reload job: %v", err)
	}
	if reloaded.RetryCount != 2 {
		t.Fatalf("retry_count = %d, want 2", reloaded.RetryCount)
	}
}

func TestWorkerProcessesJobEndToEnd(t *testing.T) {
	db := setupWorkerDB(t)
	t.Setenv("FILEPROC_STAGING_DIR", t.TempDir())
	ctx := context.Background()

	item := models.InventoryItem{
		Code:          "vinilo106",
		Name:          "vinilo106",
		Quantity:      10,
		PricePerMeter: decimal.NewFromInt(1200),
		WidthCm:       106,
	}
	if err := db.Create(&item).Error; err != nil {
		t.Fatalf("create inventory item: %v", err)
	}
	pedido := models.Pedido{MaterialId: "vinilo106"}
	if err := db.Create(&pedido).Error; err != nil {
		t.Fatalf("create pedido: %v", err)
	}

	// 600x300 px at the default 300 dpi: 5.08 x 2.54 cm, 2.54 cm of run
	// length, which the ledger rounds to 3 cm.
	descriptor := stageTestFile(t, "arte.png", encodePng(t, 600, 300))
	job := enqueueAndClaim(t, db, pedido.ID, descriptor)

	w := NewWorker(db, config.GetLogger())
	w.ThumbnailDir = t.TempDir()
	w.processJob(ctx, job)

	reloaded, err := models.GetFileProcessingJob(ctx, job.ID)
	if err != nil || reloaded == nil {
		t.Fatalf("reload job: %v", err)
	}
	if reloaded.Status != models.FileJobStatusCompleted {
		t.Fatalf("status = %s, want COMPLETED (last_error=%v)", reloaded.Status, reloaded.LastError)
	}
	if reloaded.CompletedAt == nil {
		t.Fatal("completed_at not set")
	}
	if reloaded.LastError != nil {
		t.Fatalf("last_error = %q, want nil", *reloaded.LastError)
	}

	attachments, err := models.GetAttachmentsByPedido(db, pedido.ID)
	if err != nil {
		t.Fatalf("list attachments: %v", err)
	}
	if len(attachments) != 1 {
		t.Fatalf("attachments = %d, want 1", len(attachments))
	}

	var reloadedItem models.InventoryItem
	if err := db.Where("id = ?", item.ID).First(&reloadedItem).Error; err != nil {
		t.Fatalf("reload item: %v", err)
	}
	if reloadedItem.Quantity != 10 {
		t.Fatalf("quantity = %d, want 10", reloadedItem.Quantity)
	}
	var remainder models.MaterialRemainder
	if err := db.Where("inventory_item_id = ?", item.ID).First(&remainder).Error; err != nil {
		t.Fatalf("reload remainder: %v", err)
	}
	if remainder.RemainderCm != 3 {
		t.Fatalf("remainder = %d, want 3", remainder.RemainderCm)
	}

	// success path cleans up the staging area
	if _, err := os.Stat(descriptor.Path); !os.IsNotExist(err) {
		t.Fatalf("staged file still present after success: %v", err)
	}
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func startMySQLContainer(t *testing.T) (containerName, hostPort string) {
	t.Helper()
	name := fmt.Sprintf("pedidos-test-mysql-%d", time.Now().UnixNano())
	out, err := dockerRun(
		"run", "-d", "--name", name,
		"-e", "MYSQL_ROOT_PASSWORD=testpw",
		"-e", "MYSQL_DATABASE=pedidos_test",
		"-p", "127.0.0.1:0:3306",
		"mysql:8.0",
		"--default-authentication-plugin=mysql_native_password",
	)
	if err != nil {
		t.Fatalf("start mysql container: %v\n%s", err, out)
	}
	port, err := dockerHostPort(name, "3306/tcp")
	if err != nil {
		t.Fatalf("mysql docker port: %v", err)
	}
	deadline := time.Now().Add(120 * time.Second)
	for time.Now().Before(deadline) {
		_, err := dockerRun("exec", name, "mysqladmin", "ping", "-h", "127.0.0.1", "-ptestpw", "--silent")
		if err == nil {
			return name, port
		}
		time.Sleep(500 * time.Millisecond)
	}
	t.Fatalf("mysql did not become ready")
	return "", ""
}

func dockerHostPort(container, portProto string) (string, error) {
	out, err := dockerRun("port", container, portProto)
	if err != nil {
		return "", fmt.Errorf("docker port: %w: %s", err, out)
	}
	re := regexp.MustCompile(`:(\d+)`)
	m := re.FindStringSubmatch(out)
	if len(m) != 2 {
		return "", fmt.Errorf("unexpected docker port output: %q", out)
	}
	return m[1], nil
}

func dockerRmForce(container string) error {
	if strings.TrimSpace(container) == "" {
		return nil
	}
	_, err := dockerRun("rm", "-f", container)
	return err
}

func dockerRun(args ...string) (string, error) {
	cmd := exec.Command("docker", args...)
	b, err := cmd.CombinedOutput()
	return string(b), err
}
