package fileproc

import (
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// StagingDir is where uploaded files wait for the worker.
// Env override: FILEPROC_STAGING_DIR.
func StagingDir() string {
	if dir := strings.TrimSpace(os.Getenv("FILEPROC_STAGING_DIR")); dir != "" {
		return dir
	}
	return filepath.Join(os.TempDir(), "pedidos-staging")
}

// StageUpload copies an uploaded file into the staging area under a
// collision-free name and returns its descriptor for the job payload.
func StageUpload(fileHeader *multipart.FileHeader) (*StagedFileDescriptor, error) {
	src, err := fileHeader.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	dir := StagingDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	stagedPath := filepath.Join(dir, uuid.NewString()+filepath.Ext(fileHeader.Filename))
	dst, err := os.Create(stagedPath)
	if err != nil {
		return nil, err
	}
	defer dst.Close()

	written, err := io.Copy(dst, src)
	if err != nil {
		os.Remove(stagedPath)
		return nil, err
	}

	return &StagedFileDescriptor{
		Path:         stagedPath,
		OriginalName: fileHeader.Filename,
		MimeType:     fileHeader.Header.Get("Content-Type"),
		SizeBytes:    written,
	}, nil
}

func ReadStagedFile(descriptor StagedFileDescriptor) ([]byte, error) {
	return os.ReadFile(descriptor.Path)
}

// RemoveStagedFiles deletes staged files after a successful job.
// Best-effort: a file that cannot be deleted is logged and left behind,
// never failed on. Failed jobs keep their staged files for forensic
// inspection, so this must only be called on the success path.
func RemoveStagedFiles(logger *logrus.Logger, files []StagedFileDescriptor) {
	for _, f := range files {
		if err := os.Remove(f.Path); err != nil && !os.IsNotExist(err) {
			if logger != nil {
				logger.WithFields(logrus.Fields{
					"module":   "fileproc",
					"funcName": "RemoveStagedFiles",
					"path":     f.Path,
				}).Warn("could not delete staged file: " + err.Error())
			}
		}
	}
}
