package config

import (
	"os"
	"strings"
)

// RunFileWorker controls the in-process file-metrics worker.
//
// Set via env:
// - FILEPROC_WORKER=false to disable (e.g. when a dedicated worker
//   deployment polls the same jobs table).
//
// Default: run. Jobs are claimed with a conditional status update, so
// running the worker alongside a dedicated deployment is safe.
func RunFileWorker() bool {
	val := strings.ToLower(strings.TrimSpace(os.Getenv("FILEPROC_WORKER")))
	if val == "false" {
		return false
	}
	return true
}

// ResetStaleProcessingJobs controls the stale-job recovery sweep: jobs
// stuck in PROCESSING longer than the worker's stale TTL (a crashed
// worker never finishes them) are put back to PENDING.
//
// Set via env:
// - FILEPROC_STALE_RESET=false to disable.
func ResetStaleProcessingJobs() bool {
	val := strings.ToLower(strings.TrimSpace(os.Getenv("FILEPROC_STALE_RESET")))
	if val == "false" {
		return false
	}
	return true
}
