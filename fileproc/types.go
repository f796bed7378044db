package fileproc

import (
	"encoding/json"

	"github.com/granformato/pedidos_backend/utils"
)

// StagedFileDescriptor points at one uploaded file parked in the staging
// area, waiting for the worker.
type StagedFileDescriptor struct {
	Path         string `json:"path" validate:"required"`
	OriginalName string `json:"originalName" validate:"required"`
	MimeType     string `json:"mimeType"`
	SizeBytes    int64  `json:"sizeBytes" validate:"gte=0"`
}

// JobPayload is the opaque payload the HTTP layer writes on enqueue and
// the worker consumes. Material context is a fallback only: the worker
// prefers the pedido's own recorded values.
type JobPayload struct {
	Files         []StagedFileDescriptor `json:"files" validate:"required,min=1,dive"`
	MaterialId    *string                `json:"materialId"`
	FallbackWidth *float64               `json:"fallbackWidth"`
	ClienteEmail  *string                `json:"clienteEmail"`
}

func EncodeJobPayload(payload JobPayload) ([]byte, error) {
	if err := utils.ValidateStruct(payload); err != nil {
		return nil, err
	}
	return json.Marshal(payload)
}

func DecodeJobPayload(raw []byte) (*JobPayload, error) {
	var payload JobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, err
	}
	if err := utils.ValidateStruct(payload); err != nil {
		return nil, err
	}
	return &payload, nil
}
