package models

import (
	"time"

	"gorm.io/gorm"
)

// Attachment is one processed artwork file of a pedido, with the physical
// metrics extracted by the file worker. Immutable once created.
type Attachment struct {
	ID            int       `gorm:"primary_key" json:"id"`
	PedidoId      int       `gorm:"index;not null" json:"pedido_id"`
	Filename      string    `gorm:"size:255;not null" json:"filename"`
	MimeType      string    `gorm:"size:100" json:"mime_type"`
	SizeBytes     int64     `gorm:"not null;default:0" json:"size_bytes"`
	WidthCm       float64   `gorm:"default:0" json:"width_cm"`
	HeightCm      float64   `gorm:"default:0" json:"height_cm"`
	AreaCm2       float64   `gorm:"default:0" json:"area_cm2"`
	LengthCm      float64   `gorm:"default:0" json:"length_cm"`
	Content       []byte    `gorm:"type:longblob" json:"-"`
	ThumbnailPath string    `gorm:"size:512" json:"thumbnail_path"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func CreateAttachment(tx *gorm.DB, attachment *Attachment) error {
	return tx.Create(attachment).Error
}

func GetAttachmentsByPedido(tx *gorm.DB, pedidoId int) ([]*Attachment, error) {
	var attachments []*Attachment
	if err := tx.Where("pedido_id = ?", pedidoId).
		Order("id ASC").
		Find(&attachments).Error; err != nil {
		return nil, err
	}
	return attachments, nil
}
