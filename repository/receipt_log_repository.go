package repository

import (
	"github.com/amirphl/infobip-sms-bridge/models"
	"gorm.io/gorm"
)

// ReceiptLogRepositoryImpl implements ReceiptLogRepository
type ReceiptLogRepositoryImpl struct {
	*BaseRepository[models.ReceiptLog, struct{}]
}

func NewReceiptLogRepository(db *gorm.DB) ReceiptLogRepository {
	return &ReceiptLogRepositoryImpl{BaseRepository: NewBaseRepository[models.ReceiptLog, struct{}](db)}
}
