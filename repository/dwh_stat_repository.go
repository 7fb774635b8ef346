package repository

import (
	"github.com/amirphl/infobip-sms-bridge/models"
	"gorm.io/gorm"
)

// DwhStatRepositoryImpl implements DwhStatRepository
type DwhStatRepositoryImpl struct {
	*BaseRepository[models.DwhStat, struct{}]
}

func NewDwhStatRepository(db *gorm.DB) DwhStatRepository {
	return &DwhStatRepositoryImpl{BaseRepository: NewBaseRepository[models.DwhStat, struct{}](db)}
}
