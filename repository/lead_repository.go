package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/amirphl/infobip-sms-bridge/models"
	"gorm.io/gorm"
)

// LeadRepositoryImpl implements LeadRepository
type LeadRepositoryImpl struct {
	*BaseRepository[models.Lead, struct{}]
}

func NewLeadRepository(db *gorm.DB) LeadRepository {
	return &LeadRepositoryImpl{BaseRepository: NewBaseRepository[models.Lead, struct{}](db)}
}

// ByMobile returns the most recent lead matching any of the given numbers
func (r *LeadRepositoryImpl) ByMobile(ctx context.Context, mobiles ...string) (*models.Lead, error) {
	if len(mobiles) == 0 {
		return nil, nil
	}
	db := r.getDB(ctx)
	var row models.Lead
	if err := db.Where("mobile IN ?", mobiles).Last(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find lead by mobile: %w", err)
	}
	return &row, nil
}
