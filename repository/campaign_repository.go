package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/amirphl/infobip-sms-bridge/models"
	"gorm.io/gorm"
)

// CampaignRepositoryImpl implements CampaignRepository
type CampaignRepositoryImpl struct {
	*BaseRepository[models.Campaign, struct{}]
}

func NewCampaignRepository(db *gorm.DB) CampaignRepository {
	return &CampaignRepositoryImpl{BaseRepository: NewBaseRepository[models.Campaign, struct{}](db)}
}

// EventByID returns the campaign event, or nil when it does not exist
func (r *CampaignRepositoryImpl) EventByID(ctx context.Context, eventID uint) (*models.CampaignEvent, error) {
	db := r.getDB(ctx)
	var row models.CampaignEvent
	if err := db.Last(&row, eventID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find campaign event %d: %w", eventID, err)
	}
	return &row, nil
}
