package repository

import (
	"context"
	"fmt"

	"github.com/amirphl/infobip-sms-bridge/models"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// DoNotContactRepositoryImpl implements DoNotContactRepository
type DoNotContactRepositoryImpl struct {
	*BaseRepository[models.DoNotContact, struct{}]
}

func NewDoNotContactRepository(db *gorm.DB) DoNotContactRepository {
	return &DoNotContactRepositoryImpl{BaseRepository: NewBaseRepository[models.DoNotContact, struct{}](db)}
}

// ExistsForLead reports whether the lead already opted out of the channel
func (r *DoNotContactRepositoryImpl) ExistsForLead(ctx context.Context, leadID uint, channel string) (bool, error) {
	db := r.getDB(ctx)
	var count int64
	err := db.Model(&models.DoNotContact{}).
		Where("lead_id = ? AND channels && ?", leadID, pq.StringArray{channel}).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check do-not-contact for lead %d: %w", leadID, err)
	}
	return count > 0, nil
}
