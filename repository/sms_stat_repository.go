package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/amirphl/infobip-sms-bridge/models"
	"github.com/amirphl/infobip-sms-bridge/utils"
	"gorm.io/gorm"
)

// SMSStatRepositoryImpl implements SMSStatRepository
type SMSStatRepositoryImpl struct {
	*BaseRepository[models.SMSStat, models.SMSStatFilter]
}

func NewSMSStatRepository(db *gorm.DB) SMSStatRepository {
	return &SMSStatRepositoryImpl{BaseRepository: NewBaseRepository[models.SMSStat, models.SMSStatFilter](db)}
}

// ByTrackingHash returns the record keyed by the vendor message id, or nil when absent
func (r *SMSStatRepositoryImpl) ByTrackingHash(ctx context.Context, trackingHash string) (*models.SMSStat, error) {
	if trackingHash == "" {
		return nil, nil
	}
	db := r.getDB(ctx)
	var row models.SMSStat
	if err := db.Where("tracking_hash = ?", trackingHash).Last(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find sms stat by tracking hash: %w", err)
	}
	return &row, nil
}

// UpdateDeliveryFlags writes all three flags in one statement. A record that
// no longer exists yields a wrapped gorm.ErrRecordNotFound.
func (r *SMSStatRepositoryImpl) UpdateDeliveryFlags(ctx context.Context, id uint, flags models.DeliveryFlags) (err error) {
	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return err
	}

	if shouldCommit {
		defer finishWrite(db, &err)
	}

	res := db.Model(&models.SMSStat{}).Where("id = ?", id).Updates(map[string]any{
		"is_pending":   flags.IsPending,
		"is_delivered": flags.IsDelivered,
		"has_failed":   flags.HasFailed,
		"updated_at":   utils.UTCNow(),
	})
	if res.Error != nil {
		return fmt.Errorf("failed to update delivery flags for sms stat %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("sms stat %d: %w", id, gorm.ErrRecordNotFound)
	}
	return nil
}

func (r *SMSStatRepositoryImpl) applyFilter(db *gorm.DB, f models.SMSStatFilter) *gorm.DB {
	if f.ID != nil {
		db = db.Where("id = ?", *f.ID)
	}
	if f.SMSID != nil {
		db = db.Where("sms_id = ?", *f.SMSID)
	}
	if f.LeadID != nil {
		db = db.Where("lead_id = ?", *f.LeadID)
	}
	if f.TrackingHash != nil {
		db = db.Where("tracking_hash = ?", *f.TrackingHash)
	}
	if f.IsPending != nil {
		db = db.Where("is_pending = ?", *f.IsPending)
	}
	if f.IsDelivered != nil {
		db = db.Where("is_delivered = ?", *f.IsDelivered)
	}
	if f.HasFailed != nil {
		db = db.Where("has_failed = ?", *f.HasFailed)
	}
	if f.SentAfter != nil {
		db = db.Where("date_sent >= ?", *f.SentAfter)
	}
	if f.SentBefore != nil {
		db = db.Where("date_sent < ?", *f.SentBefore)
	}
	return db
}

func (r *SMSStatRepositoryImpl) ByFilter(ctx context.Context, filter models.SMSStatFilter, orderBy string, limit, offset int) ([]*models.SMSStat, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.SMSStat{}), filter)
	if orderBy != "" {
		query = query.Order(orderBy)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	var rows []*models.SMSStat
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *SMSStatRepositoryImpl) Count(ctx context.Context, filter models.SMSStatFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.SMSStat{}), filter)
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *SMSStatRepositoryImpl) Exists(ctx context.Context, filter models.SMSStatFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}
