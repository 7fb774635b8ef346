// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"

	"github.com/amirphl/infobip-sms-bridge/models"
)

// RepositoryContext key for transaction in context
type contextKey string

const TxContextKey contextKey = "tx"

type Repository[T any, F any] interface {
	ByID(ctx context.Context, id uint) (*T, error)
	ByFilter(ctx context.Context, filter F, orderBy string, limit, offset int) ([]*T, error)
	Save(ctx context.Context, entity *T) error
	SaveBatch(ctx context.Context, entities []*T) error
	Count(ctx context.Context, filter F) (int64, error)
	Exists(ctx context.Context, filter F) (bool, error)
}

// SMSStatRepository defines operations for per-message delivery records
type SMSStatRepository interface {
	Repository[models.SMSStat, models.SMSStatFilter]
	ByTrackingHash(ctx context.Context, trackingHash string) (*models.SMSStat, error)
	UpdateDeliveryFlags(ctx context.Context, id uint, flags models.DeliveryFlags) error
}

// DwhStatRepository appends analytics events
type DwhStatRepository interface {
	Save(ctx context.Context, stat *models.DwhStat) error
	SaveBatch(ctx context.Context, stats []*models.DwhStat) error
}

// CampaignRepository defines read operations for campaigns and campaign events
type CampaignRepository interface {
	ByID(ctx context.Context, id uint) (*models.Campaign, error)
	EventByID(ctx context.Context, eventID uint) (*models.CampaignEvent, error)
}

// LeadRepository defines read operations for leads
type LeadRepository interface {
	ByID(ctx context.Context, id uint) (*models.Lead, error)
	ByMobile(ctx context.Context, mobiles ...string) (*models.Lead, error)
}

// DoNotContactRepository defines operations for opt-out records
type DoNotContactRepository interface {
	Save(ctx context.Context, dnc *models.DoNotContact) error
	ExistsForLead(ctx context.Context, leadID uint, channel string) (bool, error)
}

// ReceiptLogRepository appends raw delivery receipts
type ReceiptLogRepository interface {
	Save(ctx context.Context, row *models.ReceiptLog) error
}
