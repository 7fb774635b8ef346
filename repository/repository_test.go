package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/amirphl/infobip-sms-bridge/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: sqlDB,
	}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return gormDB, mock
}

func TestSMSStatRepository_ByTrackingHash(t *testing.T) {
	testcases := []struct {
		name         string
		trackingHash string
		mock         func(sqlmock.Sqlmock)
		wantNil      bool
		wantErr      bool
	}{
		{
			name:         "record found",
			trackingHash: "abc-123",
			mock: func(m sqlmock.Sqlmock) {
				rows := sqlmock.NewRows([]string{"id", "tracking_hash", "mobile", "is_pending", "is_delivered", "has_failed"}).
					AddRow(7, "abc-123", "+15550001111", true, false, false)
				m.ExpectQuery(`SELECT \* FROM "sms_message_stats" WHERE tracking_hash = \$1`).WillReturnRows(rows)
			},
		},
		{
			name:         "record missing",
			trackingHash: "missing",
			mock: func(m sqlmock.Sqlmock) {
				m.ExpectQuery(`SELECT \* FROM "sms_message_stats" WHERE tracking_hash = \$1`).
					WillReturnRows(sqlmock.NewRows([]string{"id"}))
			},
			wantNil: true,
		},
		{
			name:         "empty hash never queries",
			trackingHash: "",
			mock:         func(sqlmock.Sqlmock) {},
			wantNil:      true,
		},
		{
			name:         "query failure",
			trackingHash: "abc-123",
			mock: func(m sqlmock.Sqlmock) {
				m.ExpectQuery(`SELECT \* FROM "sms_message_stats"`).WillReturnError(errors.New("connection reset"))
			},
			wantNil: true,
			wantErr: true,
		},
	}
	for _, tc := range testcases {
		t.Run(tc.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			tc.mock(mock)

			repo := NewSMSStatRepository(db)
			got, err := repo.ByTrackingHash(context.Background(), tc.trackingHash)
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			if tc.wantNil {
				assert.Nil(t, got)
			} else {
				require.NotNil(t, got)
				assert.Equal(t, uint(7), got.ID)
				assert.Equal(t, models.DeliveryFlags{IsPending: true}, got.Flags())
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestSMSStatRepository_UpdateDeliveryFlags(t *testing.T) {
	t.Run("commits own transaction", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE "sms_message_stats" SET`).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		repo := NewSMSStatRepository(db)
		err := repo.UpdateDeliveryFlags(context.Background(), 7, models.DeliveryFlags{IsDelivered: true})
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back on failure", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE "sms_message_stats" SET`).WillReturnError(errors.New("deadlock"))
		mock.ExpectRollback()

		repo := NewSMSStatRepository(db)
		err := repo.UpdateDeliveryFlags(context.Background(), 7, models.DeliveryFlags{HasFailed: true})
		assert.ErrorContains(t, err, "deadlock")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("reports failed commit", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE "sms_message_stats" SET`).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit().WillReturnError(errors.New("connection reset"))

		repo := NewSMSStatRepository(db)
		err := repo.UpdateDeliveryFlags(context.Background(), 7, models.DeliveryFlags{IsDelivered: true})
		assert.ErrorContains(t, err, "failed to commit transaction")
		assert.ErrorContains(t, err, "connection reset")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing record rolls back", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE "sms_message_stats" SET`).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		repo := NewSMSStatRepository(db)
		err := repo.UpdateDeliveryFlags(context.Background(), 7, models.DeliveryFlags{IsDelivered: true})
		assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("joins caller transaction", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE "sms_message_stats" SET`).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := WithTransaction(context.Background(), db, func(ctx context.Context) error {
			return NewSMSStatRepository(db).UpdateDeliveryFlags(ctx, 7, models.DeliveryFlags{IsPending: true})
		})
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestSMSStatRepository_Count(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(`SELECT count\(\*\) FROM "sms_message_stats" WHERE is_pending = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	pending := true
	repo := NewSMSStatRepository(db)
	exists, err := repo.Exists(context.Background(), models.SMSStatFilter{IsPending: &pending})
	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDwhStatRepository_Save(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "dwh_stats"`).WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectCommit()

	stat := &models.DwhStat{
		CampaignID: 3,
		ChannelID:  11,
		Channel:    "sms",
		EventType:  models.DwhEventDelivered,
		EventTs:    time.Now().UTC(),
	}
	err := NewDwhStatRepository(db).Save(context.Background(), stat)
	require.NoError(t, err)
	assert.Equal(t, uint(1), stat.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDwhStatRepository_SaveFailures(t *testing.T) {
	stat := func() *models.DwhStat {
		return &models.DwhStat{Channel: "sms", EventType: models.DwhEventFail, EventTs: time.Now().UTC()}
	}

	t.Run("insert error rolls back", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectBegin()
		mock.ExpectQuery(`INSERT INTO "dwh_stats"`).WillReturnError(errors.New("constraint"))
		mock.ExpectRollback()

		err := NewDwhStatRepository(db).Save(context.Background(), stat())
		assert.ErrorContains(t, err, "constraint")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("commit error is returned", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectBegin()
		mock.ExpectQuery(`INSERT INTO "dwh_stats"`).WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
		mock.ExpectCommit().WillReturnError(errors.New("connection reset"))

		err := NewDwhStatRepository(db).Save(context.Background(), stat())
		assert.ErrorContains(t, err, "failed to commit transaction")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("batch commit error is returned", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectBegin()
		mock.ExpectQuery(`INSERT INTO "dwh_stats"`).WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1).AddRow(2))
		mock.ExpectCommit().WillReturnError(errors.New("connection reset"))

		err := NewDwhStatRepository(db).SaveBatch(context.Background(), []*models.DwhStat{stat(), stat()})
		assert.ErrorContains(t, err, "failed to commit transaction")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestCampaignRepository_EventByID(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(`SELECT \* FROM "campaign_events" WHERE "campaign_events"."id" = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "campaign_id"}).AddRow(4, 12))
	mock.ExpectQuery(`SELECT \* FROM "campaign_events"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	repo := NewCampaignRepository(db)
	ev, err := repo.EventByID(context.Background(), 4)
	require.NoError(t, err)
	require.NotNil(t, ev)
	assert.Equal(t, uint(12), ev.CampaignID)

	ev, err = repo.EventByID(context.Background(), 5)
	require.NoError(t, err)
	assert.Nil(t, ev)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLeadRepository_ByMobile(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(`SELECT \* FROM "leads" WHERE mobile IN \(\$1,\$2\)`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "mobile"}).AddRow(9, "jdoe", "+15550001111"))

	lead, err := NewLeadRepository(db).ByMobile(context.Background(), "+15550001111", "15550001111")
	require.NoError(t, err)
	require.NotNil(t, lead)
	assert.Equal(t, uint(9), lead.ID)
	assert.Equal(t, "jdoe", *lead.Username)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDoNotContactRepository(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(`SELECT count\(\*\) FROM "lead_donotcontact" WHERE lead_id = \$1 AND channels && \$2`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "lead_donotcontact"`).WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(2))
	mock.ExpectCommit()

	repo := NewDoNotContactRepository(db)
	exists, err := repo.ExistsForLead(context.Background(), 9, "sms")
	require.NoError(t, err)
	assert.False(t, exists)

	row := &models.DoNotContact{
		LeadID:    9,
		Channels:  []string{"sms"},
		Reason:    models.DNCReasonUnsubscribed,
		DateAdded: time.Now().UTC(),
	}
	require.NoError(t, repo.Save(context.Background(), row))
	assert.Equal(t, uint(2), row.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTransaction_RollsBackOnError(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectRollback()

	boom := errors.New("boom")
	err := WithTransaction(context.Background(), db, func(ctx context.Context) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}
