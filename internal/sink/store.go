package sink

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/ecpslabs/featuremart/internal/feature"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const storeBatchSize = 500

// FeatureRecord is one persisted feature row, keyed by (as_of_date, user_id).
type FeatureRecord struct {
	AsOfDate             time.Time    `gorm:"column:as_of_date;primaryKey"`
	UserID               int64        `gorm:"column:user_id;primaryKey"`
	Age                  int          `gorm:"column:age"`
	Gender               string       `gorm:"column:gender"`
	TenureDays           int          `gorm:"column:tenure_days"`
	NumInterests         int          `gorm:"column:num_interests"`
	RecencyScore         int          `gorm:"column:recency_score"`
	FrequencyScore       int          `gorm:"column:frequency_score"`
	MonetaryScore        int          `gorm:"column:monetary_score"`
	MonetaryAvgOrder     float64      `gorm:"column:monetary_avg_order"`
	AvgItemsPerOrder     float64      `gorm:"column:avg_items_per_order"`
	FrequencyLast30d     int          `gorm:"column:frequency_last_30d"`
	FrequencyLast90d     int          `gorm:"column:frequency_last_90d"`
	DaysBetweenOrders    float64      `gorm:"column:days_between_orders"`
	CouponUsageRate      float64      `gorm:"column:coupon_usage_rate"`
	DaysSinceLastSession int          `gorm:"column:days_since_last_session"`
	CartAdditionsLast30d int          `gorm:"column:cart_additions_last_30d"`
	Churn                int          `gorm:"column:churn"`
	RunID                snowflake.ID `gorm:"column:run_id"`
	CreatedAt            time.Time    `gorm:"column:created_at"`
}

func (FeatureRecord) TableName() string { return "user_features" }

// Store persists feature tables into the user_features table.
type Store struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewStore(db *gorm.DB, log *zap.Logger) *Store {
	return &Store{db: db, log: log.Named("sink.store")}
}

// Replace swaps out the as-of date's rows in one transaction, so a rerun
// for the same date leaves either the old table or the new one, never a mix.
func (s *Store) Replace(ctx context.Context, asof time.Time, runID snowflake.ID, rows []feature.Row) error {
	records := make([]FeatureRecord, 0, len(rows))
	now := time.Now().UTC()
	for _, r := range rows {
		records = append(records, FeatureRecord{
			AsOfDate:             asof,
			UserID:               r.UserID,
			Age:                  r.Age,
			Gender:               r.Gender,
			TenureDays:           r.TenureDays,
			NumInterests:         r.NumInterests,
			RecencyScore:         r.RecencyScore,
			FrequencyScore:       r.FrequencyScore,
			MonetaryScore:        r.MonetaryScore,
			MonetaryAvgOrder:     r.MonetaryAvgOrder,
			AvgItemsPerOrder:     r.AvgItemsPerOrder,
			FrequencyLast30d:     r.FrequencyLast30d,
			FrequencyLast90d:     r.FrequencyLast90d,
			DaysBetweenOrders:    r.DaysBetweenOrders,
			CouponUsageRate:      r.CouponUsageRate,
			DaysSinceLastSession: r.DaysSinceLastSession,
			CartAdditionsLast30d: r.CartAdditionsLast30d,
			Churn:                r.Churn,
			RunID:                runID,
			CreatedAt:            now,
		})
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("as_of_date = ?", asof).Delete(&FeatureRecord{}).Error; err != nil {
			return err
		}
		if len(records) == 0 {
			return nil
		}
		return tx.CreateInBatches(records, storeBatchSize).Error
	})
	if err != nil {
		return fmt.Errorf("replace feature rows: %w", err)
	}

	s.log.Info("stored feature table",
		zap.Time("asof", asof),
		zap.String("run_id", runID.String()),
		zap.Int("rows", len(rows)),
	)
	return nil
}
