package sink

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/ecpslabs/featuremart/internal/feature"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupStoreDB(t *testing.T) *gorm.DB {
	t.Helper()
	dbConn, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "store.db")), &gorm.Config{})
	assert.NoError(t, err)
	assert.NoError(t, dbConn.AutoMigrate(&FeatureRecord{}))
	return dbConn
}

func TestStoreReplace(t *testing.T) {
	dbConn := setupStoreDB(t)
	node, _ := snowflake.NewNode(1)
	store := NewStore(dbConn, zap.NewNop())

	asof := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	rows := []feature.Row{
		{UserID: 1, Gender: "male", RecencyScore: 3},
		{UserID: 2, DaysSinceLastSession: feature.NeverSeenDays, Churn: 1},
	}

	err := store.Replace(context.Background(), asof, node.Generate(), rows)
	assert.NoError(t, err)

	var count int64
	dbConn.Model(&FeatureRecord{}).Count(&count)
	assert.Equal(t, int64(2), count)

	// Rerunning the same date replaces rather than appends.
	err = store.Replace(context.Background(), asof, node.Generate(), rows[:1])
	assert.NoError(t, err)
	dbConn.Model(&FeatureRecord{}).Count(&count)
	assert.Equal(t, int64(1), count)

	var rec FeatureRecord
	assert.NoError(t, dbConn.First(&rec, "user_id = ?", 1).Error)
	assert.Equal(t, "male", rec.Gender)
	assert.Equal(t, 3, rec.RecencyScore)
}

func TestStoreReplaceKeepsOtherDates(t *testing.T) {
	dbConn := setupStoreDB(t)
	node, _ := snowflake.NewNode(1)
	store := NewStore(dbConn, zap.NewNop())

	day1 := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	day2 := time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)

	assert.NoError(t, store.Replace(context.Background(), day1, node.Generate(), []feature.Row{{UserID: 1}}))
	assert.NoError(t, store.Replace(context.Background(), day2, node.Generate(), []feature.Row{{UserID: 1}}))
	assert.NoError(t, store.Replace(context.Background(), day2, node.Generate(), nil))

	var count int64
	dbConn.Model(&FeatureRecord{}).Count(&count)
	assert.Equal(t, int64(1), count)

	var rec FeatureRecord
	assert.NoError(t, dbConn.First(&rec).Error)
	assert.Equal(t, day1.Format("2006-01-02"), rec.AsOfDate.Format("2006-01-02"))
}
