package loader

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/ecpslabs/featuremart/internal/event"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func TestCatalogSourceLoadOrdersBySequence(t *testing.T) {
	dbConn, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "catalog.db")), &gorm.Config{})
	assert.NoError(t, err)
	assert.NoError(t, dbConn.AutoMigrate(&event.Record{}))

	node, _ := snowflake.NewNode(1)
	uid := int64(7)

	// Inserted out of time order on purpose.
	later := event.Record{
		ID:        node.Generate(),
		EventTime: time.Date(2024, 5, 2, 10, 0, 0, 0, time.UTC),
		EventName: "order_paid",
		EventID:   "e2",
		UserID:    &uid,
		Attrs:     datatypes.JSONMap{"order_id": "o1", "price": "2500"},
	}
	earlier := event.Record{
		ID:        node.Generate(),
		EventTime: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
		EventName: "page_view",
		EventID:   "e1",
		UserID:    &uid,
	}
	assert.NoError(t, dbConn.Create(&later).Error)
	assert.NoError(t, dbConn.Create(&earlier).Error)

	src := NewCatalogSource(dbConn, zap.NewNop(), nil)
	events, err := src.Load(context.Background())
	assert.NoError(t, err)

	assert.Len(t, events, 2)
	assert.Equal(t, "page_view", events[0].Type)
	assert.Equal(t, int64(1), events[0].Seq)
	assert.Equal(t, "order_paid", events[1].Type)
	assert.Equal(t, int64(2), events[1].Seq)

	// Attributes stored in the sparse bag survive the round trip.
	assert.NotNil(t, events[1].Price)
	assert.Equal(t, 2500.0, *events[1].Price)
	assert.Equal(t, "o1", events[1].OrderID)
}
