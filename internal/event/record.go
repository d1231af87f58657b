package event

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Record is one row of the analytics_events catalog table. Typed columns
// carry the fields every reader needs; the rest of the producer's sparse
// attribute bag lives in Attrs.
type Record struct {
	ID        snowflake.ID      `gorm:"primaryKey;column:id"`
	EventTime time.Time         `gorm:"column:event_time;index"`
	EventName string            `gorm:"column:event_name"`
	LogType   string            `gorm:"column:log_type"`
	EventID   string            `gorm:"column:event_id;uniqueIndex"`
	UserID    *int64            `gorm:"column:user_id;index"`
	Attrs     datatypes.JSONMap `gorm:"column:attrs"`
	CreatedAt time.Time         `gorm:"column:created_at"`
}

func (Record) TableName() string { return "analytics_events" }

// ToRaw rebuilds the sparse attribute bag so catalog rows flow through the
// same normalization as log lines.
func (r Record) ToRaw() Raw {
	raw := Raw{}
	for k, v := range r.Attrs {
		raw[k] = v
	}
	raw["event_time"] = r.EventTime.Format(time.RFC3339Nano)
	raw["event_name"] = r.EventName
	raw["log_type"] = r.LogType
	raw["event_id"] = r.EventID
	if r.UserID != nil {
		raw["user_id"] = *r.UserID
	}
	return raw
}
