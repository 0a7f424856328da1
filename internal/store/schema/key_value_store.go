package schema

import "time"

// KeyValueStore stores arbitrary key-value pairs for pipeline state
// Used for the run journal (run:<id>, last_run)
type KeyValueStore struct {
	Key       string    `gorm:"column:key;primaryKey;type:varchar(255)"`
	Value     string    `gorm:"column:value;type:text;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (KeyValueStore) TableName() string {
	return "key_value_store"
}

// All lists every model managed by the ledger, in migration order
func All() []any {
	return []any{
		&Obligation{},
		&ObligationEvent{},
		&KeyValueStore{},
	}
}
