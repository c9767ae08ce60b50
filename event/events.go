package event

import (
	"steward/session"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
	"github.com/sirupsen/logrus"
)

// CreateEvent builds and persists a notification record. Persisting is
// best-effort: a storage failure is logged and the record is still returned
// for handler fan-out, so no engine operation ever fails on it.
func CreateEvent(sourceType string, sourceId types.ID, sourceDesc string, category EventCategory,
	updatedProperties []UpdatedProperty, identity *session.Identity, timestamp types.Timestamp,
	db *gorm.DB) *EventRecord {

	record := EventRecord{
		Event: Event{
			SourceType: sourceType,
			SourceId:   sourceId,
			SourceDesc: sourceDesc,

			EventCategory:     category,
			UpdatedProperties: updatedProperties,

			CreatorId:   identity.ID,
			CreatorName: identity.Name,
		},
		Synced:    false,
		Timestamp: timestamp,
	}

	if err := EventPersistCreateFunc(&record, db); err != nil {
		logrus.Warnf("failed to persist event of %s %d: %v", sourceType, sourceId, err)
	}
	return &record
}
