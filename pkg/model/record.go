package model

import (
	"encoding/json"
	"time"
)

// EventRecord is the SQL form of RadioEvent.
type EventRecord struct {
	ID                uint   `gorm:"primarykey"`
	EventType         string `gorm:"size:64;index"`
	Timestamp         string `gorm:"size:32;index"`
	TalkgroupOrSource string `gorm:"size:64;index"`
	RadioID           string `gorm:"size:64"`
	Extra             string
	CreatedAt         time.Time
}

func (EventRecord) TableName() string {
	return "radio_events"
}

func (r *EventRecord) ToEvent() *RadioEvent {
	if r == nil {
		return nil
	}

	ev := &RadioEvent{
		ID:                NormalizeID(r.ID),
		EventType:         r.EventType,
		Timestamp:         r.Timestamp,
		TalkgroupOrSource: r.TalkgroupOrSource,
		RadioID:           r.RadioID,
	}

	if r.Extra != "" {
		m := make(map[string]any)
		if err := json.Unmarshal([]byte(r.Extra), &m); err == nil && len(m) > 0 {
			ev.Extra = m
		}
	}

	return ev
}

func RecordFromEvent(ev *RadioEvent) *EventRecord {
	r := &EventRecord{
		EventType:         ev.EventType,
		Timestamp:         ev.Timestamp,
		TalkgroupOrSource: ev.TalkgroupOrSource,
		RadioID:           ev.RadioID,
	}

	if len(ev.Extra) > 0 {
		if b, err := json.Marshal(ev.Extra); err == nil {
			r.Extra = string(b)
		}
	}

	return r
}
