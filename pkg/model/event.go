package model

import (
	"bytes"
	"encoding/json"
	"time"
)

// TimeLayout is the ISO form written by the recorder. Range bounds are compared
// as strings, a bound with milliseconds sorts correctly against stored values
// with or without them.
const TimeLayout = "2006-01-02T15:04:05.000Z"

const (
	EventCallStart        = "call_start"
	EventCallEnd          = "call_end"
	EventAffiliation      = "affiliation"
	EventLocation         = "location"
	EventUnitRegistration = "unit_registration"
)

var knownEventTypes = map[string]bool{
	EventCallStart:        true,
	EventCallEnd:          true,
	EventAffiliation:      true,
	EventLocation:         true,
	EventUnitRegistration: true,
}

func IsKnownEventType(t string) bool {
	return knownEventTypes[t]
}

type RadioEvent struct {
	ID                string
	EventType         string
	Timestamp         string
	TalkgroupOrSource string
	RadioID           string
	TalkgroupInfo     *TalkgroupInfo
	// fields of the stored document we don't interpret
	Extra map[string]any
}

func FormatTime(t time.Time) string {
	return t.UTC().Truncate(time.Millisecond).Format(TimeLayout)
}

// Copy returns a shallow copy. Extra is shared, it is never modified after decoding.
func (e *RadioEvent) Copy() *RadioEvent {
	if e == nil {
		return nil
	}

	c := *e

	return &c
}

func (e RadioEvent) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(e.Extra)+6)

	for k, v := range e.Extra {
		m[k] = v
	}

	if e.ID != "" {
		m["_id"] = e.ID
	}

	if e.EventType != "" {
		m["eventType"] = e.EventType
	}

	if e.Timestamp != "" {
		m["timestamp"] = e.Timestamp
	}

	if e.TalkgroupOrSource != "" {
		m["talkgroupOrSource"] = e.TalkgroupOrSource
	}

	if e.RadioID != "" {
		m["radioID"] = e.RadioID
	}

	if e.TalkgroupInfo != nil {
		m["talkgroupInfo"] = e.TalkgroupInfo
	}

	return json.Marshal(m)
}

func (e *RadioEvent) UnmarshalJSON(b []byte) error {
	m := make(map[string]any)

	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()

	if err := dec.Decode(&m); err != nil {
		return err
	}

	*e = *EventFromMap(m)

	return nil
}

// EventFromMap builds an event from a decoded store document. Known fields are
// normalized, everything else goes to Extra untouched.
func EventFromMap(doc map[string]any) *RadioEvent {
	ev := new(RadioEvent)

	for k, v := range doc {
		switch k {
		case "_id":
			ev.ID = NormalizeID(v)
		case "eventType":
			ev.EventType = NormalizeID(v)
		case "timestamp":
			ev.Timestamp = normalizeTime(v)
		case "talkgroupOrSource":
			ev.TalkgroupOrSource = NormalizeID(v)
		case "radioID":
			ev.RadioID = NormalizeID(v)
		case "talkgroupInfo":
			// derived data is never trusted from the store
		default:
			if ev.Extra == nil {
				ev.Extra = make(map[string]any)
			}

			ev.Extra[k] = v
		}
	}

	return ev
}

func normalizeTime(v any) string {
	switch t := v.(type) {
	case time.Time:
		return FormatTime(t)
	case *time.Time:
		if t == nil {
			return ""
		}

		return FormatTime(*t)
	default:
		return NormalizeID(v)
	}
}
