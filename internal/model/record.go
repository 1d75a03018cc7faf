package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// NoneMarker - литерал отсутствующего значения в файловом формате.
const NoneMarker = "None"

const recordLayout = "2006-01-02 15:04:05"

// Record is the serialized form of a Task. The NoneMarker convention lives
// only here; Task itself uses nil for absent values.
type Record struct {
	Hash        string  `json:"hash"`
	Name        string  `json:"name"`
	Deadline    string  `json:"deadline"`
	Description *string `json:"description"`
}

var requiredRecordFields = []string{"hash", "name", "deadline"}

// UnmarshalJSON rejects records that miss a required key or carry non-string values.
func (r *Record) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil || fields == nil {
		return &MalformedRecordError{Index: -1, Err: ErrNotObject}
	}

	values := make(map[string]string, len(requiredRecordFields))
	for _, key := range requiredRecordFields {
		raw, ok := fields[key]
		if !ok {
			return &MalformedRecordError{Index: -1, Field: key, Err: ErrMissingField}
		}
		s, err := decodeString(raw)
		if err != nil {
			return &MalformedRecordError{Index: -1, Field: key, Err: err}
		}
		values[key] = s
	}

	var description *string
	if raw, ok := fields["description"]; ok && !isNull(raw) {
		s, err := decodeString(raw)
		if err != nil {
			return &MalformedRecordError{Index: -1, Field: "description", Err: err}
		}
		description = &s
	}

	*r = Record{
		Hash:        values["hash"],
		Name:        values["name"],
		Deadline:    values["deadline"],
		Description: description,
	}
	return nil
}

// ToRecord renders the task in file form. It does not consult the clock.
func ToRecord(t Task) Record {
	deadline := NoneMarker
	if t.Deadline != nil {
		deadline = FormatDeadline(*t.Deadline)
	}
	return Record{
		Hash:        t.Hash,
		Name:        t.Name,
		Deadline:    deadline,
		Description: cloneString(t.Description),
	}
}

// FromRecord reconstructs a task, keeping the stored hash as is.
func FromRecord(r Record) (Task, error) {
	if r.Hash == "" {
		return Task{}, &MalformedRecordError{Index: -1, Field: "hash", Err: ErrMissingField}
	}
	if r.Name == "" {
		return Task{}, &MalformedRecordError{Index: -1, Field: "name", Err: ErrMissingField}
	}

	t := Task{
		Hash:        r.Hash,
		Name:        r.Name,
		Description: cloneString(r.Description),
	}
	if r.Deadline != NoneMarker {
		d, err := parseISO(r.Deadline)
		if err != nil {
			return Task{}, &MalformedRecordError{Index: -1, Field: "deadline", Err: err}
		}
		t.Deadline = normalizeDeadline(&d)
	}
	return t, nil
}

// FormatDeadline renders a deadline the way the file stores it:
// "YYYY-MM-DD HH:MM:SS", microseconds only when non-zero, and an offset only
// for non-local zones.
func FormatDeadline(d time.Time) string {
	layout := recordLayout
	if d.Nanosecond() != 0 {
		layout += ".000000"
	}
	if d.Location() != time.Local {
		// смещение с секундами (LMT до 1900 года) пишется полностью
		if _, offset := d.Zone(); offset%60 != 0 {
			layout += "-07:00:00"
		} else {
			layout += "-07:00"
		}
	}
	return d.Format(layout)
}

var isoLayouts = []string{
	"2006-01-02T15:04:05-07:00:00",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02T15",
	"2006-01-02",
}

// Время без смещения трактуется как локальное.
func parseISO(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if len(s) > 10 && s[10] == ' ' {
		s = s[:10] + "T" + s[11:]
	}
	for _, layout := range isoLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
}

func decodeString(raw json.RawMessage) (string, error) {
	if isNull(raw) {
		return "", ErrNotString
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", ErrNotString
	}
	return s, nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
