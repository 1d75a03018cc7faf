package model

import (
	"crypto/md5"
	"encoding/hex"
	"strconv"
	"time"
)

// Task - единица работы. Hash назначается один раз при создании и больше не меняется.
type Task struct {
	Hash        string
	Name        string
	Deadline    *time.Time
	Description *string
}

// Patch описывает частичное обновление задачи: nil или пустая строка оставляют поле без изменений.
type Patch struct {
	Name             *string
	Deadline         *time.Time
	Description      *string
	ClearDeadline    bool
	ClearDescription bool
}

// New creates a task with a freshly computed hash salted with the current time.
func New(name string, deadline *time.Time, description *string) Task {
	return NewAt(name, deadline, description, time.Now())
}

// NewAt is New with an explicit creation instant.
func NewAt(name string, deadline *time.Time, description *string, now time.Time) Task {
	t := Task{
		Name:        name,
		Deadline:    normalizeDeadline(deadline),
		Description: cloneString(description),
	}
	t.Hash = contentHash(t, now)
	return t
}

func (t *Task) Apply(p Patch) {
	if p.Name != nil && *p.Name != "" {
		t.Name = *p.Name
	}

	switch {
	case p.ClearDeadline:
		t.Deadline = nil
	case p.Deadline != nil:
		t.Deadline = normalizeDeadline(p.Deadline)
	}

	switch {
	case p.ClearDescription:
		t.Description = nil
	case p.Description != nil && *p.Description != "":
		t.Description = cloneString(p.Description)
	}
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return (p.Name == nil || *p.Name == "") &&
		p.Deadline == nil &&
		(p.Description == nil || *p.Description == "") &&
		!p.ClearDeadline && !p.ClearDescription
}

// Equal compares all fields; deadlines are compared as instants.
func (t Task) Equal(o Task) bool {
	if t.Hash != o.Hash || t.Name != o.Name {
		return false
	}
	if (t.Deadline == nil) != (o.Deadline == nil) {
		return false
	}
	if t.Deadline != nil && !t.Deadline.Equal(*o.Deadline) {
		return false
	}
	if (t.Description == nil) != (o.Description == nil) {
		return false
	}
	return t.Description == nil || *t.Description == *o.Description
}

// Clone returns a copy that shares no pointers with t.
func (t Task) Clone() Task {
	t.Deadline = normalizeDeadline(t.Deadline)
	t.Description = cloneString(t.Description)
	return t
}

// DueOn reports whether the deadline falls on the calendar date of day.
func (t Task) DueOn(day time.Time) bool {
	if t.Deadline == nil {
		return false
	}
	y1, m1, d1 := t.Deadline.Date()
	y2, m2, d2 := day.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

func contentHash(t Task, now time.Time) string {
	deadline := NoneMarker
	if t.Deadline != nil {
		deadline = FormatDeadline(*t.Deadline)
	}
	description := NoneMarker
	if t.Description != nil {
		description = *t.Description
	}
	stamp := strconv.FormatFloat(float64(now.UnixMicro())/1e6, 'f', -1, 64)

	sum := md5.Sum([]byte(t.Name + deadline + description + stamp))
	return hex.EncodeToString(sum[:])
}

// Дедлайн хранится с точностью до микросекунд, как в файле.
func normalizeDeadline(d *time.Time) *time.Time {
	if d == nil {
		return nil
	}
	v := d.Round(0).Truncate(time.Microsecond)
	return &v
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
