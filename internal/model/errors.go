package model

import (
	"errors"
	"fmt"
)

var (
	ErrValidation   = errors.New("validation error")
	ErrMissingField = errors.New("missing field")
	ErrNotString    = errors.New("value is not a string")
	ErrNotObject    = errors.New("record is not an object")
	ErrInvalidDate  = errors.New("not a valid ISO-8601 date")
)

// MalformedRecordError сообщает, что сохраненную запись нельзя превратить в задачу.
// Index равен -1, если позиция записи неизвестна.
type MalformedRecordError struct {
	Index int
	Field string
	Err   error
}

func (e *MalformedRecordError) Error() string {
	msg := "malformed record"
	if e.Index >= 0 {
		msg = fmt.Sprintf("%s #%d", msg, e.Index)
	}
	if e.Field != "" {
		msg = fmt.Sprintf("%s: field %q", msg, e.Field)
	}
	return fmt.Sprintf("%s: %v", msg, e.Err)
}

func (e *MalformedRecordError) Unwrap() error {
	return e.Err
}

// AtIndex returns a copy of the error bound to the record's position.
func (e *MalformedRecordError) AtIndex(i int) *MalformedRecordError {
	c := *e
	c.Index = i
	return &c
}
