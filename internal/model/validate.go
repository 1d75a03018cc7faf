package model

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// MaxNameLength ограничивает длину имени так, чтобы оно помещалось в колонку вывода.
const MaxNameLength = 20

func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return fmt.Errorf("%w: maximum name length is %d characters", ErrValidation, MaxNameLength)
	}
	return nil
}

// ParseDeadline accepts an ISO-8601 date ("2024-05-01") or date-time
// ("2024-05-01T10:30", "2024-05-01 10:30:00", optional offset).
func ParseDeadline(s string) (time.Time, error) {
	t, err := parseISO(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: not a valid date: %q", ErrValidation, s)
	}
	return t, nil
}
