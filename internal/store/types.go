package store

import (
	"fmt"
	"strings"
)

type ListMode int

const (
	ModeAll ListMode = iota
	ModeToday
)

func (m ListMode) String() string {
	switch m {
	case ModeAll:
		return "all"
	case ModeToday:
		return "today"
	default:
		return fmt.Sprintf("ListMode(%d)", int(m))
	}
}

// ParseListMode принимает "all" или "today"; пустая строка означает all.
func ParseListMode(s string) (ListMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return ModeAll, nil
	case "today":
		return ModeToday, nil
	default:
		return 0, fmt.Errorf("unknown list mode %q", s)
	}
}

// Empty explains an empty listing. It is a display signal, not an error.
type Empty int

const (
	NotEmpty Empty = iota
	NoTasks
	NoTasksToday
)

func (e Empty) String() string {
	switch e {
	case NoTasks:
		return "No tasks currently."
	case NoTasksToday:
		return "No tasks for today."
	default:
		return ""
	}
}

type Stats struct {
	Total        int `json:"total"`
	WithDeadline int `json:"with_deadline"`
	DueToday     int `json:"due_today"`
	Overdue      int `json:"overdue"`
}
