package season

import (
	"strings"
	"time"
)

// Input is the admin payload for creating or updating a season.
type Input struct {
	ID        string `json:"id,omitempty"`
	Name      string `json:"name"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	IsActive  bool   `json:"isActive"`
}

// ValidationError reports unusable season input. Never retried.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return "season: " + e.Field + " " + e.Reason
}

var dateLayouts = []string{time.RFC3339, "2006-01-02T15:04", "2006-01-02"}

func parseDate(field, v string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, &ValidationError{Field: field, Reason: "must be a date (YYYY-MM-DD) or RFC 3339 timestamp"}
}

// Parse validates in and converts it to a Season (CreatedAt unset).
func (in Input) Parse() (Season, error) {
	in.ID = strings.TrimSpace(in.ID)
	in.Name = strings.TrimSpace(in.Name)
	in.StartDate = strings.TrimSpace(in.StartDate)
	in.EndDate = strings.TrimSpace(in.EndDate)

	switch {
	case in.Name == "":
		return Season{}, &ValidationError{Field: "name", Reason: "is required"}
	case in.StartDate == "":
		return Season{}, &ValidationError{Field: "startDate", Reason: "is required"}
	case in.EndDate == "":
		return Season{}, &ValidationError{Field: "endDate", Reason: "is required"}
	}
	start, err := parseDate("startDate", in.StartDate)
	if err != nil {
		return Season{}, err
	}
	end, err := parseDate("endDate", in.EndDate)
	if err != nil {
		return Season{}, err
	}
	if end.Before(start) {
		return Season{}, &ValidationError{Field: "endDate", Reason: "is before startDate"}
	}
	return Season{ID: in.ID, Name: in.Name, StartDate: start, EndDate: end, IsActive: in.IsActive}, nil
}
