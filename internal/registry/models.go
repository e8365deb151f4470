package registry

import (
	"time"

	relieferrors "wrldrelief/pkg/relieferrors"
)

// Disaster is the registry record campaigns are created against. The id is
// caller-chosen (e.g. "tr-earthquake-2023") and immutable.
type Disaster struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Location    string    `json:"location"`
	Severity    int       `json:"severity"`
	Description string    `json:"description"`
	StartedAt   time.Time `json:"started_at"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// RegisterInput carries caller-supplied fields for a new disaster.
type RegisterInput struct {
	ID          string
	Name        string
	Location    string
	Severity    int
	Description string
	StartedAt   time.Time
}

func (in RegisterInput) validate() error {
	switch {
	case in.ID == "":
		return relieferrors.New(relieferrors.CodeInvalidInput, "disaster id required")
	case in.Name == "":
		return relieferrors.New(relieferrors.CodeInvalidInput, "disaster name required")
	case in.Severity < 1 || in.Severity > 10:
		return relieferrors.New(relieferrors.CodeInvalidInput, "severity must be between 1 and 10")
	case in.StartedAt.IsZero():
		return relieferrors.New(relieferrors.CodeInvalidInput, "started at required")
	}
	return nil
}
