package pipeline

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/konkayan987-blip/Dashbord-condensate/internal/dataset"
)

// ErrInvalidCriteria marks user input that cannot be turned into Criteria.
var ErrInvalidCriteria = errors.New("invalid criteria")

// NewCriteria builds Criteria from user-supplied strings. Dates use the
// YYYY-MM-DD form; an empty date leaves that bound at its default. Blank
// boiler and status values are ignored.
func NewCriteria(start, end string, boilers, statuses []string) (Criteria, error) {
	var c Criteria
	var err error
	if c.Start, err = parseDay(start); err != nil {
		return Criteria{}, fmt.Errorf("%w: start: %v", ErrInvalidCriteria, err)
	}
	if c.End, err = parseDay(end); err != nil {
		return Criteria{}, fmt.Errorf("%w: end: %v", ErrInvalidCriteria, err)
	}
	for _, b := range boilers {
		if b = strings.TrimSpace(b); b != "" {
			c.Boilers = append(c.Boilers, b)
		}
	}
	for _, s := range statuses {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		st, ok := dataset.ParseStatus(s)
		if !ok {
			return Criteria{}, fmt.Errorf("%w: unknown status %q", ErrInvalidCriteria, s)
		}
		c.Statuses = append(c.Statuses, st)
	}
	return c, nil
}

func parseDay(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(dataset.DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%q is not YYYY-MM-DD", s)
	}
	return t, nil
}
