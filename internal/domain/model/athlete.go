// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"strings"

	"github.com/openscout/gridiron/internal/domain/types"
)

// Stat field keys accepted by Athlete.Stat and Athlete.SetStat. They
// double as feature-vector keys and as what-if candidate field names,
// so they mirror the wire payload names exactly.
const (
	FieldForty      = "forty_yard_dash"
	FieldVertical   = "vertical_jump"
	FieldShuttle    = "shuttle"
	FieldBroadJump  = "broad_jump"
	FieldBenchPress = "bench_press"
	FieldHeight     = "height_inches"
	FieldWeight     = "weight_lbs"
	FieldSeniorYPG  = "senior_ypg"
	FieldJuniorYPG  = "junior_ypg"
	FieldSeniorYds  = "senior_yds"
	FieldSeniorTDs  = "senior_tds"
	FieldCompPct    = "senior_comp_pct"
	FieldSeniorYPC  = "senior_ypc"
	FieldSeniorRec  = "senior_rec"
	FieldRecYds     = "senior_rec_yds"
	FieldRecYPG     = "senior_rec_ypg"
	FieldSeniorAvg  = "senior_avg"
	FieldHoopsVert  = "hoops_vertical"
)

// Athlete is the sparse input record for one evaluation. Optional
// numerics are pointers; nil means the caller did not supply the value.
// Position decides which stat fields are semantically meaningful; the
// rest are carried but ignored, never rejected.
type Athlete struct {
	ID       string         `json:"athlete_id"`
	Name     string         `json:"name"`
	GradYear int            `json:"grad_year,omitempty"`
	State    string         `json:"state,omitempty"`
	Position types.Position `json:"position"`

	HeightInches *float64 `json:"height_inches,omitempty"`
	WeightLbs    *float64 `json:"weight_lbs,omitempty"`

	// Combine metrics, all imputable when absent.
	FortyYardDash *float64 `json:"forty_yard_dash,omitempty"`
	VerticalJump  *float64 `json:"vertical_jump,omitempty"`
	Shuttle       *float64 `json:"shuttle,omitempty"`
	BroadJump     *float64 `json:"broad_jump,omitempty"`
	BenchPress    *float64 `json:"bench_press,omitempty"`

	// Season production. Names follow the intake payload: senior_* is
	// the most recent season, junior_* the one before.
	SeniorYPG     *float64 `json:"senior_ypg,omitempty"`
	JuniorYPG     *float64 `json:"junior_ypg,omitempty"`
	SeniorYds     *float64 `json:"senior_yds,omitempty"`
	SeniorTDs     *float64 `json:"senior_tds,omitempty"`
	SeniorCompPct *float64 `json:"senior_comp_pct,omitempty"`
	SeniorYPC     *float64 `json:"senior_ypc,omitempty"`
	SeniorRec     *float64 `json:"senior_rec,omitempty"`
	SeniorRecYds  *float64 `json:"senior_rec_yds,omitempty"`
	SeniorRecYPG  *float64 `json:"senior_rec_ypg,omitempty"`
	SeniorAvg     *float64 `json:"senior_avg,omitempty"`
	HoopsVertical *float64 `json:"hoops_vertical,omitempty"`
}

// Validate checks the invariants the rest of the pipeline relies on.
// Sparse stats are fine; a usable position and some identity are not
// optional.
func (a *Athlete) Validate() error {
	if !a.Position.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidPosition, a.Position)
	}
	if strings.TrimSpace(a.ID) == "" && strings.TrimSpace(a.Name) == "" {
		return ErrMissingIdentity
	}
	return nil
}

// Key returns the identifier the prospect board tracks the athlete by.
func (a *Athlete) Key() string {
	if id := strings.TrimSpace(a.ID); id != "" {
		return id
	}
	return strings.TrimSpace(a.Name)
}

// Stat returns the named numeric field and whether it was supplied.
func (a *Athlete) Stat(field string) (float64, bool) {
	p := a.statPtr(field)
	if p == nil || *p == nil {
		return 0, false
	}
	return **p, true
}

// SetStat sets the named numeric field, allocating the optional slot.
// Unknown fields are rejected so candidate configuration typos surface
// instead of silently probing nothing.
func (a *Athlete) SetStat(field string, v float64) error {
	p := a.statPtr(field)
	if p == nil {
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	val := v
	*p = &val
	return nil
}

// Clone returns a deep copy; optional slots are re-allocated so the
// copy can be mutated without touching the original.
func (a *Athlete) Clone() Athlete {
	c := *a
	for _, field := range statFields {
		p := c.statPtr(field)
		if *p != nil {
			v := **p
			*p = &v
		}
	}
	return c
}

// statFields lists every addressable numeric field once.
var statFields = []string{
	FieldForty, FieldVertical, FieldShuttle, FieldBroadJump, FieldBenchPress,
	FieldHeight, FieldWeight,
	FieldSeniorYPG, FieldJuniorYPG, FieldSeniorYds, FieldSeniorTDs,
	FieldCompPct, FieldSeniorYPC, FieldSeniorRec, FieldRecYds, FieldRecYPG,
	FieldSeniorAvg, FieldHoopsVert,
}

// StatFields returns every addressable numeric field key in a stable
// order. Callers must not mutate the returned slice.
func StatFields() []string {
	return statFields
}

func (a *Athlete) statPtr(field string) **float64 {
	switch field {
	case FieldForty:
		return &a.FortyYardDash
	case FieldVertical:
		return &a.VerticalJump
	case FieldShuttle:
		return &a.Shuttle
	case FieldBroadJump:
		return &a.BroadJump
	case FieldBenchPress:
		return &a.BenchPress
	case FieldHeight:
		return &a.HeightInches
	case FieldWeight:
		return &a.WeightLbs
	case FieldSeniorYPG:
		return &a.SeniorYPG
	case FieldJuniorYPG:
		return &a.JuniorYPG
	case FieldSeniorYds:
		return &a.SeniorYds
	case FieldSeniorTDs:
		return &a.SeniorTDs
	case FieldCompPct:
		return &a.SeniorCompPct
	case FieldSeniorYPC:
		return &a.SeniorYPC
	case FieldSeniorRec:
		return &a.SeniorRec
	case FieldRecYds:
		return &a.SeniorRecYds
	case FieldRecYPG:
		return &a.SeniorRecYPG
	case FieldSeniorAvg:
		return &a.SeniorAvg
	case FieldHoopsVert:
		return &a.HoopsVertical
	}
	return nil
}

// CombineMetric maps a combine metric to its athlete field pointer.
// Used by the imputation engine to read and fill the five imputable
// slots uniformly.
func (a *Athlete) CombineMetric(m types.Metric) (float64, bool) {
	return a.Stat(string(m))
}

// SetCombineMetric fills a combine metric slot.
func (a *Athlete) SetCombineMetric(m types.Metric, v float64) {
	_ = a.SetStat(string(m), v)
}
