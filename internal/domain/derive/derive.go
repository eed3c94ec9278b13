// Package derive computes engineered features from raw athlete records.
//
// Derivation is pure: no I/O, no randomness, and a missing input never
// raises. A feature whose inputs are absent is simply left out of the
// result, which tells the imputation engine that the raw inputs still
// need filling.
package derive

import (
	"math"

	"github.com/openscout/gridiron/internal/domain/model"
	"github.com/openscout/gridiron/internal/domain/types"
)

// epsilon guards rate denominators against division by zero.
const epsilon = 1e-6

// Feature keys produced by the deriver. They extend the raw stat keys
// from the model package and feed the classifier vector directly.
const (
	FeatTrajectory       = "trajectory"
	FeatBMI              = "bmi"
	FeatEfficiencyRatio  = "efficiency_ratio"
	FeatAthleticPower    = "athletic_power"
	FeatSpeedPowerRatio  = "speed_power_ratio"
	FeatStateTalent      = "state_talent_score"
	FeatStrongState      = "is_strong_state"
	FeatBMIYPG           = "bmi_ypg"
	FeatHeightTrajectory = "height_trajectory"
	FeatStateEfficiency  = "state_efficiency"
	FeatGamesPlayed      = "games_played_est"
	FeatYPG              = "ypg"
	FeatRecYPG           = "rec_ypg"
	FeatTDsPerGame       = "tds_per_game"
	FeatAllPurposePerGm  = "all_purpose_game"
	FeatCompYPG          = "comp_ypg"
	FeatHeightComp       = "height_comp"
	FeatYPCSpeed         = "ypc_speed"
	FeatWeightYPC        = "weight_ypc"
	FeatCatchRadius      = "catch_radius"
	FeatSpeedYAC         = "speed_yac"
)

// Games-played estimation bounds. Season totals divided by per-game
// rates land here; anything outside is measurement noise.
const (
	minGames     = 8.0
	maxGames     = 15.0
	defaultGames = 12.0
)

// Features maps feature keys to derived values.
type Features map[string]float64

// Has reports whether the feature was derivable.
func (f Features) Has(key string) bool {
	_, ok := f[key]
	return ok
}

// Merge overlays other on top of f and returns f.
func (f Features) Merge(other Features) Features {
	for k, v := range other {
		f[k] = v
	}
	return f
}

// Deriver computes the engineered feature map. The state-talent table
// is injected at construction so it stays testable and swappable.
type Deriver struct {
	states StateTable
}

// Option applies a configuration option to the Deriver.
type Option func(*Deriver)

// WithStateTable overrides the state-talent lookup table.
func WithStateTable(t StateTable) Option {
	return func(d *Deriver) {
		d.states = t
	}
}

// New creates a Deriver with the production state table.
func New(opts ...Option) *Deriver {
	d := &Deriver{
		states: DefaultStateTable(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Derive computes every feature whose inputs are present on a.
func (d *Deriver) Derive(a model.Athlete) Features {
	out := Features{}

	out[FeatStateTalent] = d.states.Score(a.State)
	if d.states.Strong(a.State) {
		out[FeatStrongState] = 1
	} else {
		out[FeatStrongState] = 0
	}

	games := d.estimateGames(a)
	out[FeatGamesPlayed] = games

	if senior, ok := a.Stat(model.FieldSeniorYPG); ok {
		if junior, jok := a.Stat(model.FieldJuniorYPG); jok {
			out[FeatTrajectory] = math.Max(senior-junior, 0)
		}
	}

	if h, hok := a.Stat(model.FieldHeight); hok && h > 0 {
		if w, wok := a.Stat(model.FieldWeight); wok {
			out[FeatBMI] = w / (h * h) * 703
		}
		if traj, tok := out[FeatTrajectory]; tok {
			out[FeatHeightTrajectory] = h * traj
		}
	}

	rate, hasRate := primaryRate(a)
	if tds, ok := a.Stat(model.FieldSeniorTDs); ok && hasRate {
		out[FeatEfficiencyRatio] = tds / (rate + epsilon)
		out[FeatStateEfficiency] = out[FeatStateTalent] * out[FeatEfficiencyRatio]
	}

	if vert, vok := a.Stat(model.FieldVertical); vok {
		if broad, bok := a.Stat(model.FieldBroadJump); bok {
			power := vert * broad
			out[FeatAthleticPower] = power
			if forty, fok := a.Stat(model.FieldForty); fok {
				out[FeatSpeedPowerRatio] = power / (forty + epsilon)
			}
		}
	}

	if bmi, ok := out[FeatBMI]; ok && hasRate {
		out[FeatBMIYPG] = bmi * rate
	}

	if yds, ok := a.Stat(model.FieldSeniorYds); ok {
		out[FeatYPG] = yds / games
	}
	if recYds, ok := a.Stat(model.FieldRecYds); ok {
		out[FeatRecYPG] = recYds / games
	}
	if tds, ok := a.Stat(model.FieldSeniorTDs); ok {
		out[FeatTDsPerGame] = tds / games
	}
	if a.Position == types.RB {
		if yds, yok := a.Stat(model.FieldSeniorYds); yok {
			recYds, _ := a.Stat(model.FieldRecYds)
			out[FeatAllPurposePerGm] = (yds + recYds) / games
		}
	}

	d.derivePositional(a, rate, hasRate, out)
	return out
}

// derivePositional adds the interaction terms that only make sense for
// one position. Inputs stay optional; absent means skip.
func (d *Deriver) derivePositional(a model.Athlete, rate float64, hasRate bool, out Features) {
	switch a.Position {
	case types.QB:
		if comp, ok := a.Stat(model.FieldCompPct); ok {
			if hasRate {
				out[FeatCompYPG] = comp * rate / 100
			}
			if h, hok := a.Stat(model.FieldHeight); hok {
				out[FeatHeightComp] = h * comp
			}
		}
	case types.RB:
		if ypc, ok := a.Stat(model.FieldSeniorYPC); ok {
			if forty, fok := a.Stat(model.FieldForty); fok {
				out[FeatYPCSpeed] = ypc * (5.0 - forty)
			}
			if w, wok := a.Stat(model.FieldWeight); wok {
				out[FeatWeightYPC] = w * ypc
			}
		}
	case types.WR:
		if h, hok := a.Stat(model.FieldHeight); hok {
			if vert, vok := a.Stat(model.FieldVertical); vok {
				out[FeatCatchRadius] = h * vert
			}
		}
		if avg, aok := a.Stat(model.FieldSeniorAvg); aok {
			if forty, fok := a.Stat(model.FieldForty); fok {
				out[FeatSpeedYAC] = (5.0 - forty) * avg
			}
		}
	}
}

// primaryRate returns the position's main per-game production rate:
// passing/rushing yards per game for QB and RB, receiving yards per
// game for WR (season ypg as fallback when a WR record carries it).
func primaryRate(a model.Athlete) (float64, bool) {
	if a.Position == types.WR {
		if v, ok := a.Stat(model.FieldRecYPG); ok {
			return v, true
		}
	}
	return a.Stat(model.FieldSeniorYPG)
}

// estimateGames guesses games played from season totals and rates.
// Receivers report receptions; QB and RB records divide yards by the
// per-game rate. Everything clamps into a plausible season length.
func (d *Deriver) estimateGames(a model.Athlete) float64 {
	switch a.Position {
	case types.WR:
		if rec, ok := a.Stat(model.FieldSeniorRec); ok && rec > 0 {
			return clamp(rec, minGames, maxGames)
		}
	default:
		yds, yok := a.Stat(model.FieldSeniorYds)
		ypg, rok := a.Stat(model.FieldSeniorYPG)
		if yok && rok && ypg > 0 {
			return clamp(yds/ypg, minGames, maxGames)
		}
	}
	return defaultGames
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}

// Position one-hot keys added to every classifier vector.
const (
	FeatPositionQB = "position_qb"
	FeatPositionRB = "position_rb"
	FeatPositionWR = "position_wr"
)

// Vector builds the flat numeric record the classifier consumes: every
// supplied raw stat, a position one-hot, plus every derived feature.
// Derived keys win on collision so recomputed rates override stale
// caller-supplied ones.
func Vector(a model.Athlete, feats Features) map[string]float64 {
	vec := make(map[string]float64, len(feats)+24)
	for _, field := range model.StatFields() {
		if v, ok := a.Stat(field); ok {
			vec[field] = v
		}
	}
	vec[FeatPositionQB] = 0
	vec[FeatPositionRB] = 0
	vec[FeatPositionWR] = 0
	switch a.Position {
	case types.QB:
		vec[FeatPositionQB] = 1
	case types.RB:
		vec[FeatPositionRB] = 1
	case types.WR:
		vec[FeatPositionWR] = 1
	}
	for k, v := range feats {
		vec[k] = v
	}
	return vec
}
