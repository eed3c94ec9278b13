package testathletes

import (
	"context"
	"crypto/rand"
	"fmt"
	"math"
	"math/big"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/openscout/gridiron/internal/domain/model"
	"github.com/openscout/gridiron/internal/domain/types"
	"github.com/openscout/gridiron/pkg/logger"
)

// Constants for random number generation.
const (
	randomFloatDivisor  = 1000000
	submissionIDDivisor = 10000
)

// Performer class rolls (0..9): 0 is elite, 1-3 solid, 4-7 average,
// 8-9 developmental. The class picks the quality band the athlete's
// numbers are drawn from.
const (
	classRollSides = 10
	eliteRollMax   = 0
	solidRollMax   = 3
	averageRollMax = 7
)

// Quality band bounds per performer class.
const (
	eliteQualityMin   = 0.85
	eliteQualityRange = 0.15
	solidQualityMin   = 0.60
	solidQualityRange = 0.25
	avgQualityMin     = 0.35
	avgQualityRange   = 0.25
	rawQualityMin     = 0.10
	rawQualityRange   = 0.25
)

// Sparsity rolls (0..9): how much combine data an athlete reports.
// Most high-school athletes never post verified combine numbers, so
// the bulk of the generated pool arrives production-only and leans on
// imputation.
const (
	sparsityRollSides     = 10
	fullCombineRollMax    = 1 // all five metrics
	partialCombineRollMax = 4 // forty and vertical only
	bioRollSides          = 10
	bioOmitRoll           = 0 // height and weight withheld
)

// Season and production shape constants.
const (
	gamesMin          = 9
	gamesRollSides    = 5 // 9..13 game seasons
	juniorFactorBase  = 0.70
	juniorFactorRange = 0.25
	gradYearBase      = 2026
	gradYearRollSides = 2
)

// qualityNoiseBlend is the fraction of each combine spread drawn
// independently of the quality band, so combine numbers correlate
// with production without being a function of it.
const qualityNoiseBlend = 0.2

// Production ranges by position. Base is the floor for the weakest
// band; gain spans up to the elite band.
const (
	qbPassYPGBase = 90.0
	qbPassYPGGain = 210.0
	qbCompPctBase = 48.0
	qbCompPctGain = 24.0
	qbTDsBase     = 4.0
	qbTDsGain     = 38.0

	rbRushYPGBase = 40.0
	rbRushYPGGain = 160.0
	rbYPCBase     = 3.8
	rbYPCGain     = 4.4
	rbTDsBase     = 2.0
	rbTDsGain     = 26.0

	wrRecBase    = 18.0
	wrRecGain    = 72.0
	wrRecYPGBase = 28.0
	wrRecYPGGain = 96.0
	wrTDsBase    = 1.0
	wrTDsGain    = 17.0
)

// profile holds the per-position combine and frame generation ranges.
// For timed drills the gain subtracts: faster is better.
type profile struct {
	fortyBase, fortyGain       float64 // seconds
	verticalBase, verticalGain float64 // inches
	shuttleBase, shuttleGain   float64 // seconds
	broadBase, broadGain       float64 // inches
	benchBase, benchGain       float64 // reps
	heightBase, heightGain     float64 // inches
	weightBase, weightGain     float64 // pounds
}

var profiles = map[types.Position]profile{
	types.QB: {
		fortyBase: 5.15, fortyGain: 0.45,
		verticalBase: 24, verticalGain: 12,
		shuttleBase: 4.75, shuttleGain: 0.50,
		broadBase: 96, broadGain: 24,
		benchBase: 4, benchGain: 12,
		heightBase: 70, heightGain: 6,
		weightBase: 180, weightGain: 45,
	},
	types.RB: {
		fortyBase: 4.95, fortyGain: 0.50,
		verticalBase: 26, verticalGain: 14,
		shuttleBase: 4.60, shuttleGain: 0.45,
		broadBase: 102, broadGain: 26,
		benchBase: 8, benchGain: 16,
		heightBase: 67, heightGain: 5,
		weightBase: 175, weightGain: 50,
	},
	types.WR: {
		fortyBase: 4.90, fortyGain: 0.55,
		verticalBase: 27, verticalGain: 15,
		shuttleBase: 4.55, shuttleGain: 0.45,
		broadBase: 104, broadGain: 28,
		benchBase: 4, benchGain: 10,
		heightBase: 68, heightGain: 8,
		weightBase: 160, weightGain: 45,
	},
}

var firstNames = []string{
	"Jalen", "Marcus", "Tyreek", "Devon", "Caleb", "Malik", "Trey", "Xavier",
	"Jordan", "Darius", "Amari", "Kendall", "Rashad", "Isaiah", "Quentin", "Zion",
	"Trevon", "Dominic", "Elijah", "Braxton",
}

var lastNames = []string{
	"Washington", "Jefferson", "Harris", "Robinson", "Carter", "Mitchell", "Brooks", "Sanders",
	"Coleman", "Jenkins", "Dawson", "Fields", "Gaines", "Holloway", "Ingram", "Mathis",
	"Norwood", "Pryor", "Sims", "Whitfield",
}

var states = []string{
	"TX", "FL", "GA", "CA", "OH", "AL", "LA", "PA", "NC", "SC", "TN", "MS",
}

// getRandomFloat returns a random float64 between 0.0 and 1.0 using crypto/rand.
func getRandomFloat() float64 {
	n, _ := rand.Int(rand.Reader, big.NewInt(randomFloatDivisor))
	return float64(n.Int64()) / float64(randomFloatDivisor)
}

// getRandomInt returns a random int in [0, sides) using crypto/rand.
func getRandomInt(sides int64) int64 {
	n, _ := rand.Int(rand.Reader, big.NewInt(sides))
	return n.Int64()
}

// generateAthletes creates the specified number of submissions with
// unique athlete and submission ids.
func generateAthletes(ctx context.Context, config *Config, stats *Stats) ([]model.Submission, error) {
	logger.Get().Info(ctx, "generating athletes", logger.Int("numAthletes", config.NumAthletes))

	submissions := make([]model.Submission, config.NumAthletes)

	type genResult struct {
		index int
		sub   model.Submission
		err   error
	}

	resultChan := make(chan genResult, config.NumAthletes)

	// Use worker pool for generation
	workerCount := min(config.Workers, config.NumAthletes)
	perWorker := config.NumAthletes / workerCount

	for worker := 0; worker < workerCount; worker++ {
		start := worker * perWorker
		end := start + perWorker
		if worker == workerCount-1 {
			end = config.NumAthletes // Last worker gets the remainder
		}

		go func(start, end int) {
			for i := start; i < end; i++ {
				select {
				case <-ctx.Done():
					resultChan <- genResult{index: i, err: ctx.Err()}
					return
				default:
					resultChan <- genResult{index: i, sub: generateSingleSubmission(i)}
				}
			}
		}(start, end)
	}

	// Collect results
	for i := 0; i < config.NumAthletes; i++ {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("context cancelled during athlete generation: %w", ctx.Err())
		case result := <-resultChan:
			if result.err != nil {
				return nil, fmt.Errorf("failed to generate athlete %d: %w", result.index, result.err)
			}
			submissions[result.index] = result.sub
		}
	}

	stats.AthletesGenerated = len(submissions)
	logger.Get().Info(ctx, "generated athletes successfully", logger.Int("count", len(submissions)))

	return submissions, nil
}

// generateSingleSubmission creates one randomized athlete wrapped in a
// submission with a unique idempotency key.
func generateSingleSubmission(index int) model.Submission {
	positions := types.Positions()
	pos := positions[getRandomInt(int64(len(positions)))]
	quality := rollQuality()

	athlete := model.Athlete{
		ID:       uuid.New().String(),
		Name:     firstNames[getRandomInt(int64(len(firstNames)))] + " " + lastNames[getRandomInt(int64(len(lastNames)))],
		GradYear: gradYearBase + int(getRandomInt(gradYearRollSides)),
		State:    states[getRandomInt(int64(len(states)))],
		Position: pos,
	}

	fillProduction(&athlete, pos, quality)
	fillFrame(&athlete, pos, quality)
	fillCombine(&athlete, pos, quality)

	randNum := getRandomInt(submissionIDDivisor)
	subID := "sub_" + strconv.FormatInt(int64(index), 10) + "_" + strconv.FormatInt(time.Now().Unix(), 10) + "_" + strconv.FormatInt(randNum, 10)

	return model.Submission{
		SubmissionID: subID,
		Athlete:      athlete,
	}
}

// rollQuality picks a performer class and draws a quality value from
// its band.
func rollQuality() float64 {
	switch roll := getRandomInt(classRollSides); {
	case roll <= eliteRollMax:
		return eliteQualityMin + getRandomFloat()*eliteQualityRange
	case roll <= solidRollMax:
		return solidQualityMin + getRandomFloat()*solidQualityRange
	case roll <= averageRollMax:
		return avgQualityMin + getRandomFloat()*avgQualityRange
	default:
		return rawQualityMin + getRandomFloat()*rawQualityRange
	}
}

// fillProduction sets the position's season production stats. Yardage
// totals derive from the per-game number and a rolled season length so
// the pair stays internally consistent.
func fillProduction(a *model.Athlete, pos types.Position, quality float64) {
	games := float64(gamesMin + getRandomInt(gamesRollSides))
	juniorFactor := juniorFactorBase + getRandomFloat()*juniorFactorRange

	switch pos {
	case types.QB:
		ypg := qbPassYPGBase + quality*qbPassYPGGain
		setStat(a, model.FieldSeniorYPG, round1(ypg))
		setStat(a, model.FieldSeniorYds, math.Round(ypg*games))
		setStat(a, model.FieldSeniorTDs, math.Round(qbTDsBase+quality*qbTDsGain))
		setStat(a, model.FieldCompPct, round1(qbCompPctBase+quality*qbCompPctGain))
		setStat(a, model.FieldJuniorYPG, round1(ypg*juniorFactor))
	case types.RB:
		ypg := rbRushYPGBase + quality*rbRushYPGGain
		setStat(a, model.FieldSeniorYPG, round1(ypg))
		setStat(a, model.FieldSeniorYds, math.Round(ypg*games))
		setStat(a, model.FieldSeniorYPC, round1(rbYPCBase+quality*rbYPCGain))
		setStat(a, model.FieldSeniorTDs, math.Round(rbTDsBase+quality*rbTDsGain))
		setStat(a, model.FieldJuniorYPG, round1(ypg*juniorFactor))
	case types.WR:
		recYPG := wrRecYPGBase + quality*wrRecYPGGain
		setStat(a, model.FieldSeniorRec, math.Round(wrRecBase+quality*wrRecGain))
		setStat(a, model.FieldRecYPG, round1(recYPG))
		setStat(a, model.FieldRecYds, math.Round(recYPG*games))
		setStat(a, model.FieldSeniorTDs, math.Round(wrTDsBase+quality*wrTDsGain))
	}
}

// fillFrame sets height and weight, withheld for a small slice of the
// pool.
func fillFrame(a *model.Athlete, pos types.Position, quality float64) {
	if getRandomInt(bioRollSides) == bioOmitRoll {
		return
	}
	p := profiles[pos]
	setStat(a, model.FieldHeight, math.Round(p.heightBase+blend(quality)*p.heightGain))
	setStat(a, model.FieldWeight, math.Round(p.weightBase+blend(quality)*p.weightGain))
}

// fillCombine sets combine metrics according to the sparsity roll.
func fillCombine(a *model.Athlete, pos types.Position, quality float64) {
	roll := getRandomInt(sparsityRollSides)
	if roll > partialCombineRollMax {
		return // production only
	}

	p := profiles[pos]
	setStat(a, model.FieldForty, round2(p.fortyBase-blend(quality)*p.fortyGain))
	setStat(a, model.FieldVertical, round1(p.verticalBase+blend(quality)*p.verticalGain))

	if roll > fullCombineRollMax {
		return // partial: forty and vertical only
	}

	setStat(a, model.FieldShuttle, round2(p.shuttleBase-blend(quality)*p.shuttleGain))
	setStat(a, model.FieldBroadJump, math.Round(p.broadBase+blend(quality)*p.broadGain))
	setStat(a, model.FieldBenchPress, math.Round(p.benchBase+blend(quality)*p.benchGain))
}

// blend mixes the quality band with independent noise.
func blend(quality float64) float64 {
	return (1-qualityNoiseBlend)*quality + qualityNoiseBlend*getRandomFloat()
}

// setStat panics on unknown fields; the field names here are the model
// constants, so a failure is a programming error in this package.
func setStat(a *model.Athlete, field string, v float64) {
	if err := a.SetStat(field, v); err != nil {
		panic(err)
	}
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }

func round2(v float64) float64 { return math.Round(v*100) / 100 }
