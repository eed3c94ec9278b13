package testathletes

import (
	"context"
	"fmt"
	"log"
	"sort"

	"github.com/openscout/gridiron/internal/domain/types"
)

// verifyResults verifies the consistency of ranks and the board.
func verifyResults(ctx context.Context, config *Config, ranks, board []Entry, stats *Stats) error {
	log.Println("🔍 Verifying results...")

	if len(ranks) == 0 {
		return fmt.Errorf("no ranks to verify")
	}

	// Sort ranks by score (descending) to get top prospects
	sortedRanks := make([]Entry, len(ranks))
	copy(sortedRanks, ranks)
	sort.Slice(sortedRanks, func(i, j int) bool {
		return sortedRanks[i].Score > sortedRanks[j].Score
	})

	// Verify board consistency if we have board data
	if len(board) > 0 {
		if err := verifyBoardConsistency(sortedRanks, board); err != nil {
			log.Printf("⚠️  Board consistency warning: %v", err)
		} else {
			log.Println("✅ Board consistency verified")
		}
	}

	// Display top prospects
	displayTopProspects(sortedRanks, board, config.Verbose)

	log.Println("✅ Result verification completed")
	return nil
}

// verifyBoardConsistency checks if the board matches top ranks and is
// internally ordered.
func verifyBoardConsistency(sortedRanks, board []Entry) error {
	if len(board) == 0 {
		return fmt.Errorf("empty board")
	}

	// Check if top board entry matches the highest ranked athlete
	topRank := sortedRanks[0]
	topBoard := board[0]

	if topRank.AthleteID != topBoard.AthleteID {
		return fmt.Errorf("top board entry (%s) does not match top ranked athlete (%s)",
			topBoard.AthleteID, topRank.AthleteID)
	}

	if topRank.Score != topBoard.Score {
		return fmt.Errorf("top board score (%.3f) does not match top ranked score (%.3f)",
			topBoard.Score, topRank.Score)
	}

	// Check if the board is properly sorted with contiguous ranks
	for i := 1; i < len(board); i++ {
		if board[i].Score > board[i-1].Score {
			return fmt.Errorf("board not properly sorted: entry %d has higher score than entry %d",
				i, i-1)
		}
	}
	for i, entry := range board {
		if entry.Rank != i+1 {
			return fmt.Errorf("board ranks not contiguous: entry %d carries rank %d", i, entry.Rank)
		}
	}

	return nil
}

// displayTopProspects shows the top prospects from ranks and the board.
func displayTopProspects(sortedRanks, board []Entry, verbose bool) {
	topN := min(10, len(sortedRanks))

	log.Printf("🏆 Top %d prospects from ranks:", topN)
	for i := 0; i < topN; i++ {
		entry := sortedRanks[i]
		log.Printf("   %d. %s (%s, %s) - Score: %.3f", i+1, entry.AthleteID, entry.Position, types.Tier(entry.Tier).Label(), entry.Score)
	}

	if len(board) > 0 {
		boardTopN := min(topN, len(board))

		log.Printf("🥇 Top %d prospects from the board:", boardTopN)
		for i := 0; i < boardTopN; i++ {
			entry := board[i]
			log.Printf("   %d. %s (%s, %s) - Score: %.3f", entry.Rank, entry.AthleteID, entry.Position, types.Tier(entry.Tier).Label(), entry.Score)
		}
	}

	if verbose {
		// Show some statistics
		if len(sortedRanks) > 0 {
			avgScore := calculateAverageScore(sortedRanks)
			maxScore := sortedRanks[0].Score
			minScore := sortedRanks[len(sortedRanks)-1].Score

			log.Printf(`📊 Score statistics:
   Average: %.3f
   Maximum: %.3f
   Minimum: %.3f
`, avgScore, maxScore, minScore)
		}

		displayTierDistribution(sortedRanks)
	}
}

// displayTierDistribution shows how the ranked pool spread across the
// projection tiers.
func displayTierDistribution(ranks []Entry) {
	counts := make(map[int]int)
	for _, entry := range ranks {
		counts[entry.Tier]++
	}

	log.Println("📊 Tier distribution:")
	for t := types.NumTiers - 1; t >= 0; t-- {
		log.Printf("   %s: %d", types.Tier(t).Label(), counts[t])
	}
}

// calculateAverageScore calculates the average score from ranks.
func calculateAverageScore(ranks []Entry) float64 {
	if len(ranks) == 0 {
		return 0
	}

	sum := 0.0
	for _, entry := range ranks {
		sum += entry.Score
	}

	return sum / float64(len(ranks))
}
