package repository_test

import (
	"context"
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/openscout/gridiron/internal/adapters/repository"
)

func seededBoard(b *testing.B, size int) *repository.TreapBoard {
	b.Helper()
	board := repository.NewTreapBoard(context.Background())
	b.Cleanup(func() { _ = board.Close() })
	for i := 0; i < size; i++ {
		id := fmt.Sprintf("ath-%06d", i)
		if _, err := board.UpdateBest(context.Background(), entry(id, rand.Float64()*100)); err != nil {
			b.Fatal(err)
		}
	}
	return board
}

func BenchmarkUpdateBestInsert(b *testing.B) {
	board := seededBoard(b, 0)
	ctx := context.Background()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		id := fmt.Sprintf("ath-%09d", i)
		if _, err := board.UpdateBest(ctx, entry(id, rand.Float64()*100)); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkUpdateBestImprove(b *testing.B) {
	const size = 10_000
	board := seededBoard(b, size)
	ctx := context.Background()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		id := fmt.Sprintf("ath-%06d", i%size)
		if _, err := board.UpdateBest(ctx, entry(id, rand.Float64()*100)); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkRank(b *testing.B) {
	const size = 10_000
	board := seededBoard(b, size)
	ctx := context.Background()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		id := fmt.Sprintf("ath-%06d", i%size)
		if _, err := board.Rank(ctx, id); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkTopN(b *testing.B) {
	board := seededBoard(b, 10_000)
	ctx := context.Background()
	for _, limit := range []int{10, 100, 1000} {
		b.Run(fmt.Sprintf("limit-%d", limit), func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				if _, err := board.TopN(ctx, limit); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
