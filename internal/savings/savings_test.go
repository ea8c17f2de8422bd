package savings

import (
	"math"
	"testing"

	"github.com/ppiankov/pipecost/internal/models"
)

func TestPortfolioSumsRangesIndependently(t *testing.T) {
	issues := []models.Issue{
		{Kind: models.IssueZombieModel, Models: []string{"a"}, SavingsUSDLow: 5, SavingsUSDHigh: 10},
		{Kind: models.IssueOverScheduled, Models: []string{"a"}, SavingsUSDLow: 2, SavingsUSDHigh: 4},
		{Kind: models.IssueRedundantComputeGroup, Models: []string{"b", "c"}, SavingsUSDLow: 3, SavingsUSDHigh: 3},
	}

	low, high := Portfolio(issues)
	// Model "a" appears twice and is double counted on purpose; the
	// caveat text in every summary states this.
	if math.Abs(low-10) > 1e-9 || math.Abs(high-17) > 1e-9 {
		t.Fatalf("expected 10/17, got %g/%g", low, high)
	}
}

func TestRankOrdersByHighBoundThenName(t *testing.T) {
	issues := []models.Issue{
		{Kind: models.IssueOverScheduled, Models: []string{"zzz"}, SavingsUSDHigh: 4},
		{Kind: models.IssueZombieModel, Models: []string{"bbb"}, SavingsUSDHigh: 9},
		{Kind: models.IssueZombieModel, Models: []string{"aaa"}, SavingsUSDHigh: 4},
	}

	Rank(issues)

	got := []string{issues[0].Models[0], issues[1].Models[0], issues[2].Models[0]}
	want := []string{"bbb", "aaa", "zzz"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected order %v, got %v", want, got)
		}
	}
}
