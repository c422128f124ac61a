package render

import (
	"os"
	"strings"
	"testing"

	"github.com/ALT-F4-LLC/portfolio/internal/award"
)

func makeCard(name, criterion string, value int, earned bool) AwardCard {
	return AwardCard{
		Award: award.Award{
			Name:        name,
			Description: "Reach " + name,
			Color:       "Gold",
			Criterion:   criterion,
			Value:       value,
		},
		Earned: earned,
	}
}

func TestRenderAwardsEmpty(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	if got := RenderAwards(nil); got != "No awards defined." {
		t.Errorf("RenderAwards(nil) = %q", got)
	}
}

func TestRenderPlainAwardsGroupsByCriterion(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	cards := []AwardCard{
		makeCard("Tagger", award.CriterionTags, 1, true),
		makeCard("First Issue", award.CriterionIssues, 1, true),
		makeCard("Ten Issues", award.CriterionIssues, 10, false),
		makeCard("Closer", award.CriterionClosed, 1, false),
	}

	got := RenderAwards(cards)

	for _, want := range []string{
		"=== ISSUES CREATED (1/2) ===",
		"=== ISSUES CLOSED (0/1) ===",
		"=== TAGS CREATED (1/1) ===",
		"[x] First Issue",
		"[ ] Ten Issues",
		"Reach Closer",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("expected %q in output, got:\n%s", want, got)
		}
	}

	issues := strings.Index(got, "ISSUES CREATED")
	closed := strings.Index(got, "ISSUES CLOSED")
	tags := strings.Index(got, "TAGS CREATED")
	if !(issues < closed && closed < tags) {
		t.Errorf("columns out of order, got:\n%s", got)
	}
}

func TestRenderPlainAwardsSkipsEmptyColumns(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	got := RenderAwards([]AwardCard{makeCard("Tagger", award.CriterionTags, 1, false)})

	if strings.Contains(got, "ISSUES") {
		t.Errorf("empty columns should be omitted, got:\n%s", got)
	}
}

func TestRenderPlainAwardsUnknownCriterionLast(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	got := RenderAwards([]AwardCard{
		makeCard("Mystery", "streak", 3, false),
		makeCard("First Issue", award.CriterionIssues, 1, true),
	})

	if !strings.Contains(got, "=== STREAK (0/1) ===") {
		t.Errorf("expected unknown criterion column, got:\n%s", got)
	}
	if strings.Index(got, "STREAK") < strings.Index(got, "ISSUES CREATED") {
		t.Errorf("unknown criterion should come last, got:\n%s", got)
	}
}

func TestRenderColorAwardsContainsNames(t *testing.T) {
	t.Setenv("TERM", "xterm-256color")
	t.Setenv("NO_COLOR", "")
	os.Unsetenv("NO_COLOR")

	got := RenderAwards([]AwardCard{
		makeCard("First Issue", award.CriterionIssues, 1, true),
		makeCard("Tagger", award.CriterionTags, 1, false),
	})
	for _, want := range []string{"First Issue", "Tagger", "ISSUES CREATED (1/1)"} {
		if !strings.Contains(got, want) {
			t.Errorf("expected %q in output, got:\n%s", want, got)
		}
	}
}
