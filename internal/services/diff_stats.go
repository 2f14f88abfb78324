package services

import (
	"strings"

	"github.com/sourcegraph/go-diff/diff"

	"github.com/pyama86/gpt-bot/internal/models"
)

// ComputeDiffStats counts files and changed lines across pull request
// patches. GitHub patches carry hunks only, without file headers. A patch
// that does not parse as hunks is counted line by line.
func ComputeDiffStats(files []PullRequestFile) models.DiffStats {
	var stats models.DiffStats
	for _, f := range files {
		if f.Patch == "" {
			continue
		}
		stats.Files++

		hunks, err := diff.ParseHunks([]byte(f.Patch))
		if err != nil || len(hunks) == 0 {
			added, deleted := countChangedLines(f.Patch)
			stats.Added += added
			stats.Deleted += deleted
			continue
		}
		for _, h := range hunks {
			added, deleted := countChangedLines(string(h.Body))
			stats.Added += added
			stats.Deleted += deleted
		}
	}
	return stats
}

func countChangedLines(body string) (added, deleted int) {
	for _, line := range strings.Split(body, "\n") {
		switch {
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
		case strings.HasPrefix(line, "+"):
			added++
		case strings.HasPrefix(line, "-"):
			deleted++
		}
	}
	return added, deleted
}
