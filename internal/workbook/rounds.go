// Package workbook reads round files and edits the dashboard template. It
// converts both into grids and keeps file formats out of the heuristics.
package workbook

import (
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// RoundFile is one per-period input workbook, e.g.
// "Competition - Financial Summary - Year 2.xlsx" for round 2.
type RoundFile struct {
	Path  string
	Name  string
	Round int
}

// ParseRound extracts the round number from a round file name.
func ParseRound(name, prefix string) (int, error) {
	s := strings.ToLower(name)
	s = strings.TrimPrefix(s, strings.ToLower(prefix))
	s = strings.TrimSuffix(s, ".xlsx")
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, eris.Wrapf(err, "workbook: no round number in %q", name)
	}
	return n, nil
}

// DiscoverRounds lists the .xlsx files in dir whose name starts with prefix
// (case-insensitive), sorted by round. Files whose round number cannot be
// read are skipped with a warning.
func DiscoverRounds(dir, prefix string) ([]RoundFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, eris.Wrapf(err, "workbook: read dir %s", dir)
	}

	lowerPrefix := strings.ToLower(prefix)
	var rounds []RoundFile
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		lower := strings.ToLower(name)
		if filepath.Ext(lower) != ".xlsx" || !strings.HasPrefix(lower, lowerPrefix) {
			continue
		}
		n, err := ParseRound(name, prefix)
		if err != nil {
			zap.L().Warn("workbook: skipping round file", zap.String("file", name), zap.Error(err))
			continue
		}
		rounds = append(rounds, RoundFile{Path: filepath.Join(dir, name), Name: name, Round: n})
	}

	sort.SliceStable(rounds, func(i, j int) bool { return rounds[i].Round < rounds[j].Round })
	return rounds, nil
}
