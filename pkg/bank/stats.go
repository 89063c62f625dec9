package bank

import (
	"fmt"
	"io"
	"sort"

	"akushu/pkg/problem"
)

type PlayerStats struct {
	Name     string
	Problems int
	Blunders int
	MaxSwing int
	sum      int
}

func (p PlayerStats) MeanSwing() float64 {
	if p.Problems == 0 {
		return 0
	}
	return float64(p.sum) / float64(p.Problems)
}

type Summary struct {
	Total      int
	BySeverity map[string]int
	Players    []PlayerStats
}

// Summarize counts problems by severity and by the player who made the
// move. Players are ordered by problem count, then name.
func Summarize(rows []Row) Summary {
	s := Summary{Total: len(rows), BySeverity: make(map[string]int)}
	byName := make(map[string]*PlayerStats)
	for _, r := range rows {
		s.BySeverity[r.Severity]++
		name := r.Player()
		ps, ok := byName[name]
		if !ok {
			ps = &PlayerStats{Name: name}
			byName[name] = ps
		}
		ps.Problems++
		ps.sum += int(r.Swing)
		if int(r.Swing) >= problem.BlunderThreshold {
			ps.Blunders++
		}
		if int(r.Swing) > ps.MaxSwing {
			ps.MaxSwing = int(r.Swing)
		}
	}
	for _, ps := range byName {
		s.Players = append(s.Players, *ps)
	}
	sort.Slice(s.Players, func(i, j int) bool {
		if s.Players[i].Problems != s.Players[j].Problems {
			return s.Players[i].Problems > s.Players[j].Problems
		}
		return s.Players[i].Name < s.Players[j].Name
	})
	return s
}

func (s Summary) Print(w io.Writer) {
	fmt.Fprintf(w, "problems: %d\n", s.Total)
	labels := make([]string, 0, len(s.BySeverity))
	for label := range s.BySeverity {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	for _, label := range labels {
		fmt.Fprintf(w, "  %s: %d\n", label, s.BySeverity[label])
	}
	fmt.Fprintln(w, "player,problems,blunders,max_swing,mean_swing")
	for _, p := range s.Players {
		fmt.Fprintf(w, "%s,%d,%d,%d,%.1f\n", p.Name, p.Problems, p.Blunders, p.MaxSwing, p.MeanSwing())
	}
}
