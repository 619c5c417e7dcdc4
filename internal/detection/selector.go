package detection

import "sort"

// TopCandidates is the number of ranked candidates kept from the winning trial.
const TopCandidates = 5

// Select picks the trial with the most candidates and returns it together with
// its best candidates, highest score first.
//
// The comparison is strict, so on equal counts the earliest trial wins. When
// every trial is empty the returned slice is empty and the caller falls back to
// PrimaryFallback.
func Select(trials []Trial) (Trial, []Region) {
	var best Trial
	for _, trial := range trials {
		if len(trial.Candidates) > len(best.Candidates) {
			best = trial
		}
	}

	ranked := make([]Region, len(best.Candidates))
	copy(ranked, best.Candidates)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	if len(ranked) > TopCandidates {
		ranked = ranked[:TopCandidates]
	}
	return best, ranked
}
