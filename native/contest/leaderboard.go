package contest

import "sort"

// rankLeaderboard sorts the rows descending by total score and assigns dense
// 1-based ranks by sorted position. Ties break on FirstSeen: the player who
// entered the round earlier ranks higher. The sort is stable so repeated
// rankings of equal rows are deterministic.
func rankLeaderboard(rows []PlayerScore) []PlayerScore {
	ranked := make([]PlayerScore, len(rows))
	copy(ranked, rows)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].TotalScore != ranked[j].TotalScore {
			return ranked[i].TotalScore > ranked[j].TotalScore
		}
		return ranked[i].FirstSeen < ranked[j].FirstSeen
	})
	for i := range ranked {
		ranked[i].Rank = uint32(i + 1)
	}
	return ranked
}

// upsertScore applies a submission to the leaderboard: an existing row
// accumulates games and score, a new row is appended with the given first-seen
// sequence. It reports whether a new row was created.
func upsertScore(rows []PlayerScore, player [20]byte, score uint64, firstSeen uint64) ([]PlayerScore, bool) {
	for i := range rows {
		if rows[i].Player == player {
			rows[i].TotalGames++
			rows[i].TotalScore += score
			return rows, false
		}
	}
	rows = append(rows, PlayerScore{
		Player:     player,
		TotalGames: 1,
		TotalScore: score,
		FirstSeen:  firstSeen,
	})
	return rows, true
}
