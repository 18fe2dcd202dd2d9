package signals

import (
	"sort"
	"time"

	"shiftnav/internal/model"
)

// weatherModel is a first-order Markov chain over daily weather conditions:
// P(next | current) counted from consecutive observations. Prediction picks
// the most probable successor of the last condition observed before the
// target date, falling back to the city's most frequent condition.
type weatherModel struct {
	obs         []model.WeatherRow // sorted by date ascending
	transitions map[string]map[string]int
	mostCommon  string
}

func trainWeatherModel(rows []model.WeatherRow) *weatherModel {
	m := &weatherModel{transitions: map[string]map[string]int{}}
	if len(rows) == 0 {
		return m
	}
	m.obs = make([]model.WeatherRow, len(rows))
	copy(m.obs, rows)
	sort.Slice(m.obs, func(i, j int) bool { return m.obs[i].Date.Before(m.obs[j].Date) })

	freq := map[string]int{}
	for i, r := range m.obs {
		freq[r.Condition]++
		if i+1 < len(m.obs) {
			next := m.obs[i+1].Condition
			if m.transitions[r.Condition] == nil {
				m.transitions[r.Condition] = map[string]int{}
			}
			m.transitions[r.Condition][next]++
		}
	}
	best := 0
	for cond, n := range freq {
		if n > best || (n == best && cond < m.mostCommon) {
			best = n
			m.mostCommon = cond
		}
	}
	return m
}

// predict returns the expected condition for a date, or "" with no history.
func (m *weatherModel) predict(date time.Time) string {
	if len(m.obs) == 0 {
		return ""
	}
	// Last observation strictly before the target date.
	i := sort.Search(len(m.obs), func(i int) bool { return !m.obs[i].Date.Before(date) })
	if i == 0 {
		return m.mostCommon
	}
	last := m.obs[i-1].Condition

	succ := m.transitions[last]
	if len(succ) == 0 {
		return m.mostCommon
	}
	bestCond, bestCount := "", 0
	for cond, n := range succ {
		if n > bestCount || (n == bestCount && cond < bestCond) {
			bestCond = cond
			bestCount = n
		}
	}
	return bestCond
}
