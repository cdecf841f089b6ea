package stats

import "sort"

// WeakLanguages selects the lowest acceptance-rate languages among those with
// at least minSuggestions suggestions.
func WeakLanguages(langs []LanguageStat, top int, minSuggestions int64) []LanguageStat {
	candidates := make([]LanguageStat, 0, len(langs))
	for _, s := range langs {
		if s.Suggestions >= minSuggestions {
			candidates = append(candidates, s)
		}
	}
	if len(candidates) == 0 {
		return nil
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Rate == candidates[j].Rate {
			return candidates[i].Name < candidates[j].Name
		}
		return candidates[i].Rate < candidates[j].Rate
	})
	if top <= 0 || top > len(candidates) {
		top = len(candidates)
	}
	return candidates[:top]
}
