package stats

import "sort"

// TopLanguages returns the names of the n languages with the most accepted lines.
func TopLanguages(langs []LanguageStat, n int) []string {
	if n <= 0 || len(langs) == 0 {
		return nil
	}
	items := make([]LanguageStat, len(langs))
	copy(items, langs)
	sort.Slice(items, func(i, j int) bool {
		if items[i].LinesAccepted == items[j].LinesAccepted {
			return items[i].Name < items[j].Name
		}
		return items[i].LinesAccepted > items[j].LinesAccepted
	})
	n = min(n, len(items))
	out := make([]string, 0, n)
	for _, item := range items[:n] {
		out = append(out, item.Name)
	}
	return out
}
