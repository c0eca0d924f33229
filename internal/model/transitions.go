package model

// CanTransition reports whether table allows moving from current to target.
func CanTransition(table map[string][]string, current, target string) bool {
	allowed, ok := table[current]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == target {
			return true
		}
	}
	return false
}
