package shape

// KeyStats summarizes the declared key names of an object.
type KeyStats struct {
	Min int
	Max int
	// NeedsEscape is set when any name holds a quote, backslash, control or non-ASCII byte,
	// so its wire form may differ from its decoded form.
	NeedsEscape bool
}

// Range is the difference between the longest and the shortest name.
func (k KeyStats) Range() int { return k.Max - k.Min }

// ComputeKeyStats returns statistics over names; an empty set yields the zero value.
func ComputeKeyStats(names []string) KeyStats {
	if len(names) == 0 {
		return KeyStats{}
	}
	stats := KeyStats{Min: len(names[0]), Max: len(names[0])}
	for _, name := range names {
		stats.Min = min(stats.Min, len(name))
		stats.Max = max(stats.Max, len(name))
		for i := 0; i < len(name); i++ {
			if c := name[i]; c == '"' || c == '\\' || c < 0x20 || c >= 0x80 {
				stats.NeedsEscape = true
			}
		}
	}
	return stats
}
