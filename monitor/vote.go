package monitor

// VoteIndex returns which of the three inputs is the median, using explicit
// comparisons so ties resolve the same way every frame.
func VoteIndex(u1, u2, u3 float64) int {
	if u1 < u2 {
		if u2 < u3 {
			return 1
		}
		if u1 < u3 {
			return 2
		}
		return 0
	}
	if u1 < u3 {
		return 0
	}
	if u2 < u3 {
		return 2
	}
	return 1
}

// Vote returns the median of three values.
func Vote(u1, u2, u3 float64) float64 {
	switch VoteIndex(u1, u2, u3) {
	case 0:
		return u1
	case 1:
		return u2
	}
	return u3
}
