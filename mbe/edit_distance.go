package mbe

import (
	"mbe-go/name"
)

// EditDistance computes the edit distance between two strings. With
// maxEditDistance > 0 the computation stops early and reports
// maxEditDistance+1 once every candidate in a row exceeds it.
func EditDistance(s1 string, s2 string, allowReplacements bool, maxEditDistance int) int {
	m := len(s1)
	n := len(s2)

	row := make([]int, n+1)
	for i := 1; i <= n; i++ {
		row[i] = i
	}

	for y := 1; y <= m; y++ {
		row[0] = y
		bestThisRow := row[0]

		previous := y - 1
		for x := 1; x <= n; x++ {
			oldRow := row[x]
			if allowReplacements {
				cost := 1
				if s1[y-1] == s2[x-1] {
					cost = 0
				}
				row[x] = min(previous+cost, min(row[x-1], row[x])+1)
			} else {
				if s1[y-1] == s2[x-1] {
					row[x] = previous
				} else {
					row[x] = min(row[x-1], row[x]) + 1
				}
			}
			previous = oldRow
			bestThisRow = min(bestThisRow, row[x])
		}

		if maxEditDistance != 0 && bestThisRow > maxEditDistance {
			return maxEditDistance + 1
		}
	}

	return row[n]
}

const kMaxValidEditDistance = 3

// SpellcheckName returns the spelling in candidates closest to n, or "" if
// none is close enough to be a plausible typo.
func SpellcheckName(n name.Name, candidates []name.Name) string {
	text := n.String()
	minDistance := kMaxValidEditDistance + 1
	result := ""
	for _, c := range candidates {
		if c == n {
			continue
		}
		distance := EditDistance(c.String(), text, true, kMaxValidEditDistance)
		if distance < minDistance {
			minDistance = distance
			result = c.String()
		}
	}
	return result
}
