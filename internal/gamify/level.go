// Package gamify holds the pure calculators that turn stats deltas into
// experience points, levels, streaks, badges and challenge progress.
//
// Nothing in this package performs I/O. Given the same inputs every function
// returns the same outputs, which is what makes ledger replay safe.
package gamify

import "math"

// MaxLevel is the highest reachable level.
const MaxLevel = 100

// xpLevelFactor scales the quadratic level curve.
const xpLevelFactor = 50

// XPForLevel returns the total XP required to reach a level: 50*(L-1)^2.
func XPForLevel(level int) int64 {
	if level <= 1 {
		return 0
	}
	if level > MaxLevel {
		level = MaxLevel
	}
	n := int64(level - 1)
	return xpLevelFactor * n * n
}

// LevelFromXP returns floor(sqrt(xp/50) + 1) clamped to [1, MaxLevel].
// The square root is corrected in integers so the result is exact for every xp.
func LevelFromXP(xp int64) int {
	if xp <= 0 {
		return 1
	}
	if xp >= XPForLevel(MaxLevel) {
		return MaxLevel
	}
	n := int64(math.Sqrt(float64(xp) / xpLevelFactor))
	for n > 0 && xpLevelFactor*n*n > xp {
		n--
	}
	for xpLevelFactor*(n+1)*(n+1) <= xp {
		n++
	}
	return int(n) + 1
}

// LevelProgress describes how far a subject is into the current level.
type LevelProgress struct {
	Level        int     `json:"level"`
	TotalXP      int64   `json:"total_xp"`
	LevelStartXP int64   `json:"level_start_xp"`
	NextLevelXP  int64   `json:"next_level_xp"`
	XPIntoLevel  int64   `json:"xp_into_level"`
	XPToNext     int64   `json:"xp_to_next"`
	Percent      float64 `json:"percent"`
	MaxLevel     bool    `json:"max_level"`
}

// Progress returns the level progress for a total XP amount.
func Progress(xp int64) LevelProgress {
	if xp < 0 {
		xp = 0
	}
	level := LevelFromXP(xp)
	p := LevelProgress{
		Level:        level,
		TotalXP:      xp,
		LevelStartXP: XPForLevel(level),
	}
	p.XPIntoLevel = xp - p.LevelStartXP

	if level >= MaxLevel {
		p.MaxLevel = true
		p.NextLevelXP = p.LevelStartXP
		p.Percent = 100
		return p
	}

	p.NextLevelXP = XPForLevel(level + 1)
	p.XPToNext = p.NextLevelXP - xp
	span := p.NextLevelXP - p.LevelStartXP
	p.Percent = clampPercent(float64(p.XPIntoLevel) / float64(span) * 100)
	return p
}

func clampPercent(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	default:
		return v
	}
}
