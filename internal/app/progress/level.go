package progress

import "github.com/momentum-app/momentum/internal/domain"

// The leveling curve is triangular: each level costs 50·L more XP than the
// one before, so cumulative XP for level L is 50·L·(L+1)/2. Tuned so a
// steady 30-day completion lands around level 5–8.

// TotalXPForLevel returns the cumulative XP required to reach a level.
// Level 1 is free.
func TotalXPForLevel(level int) int64 {
	if level <= 1 {
		return 0
	}
	l := int64(level)
	return 50 * l * (l + 1) / 2
}

// LevelForXP returns the greatest level whose threshold the XP meets.
// Iterates upward from 1; XP magnitudes here stay far below overflow range.
func LevelForXP(xp int64) int {
	level := 1
	for xp >= TotalXPForLevel(level+1) {
		level++
	}
	return level
}

// Progress reports position within the current level for progress-bar
// rendering. At an exact threshold (xp == TotalXPForLevel(L)) the result is
// level L with InLevel 0, never L-1 at full.
func Progress(xp int64) domain.LevelProgress {
	level := LevelForXP(xp)
	floor := TotalXPForLevel(level)
	ceil := TotalXPForLevel(level + 1)

	p := domain.LevelProgress{
		Level:       level,
		InLevel:     xp - floor,
		Needed:      ceil - floor,
		NextLevelAt: ceil,
	}
	if p.Needed > 0 {
		p.Pct = float64(p.InLevel) / float64(p.Needed)
	}
	if p.Pct < 0 {
		p.Pct = 0
	}
	if p.Pct > 1 {
		p.Pct = 1
	}
	return p
}
