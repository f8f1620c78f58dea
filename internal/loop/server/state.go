package server

import (
	"sort"
	"sync"

	"github.com/tomz197/fruitcatch/internal/store"
)

// TopScoreEntry represents a single entry on the leaderboard.
type TopScoreEntry struct {
	Username string
	Score    int
	Live     bool // Score belongs to a run still in progress
	clientID int  // Deterministic tie-break between live runs of the same user
}

// HubSnapshot is an immutable view of the hub for rendering.
type HubSnapshot struct {
	Players   int // Connected clients
	Playing   int // Clients with a run in progress
	TopScores []TopScoreEntry
}

// Leaderboard keeps the best finished score per user.
type Leaderboard struct {
	mu   sync.Mutex
	size int
	best map[string]int
}

// NewLeaderboard creates a leaderboard that reports the top size entries.
func NewLeaderboard(size int) *Leaderboard {
	return &Leaderboard{size: size, best: make(map[string]int)}
}

// Record stores score when it beats the user's best and reports whether it did.
func (l *Leaderboard) Record(username string, score int) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if prev, ok := l.best[username]; ok && prev >= score {
		return false
	}
	l.best[username] = score
	return true
}

// Merge folds persisted rankings into the board.
func (l *Leaderboard) Merge(rankings []store.Ranking) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, r := range rankings {
		if prev, ok := l.best[r.Username]; !ok || r.Score > prev {
			l.best[r.Username] = r.Score
		}
	}
}

// Top merges live runs with finished bests and returns the leading entries.
// A user appears once, with whichever of their scores is higher.
func (l *Leaderboard) Top(live []TopScoreEntry) []TopScoreEntry {
	l.mu.Lock()
	merged := make(map[string]TopScoreEntry, len(l.best)+len(live))
	for name, score := range l.best {
		merged[name] = TopScoreEntry{Username: name, Score: score}
	}
	l.mu.Unlock()

	for _, e := range live {
		prev, ok := merged[e.Username]
		if !ok || e.Score > prev.Score || (prev.Live && e.Score == prev.Score && e.clientID < prev.clientID) {
			merged[e.Username] = e
		}
	}

	entries := make([]TopScoreEntry, 0, len(merged))
	for _, e := range merged {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].Username < entries[j].Username
	})
	if len(entries) > l.size {
		entries = entries[:l.size]
	}
	return entries
}
