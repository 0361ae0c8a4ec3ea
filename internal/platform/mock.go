package platform

import (
	"context"
	"sort"
	"sync"
)

// Mock is an in-process platform used in development. It starts with a few
// sample players so the leaderboard has something to merge.
type Mock struct {
	mu     sync.Mutex
	scores map[string]HighScore
	seq    map[string]int
	next   int
}

// DevUser is the identity used for development score submissions.
var DevUser = User{ID: "dev-user-123", Username: "dev_user", FirstName: "Dev", LastName: "User"}

func NewMock() *Mock {
	m := &Mock{scores: map[string]HighScore{}, seq: map[string]int{}}
	m.seed(DevUser, 5000)
	m.seed(User{ID: "dev-user-456", Username: "test_user", FirstName: "Test", LastName: "User"}, 4500)
	m.seed(User{ID: "dev-user-789", Username: "another_user", FirstName: "Another", LastName: "User"}, 4000)
	return m
}

func (m *Mock) seed(u User, score int) {
	m.scores[u.ID] = HighScore{User: u, Score: score}
	m.seq[u.ID] = m.next
	m.next++
}

// SetGameScore stores score for the user, replacing any previous value.
func (m *Mock) SetGameScore(ctx context.Context, req ScoreRequest) error {
	if !req.Target.HasTarget() {
		return ErrNoMessageContext
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.scores[req.UserID]
	if !ok {
		h.User = User{ID: req.UserID}
		m.seq[req.UserID] = m.next
		m.next++
	}
	h.Score = req.Score
	m.scores[req.UserID] = h
	return nil
}

// GetGameHighScores returns the whole table, best first.
func (m *Mock) GetGameHighScores(ctx context.Context, userID string) ([]HighScore, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]HighScore, 0, len(m.scores))
	for _, h := range m.scores {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return m.seq[out[i].User.ID] < m.seq[out[j].User.ID]
	})
	for i := range out {
		out[i].Position = i + 1
	}
	return out, nil
}
