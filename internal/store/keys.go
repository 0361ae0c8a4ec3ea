package store

// Key layout shared with hosted key-value deployments. The memory backend
// uses these keys literally; the SQL backends map each family to a table:
//
//	seasons:{id}             → seasons
//	activeSeasons            → seasons.is_active
//	leaderboard:season:{id}  → leaderboard
//	users:{id}               → players
const (
	seasonPrefix      = "seasons:"
	activeSeasonsKey  = "activeSeasons"
	leaderboardPrefix = "leaderboard:season:"
	userPrefix        = "users:"
)

func seasonKey(id string) string      { return seasonPrefix + id }
func leaderboardKey(id string) string { return leaderboardPrefix + id }
func userKey(playerID string) string  { return userPrefix + playerID }
