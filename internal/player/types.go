package player

// Player is the stored account document. The username doubles as document id
// and partition key, so lookups are point reads.
type Player struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	Password    string `json:"password"`
	GamesPlayed int    `json:"games_played"`
	TotalScore  int    `json:"total_score"`
}

// Status reports an operation outcome in the API's result/msg shape.
type Status struct {
	Result bool   `json:"result"`
	Msg    string `json:"msg"`
}

type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// UpdateRequest carries caller-supplied deltas for the score counters.
type UpdateRequest struct {
	Username         string `json:"username"`
	AddToGamesPlayed int    `json:"add_to_games_played"`
	AddToScore       int    `json:"add_to_score"`
}
