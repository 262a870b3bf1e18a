package model

type LeaderboardEntry struct {
	Rank           int    `json:"rank"`
	UserID         string `json:"user_id"`
	Username       string `json:"username"`
	TotalPoints    int    `json:"total_points"`
	CompletedTasks int    `json:"completed_tasks"`
}
