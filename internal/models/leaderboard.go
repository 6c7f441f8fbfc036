package models

type LeaderboardItem struct {
	DisplayName string  `json:"display_name"`
	DonorID     int64   `json:"donor_id"`
	Score       float64 `json:"score"`
	Rank        int     `json:"rank,omitempty"`
	Title       string  `json:"title,omitempty"`
}

type LeaderboardResponse struct {
	Leaderboard []*LeaderboardItem `json:"leaderboard"`
	Me          *LeaderboardItem   `json:"me,omitempty"`
}
