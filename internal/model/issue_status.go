package model

type IssueStatus struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Position  int    `json:"position"`
	IsClosed  bool   `json:"isClosed"`
	IsDefault bool   `json:"isDefault"`
}
