package chessdto

// Move is one applied ply.
type Move struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Color     string `json:"color"`
	Captured  string `json:"captured,omitempty"`
	Promotion string `json:"promotion,omitempty"`
	SAN       string `json:"san"`
	UCI       string `json:"uci"`
}

// MoveRow pairs white's and black's plies under one move number.
type MoveRow struct {
	Number int    `json:"number"`
	White  string `json:"white"`
	Black  string `json:"black,omitempty"`
}
