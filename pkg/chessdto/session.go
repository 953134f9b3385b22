package chessdto

// Piece is one occupied square.
type Piece struct {
	Kind  string `json:"kind"`
	Color string `json:"color"`
}

type CapturedPieces struct {
	// White lists white pieces taken by black, in capture order.
	White      []string `json:"white"`
	Black      []string `json:"black"`
	WhiteValue int      `json:"white_value"`
	BlackValue int      `json:"black_value"`
}

type Selection struct {
	Square       string   `json:"square"`
	Destinations []string `json:"destinations"`
}

type PendingPromotion struct {
	From    string   `json:"from"`
	To      string   `json:"to"`
	Options []string `json:"options"`
}

type Status struct {
	Check     bool   `json:"check"`
	Checkmate bool   `json:"checkmate"`
	Draw      bool   `json:"draw"`
	GameOver  bool   `json:"game_over"`
	Result    string `json:"result"`
	Winner    string `json:"winner,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

// Snapshot is the read-only view a presentation layer renders from.
type Snapshot struct {
	GameID      string            `json:"game_id"`
	Generation  uint64            `json:"generation"`
	PlayerColor string            `json:"player_color"`
	SideToMove  string            `json:"side_to_move"`
	Turn        string            `json:"turn"`
	FEN         string            `json:"fen"`
	Board       map[string]Piece  `json:"board"`
	History     []Move            `json:"history"`
	MoveTable   []MoveRow         `json:"move_table"`
	LastMove    *Move             `json:"last_move,omitempty"`
	Captured    CapturedPieces    `json:"captured"`
	Pending     *PendingPromotion `json:"pending_promotion,omitempty"`
	Selection   *Selection        `json:"selection,omitempty"`
	Status      Status            `json:"status"`
	Thinking    bool              `json:"thinking"`
	Fault       string            `json:"fault,omitempty"`
}
