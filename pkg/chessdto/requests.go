package chessdto

type ClickRequest struct {
	Square string `json:"square"`
}

type PromotionRequest struct {
	Kind string `json:"kind"`
}

type GamesResponse struct {
	Games []ArchivedGame `json:"games"`
}
