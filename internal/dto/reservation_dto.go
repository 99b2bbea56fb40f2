package dto

type SeedReservationsInput struct {
	Rooms []string `json:"rooms" binding:"required,min=1"`
	From  string   `json:"from" binding:"required"` // YYYY-MM-DD
	Days  int      `json:"days" binding:"required,min=1,max=90"`
}

type CreateStrikeInput struct {
	UserID      string `json:"user_id" binding:"required,uuid"`
	Description string `json:"description" binding:"required,max=2000"`
}
