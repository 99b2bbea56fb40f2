package dto

type CreateGroupRequestInput struct {
	Name        string `json:"name" binding:"required,max=100"`
	Description string `json:"description" binding:"max=2000"`
}

type CreateEventRequestInput struct {
	GroupID     string `json:"group_id" binding:"required,uuid"`
	Space       string `json:"space" binding:"required,max=100"`
	Day         string `json:"day" binding:"required"` // YYYY-MM-DD
	Module      int    `json:"module" binding:"required,min=1"`
	Title       string `json:"title" binding:"required,max=255"`
	Description string `json:"description" binding:"max=2000"`
}
