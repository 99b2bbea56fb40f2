package dto

type CreateFeedbackInput struct {
	EventID string  `json:"event_id" binding:"required,uuid"`
	Rating  float64 `json:"rating" binding:"required"`
	Comment *string `json:"comment" binding:"omitempty,max=2000"`
}

type UpdateFeedbackInput struct {
	Rating  float64 `json:"rating" binding:"required"`
	Comment *string `json:"comment" binding:"omitempty,max=2000"`
}
