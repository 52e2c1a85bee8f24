package store

// Feedback is a 1-5 product rating attached to a chat turn.
type Feedback struct {
	ID         int32
	SessionUID string
	MessageUID string
	ProductID  string
	Rating     int
	Reason     string
	Category   string
	CreatedTs  int64
}

type FindFeedback struct {
	SessionUID *string
	ProductID  *string
}
