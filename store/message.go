package store

// Message is a single chat turn. UserContent is written when the turn starts;
// AssistantContent and Products are written together once generation completes,
// never one without the other.
type Message struct {
	ID               int32
	UID              string
	SessionID        int32
	UserContent      string
	AssistantContent *string
	// Products is a JSON array of product snapshots attached to the turn.
	Products  *string
	IsReload  bool
	IsGuided  bool
	CreatedTs int64
}

type FindMessage struct {
	ID        *int32
	UID       *string
	SessionID *int32
	// ExcludeUID filters out the in-flight message when rebuilding context.
	ExcludeUID *string
	// OrderDesc returns newest-first when set; default is oldest-first.
	OrderDesc bool
	Limit     *int
}

type UpdateMessage struct {
	ID               int32
	AssistantContent *string
	Products         *string
}

type DeleteMessage struct {
	ID        *int32
	SessionID *int32
}
