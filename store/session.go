package store

// Session is one conversation owned by a guest or authenticated user.
type Session struct {
	ID        int32
	UID       string
	Name      string
	GuestID   string
	CreatedTs int64
	UpdatedTs int64
}

type FindSession struct {
	ID      *int32
	UID     *string
	GuestID *string
	Limit   *int
}

type UpdateSession struct {
	ID        int32
	Name      *string
	UpdatedTs *int64
}

type DeleteSession struct {
	ID int32
}
