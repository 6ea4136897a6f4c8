package errorx

type Code int

var Unknown = Error{Code: Internal, Message: "Request failed"}

const (
	// Common codes
	BadRequest      Code = 100001
	NotFound        Code = 100004
	AlreadyExists   Code = 100006
	Internal        Code = 100007
	Unavailable     Code = 100008
	TooManyRequests Code = 100010

	// Reaction role codes
	DuplicateBinding Code = 500001
)
