package state

// Store keeps one session value per user for the lifetime of the process.
type Store[T any] interface {
	// Get returns the session of a user and whether one exists.
	Get(userID int64) (T, bool)
	// Set stores or replaces the session of a user.
	Set(userID int64, value T)
	// Delete removes the session of a user. Missing users are ignored.
	Delete(userID int64)
	// Len reports the number of active sessions.
	Len() int
}
