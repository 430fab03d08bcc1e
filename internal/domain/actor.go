package domain

import "strconv"

// Actor identifies who is driving a cart operation: a logged-in user or an
// anonymous visitor holding a guest session token. Services switch on the
// variant instead of null-checking a user id.
type Actor struct {
	userID     int64
	guestToken string
}

// UserActor returns the actor for a logged-in user.
func UserActor(userID int64) Actor {
	return Actor{userID: userID}
}

// GuestActor returns the actor for an anonymous session token.
func GuestActor(token string) Actor {
	return Actor{guestToken: token}
}

// IsUser reports whether the actor is a logged-in user.
func (a Actor) IsUser() bool {
	return a.userID > 0
}

// UserID returns the user id for a user actor; ok is false for guests.
func (a Actor) UserID() (int64, bool) {
	return a.userID, a.userID > 0
}

// GuestToken returns the session token for a guest actor.
func (a Actor) GuestToken() (string, bool) {
	return a.guestToken, a.userID <= 0 && a.guestToken != ""
}

// OwnerKey is the storage key the actor's cart lives under.
func (a Actor) OwnerKey() string {
	if a.userID > 0 {
		return strconv.FormatInt(a.userID, 10)
	}
	return a.guestToken
}
