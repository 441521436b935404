package auth

type Decision bool

const (
	Deny  Decision = false
	Allow Decision = true
)

// Authorize allows a principal to act only on resources it owns.
func Authorize(principalID, ownerID int64) Decision {
	return Decision(principalID == ownerID)
}

func CheckOwner(principalID, ownerID int64) error {
	if Authorize(principalID, ownerID) == Deny {
		return ErrForbidden
	}
	return nil
}
