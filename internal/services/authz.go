package services

// Authorize checks that principal is logged in and owns a record authored
// by ownerID. An empty principal means an anonymous request.
func Authorize(principal, ownerID string) error {
	if principal == "" {
		return ErrNotAuthenticated
	}
	if principal != ownerID {
		return ErrNotAuthorized
	}
	return nil
}
