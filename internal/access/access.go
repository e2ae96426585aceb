package access

// Ownership is modelled as a nullable owner id: a nil owner marks a
// system-provided ("admin") resource. Admin resources are readable by
// everyone and mutable by no one through the API; user-owned resources
// are readable and mutable by their owner only.

// CanRead reports whether requester may read a resource with the given owner.
func CanRead(requesterID string, ownerUserID *string) bool {
	if ownerUserID == nil {
		return true
	}
	return *ownerUserID == requesterID
}

// CanMutate reports whether requester may update or delete a resource
// with the given owner.
func CanMutate(requesterID string, ownerUserID *string) bool {
	if ownerUserID == nil {
		return false
	}
	return *ownerUserID == requesterID && requesterID != ""
}
