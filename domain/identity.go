package domain

// Identity is the authenticated principal established by the authentication
// gate and threaded through the request context. It is an explicit value,
// never ambient global state.
type Identity struct {
	Email string   `json:"email"`
	Roles []string `json:"roles"`
}

func (id Identity) HasRole(name string) bool {
	for _, r := range id.Roles {
		if r == name {
			return true
		}
	}
	return false
}

// Decision is the typed allow/deny result of a permission check.
type Decision struct {
	Allowed bool
	Reason  string
}

// Authorize checks that the identity holds the required role and, when a
// predicate is given, satisfies it. Write operations call this exactly once.
func Authorize(id Identity, requiredRole string, predicate func(Identity) bool) Decision {
	if !id.HasRole(requiredRole) {
		return Decision{Reason: "missing role " + requiredRole}
	}
	if predicate != nil && !predicate(id) {
		return Decision{Reason: "identity not permitted"}
	}
	return Decision{Allowed: true}
}
