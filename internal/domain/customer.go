package domain

// Customer is the identity attached to an authenticated session, as
// reported by the backend on login. The backend owns the full customer
// record; the gateway only needs enough to greet and key the session.
type Customer struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
}
