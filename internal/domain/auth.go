package domain

// Actor is the verified identity performing a request.
type Actor struct {
	ID   string
	Role Role
}
