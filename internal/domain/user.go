package domain

type User struct {
	ID         string   `json:"id"`
	Email      string   `json:"email"`
	Name       string   `json:"name"`
	Active     bool     `json:"active"`
	BookingIDs []string `json:"booking_ids,omitempty"`
}

const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

// Identity is a verified caller as reported by the identity provider.
type Identity struct {
	Subject string
	Role    string
}

func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}
