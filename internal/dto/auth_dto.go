package dto

// LoginRequest covers every actor kind. Customers identify by Mobile, the
// other kinds by Username.
type LoginRequest struct {
	Mobile   string `json:"mobile"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// Identifier returns the lookup key relevant to kind.
func (r LoginRequest) Identifier(kind string) string {
	if kind == "customer" {
		return r.Mobile
	}
	return r.Username
}

type RegisterCustomerRequest struct {
	Mobile   string  `json:"mobile"`
	Password string  `json:"password"`
	Name     string  `json:"name"`
	Email    *string `json:"email,omitempty"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// AuthResponse is returned by login, register and refresh. User is the
// account record with its password hash stripped by its JSON tags.
type AuthResponse struct {
	Success      bool        `json:"success"`
	Kind         string      `json:"kind"`
	User         interface{} `json:"user"`
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	ExpiresIn    int64       `json:"expires_in"`
}

type MeResponse struct {
	Kind string      `json:"kind"`
	User interface{} `json:"user"`
}

type ErrorResponse struct {
	Error   bool   `json:"error"`
	Message string `json:"message"`
	Reason  string `json:"reason,omitempty"`
}

type HealthResponse struct {
	Status        string `json:"status"`
	Timestamp     string `json:"timestamp"`
	DB            string `json:"db"`
	UserCount     int64  `json:"user_count"`
	BusinessCount int    `json:"business_count"`
}
