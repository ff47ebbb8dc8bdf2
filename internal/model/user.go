package model

// User is a stored account. Password is the plain credential held in the
// backing document; it must be stripped before a user leaves the API.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Password string `json:"password,omitempty"`
	Name     string `json:"name,omitempty"`
	Role     string `json:"role,omitempty"`
}

// Sanitized returns a copy safe to return to clients: the password field
// is cleared and therefore omitted from the JSON encoding.
func (u User) Sanitized() User {
	u.Password = ""
	return u
}

// Category is a product grouping used by catalog filtering.
type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
