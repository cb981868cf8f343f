// Package contracts holds the response shapes of the users API and the JSON
// Schemas they are checked against.
package contracts

// User is one entry of the users collection.
type User struct {
	ID        int    `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Avatar    string `json:"avatar"`
}

type Support struct {
	URL  string `json:"url"`
	Text string `json:"text"`
}

// UserPage is returned by GET api/users?page=N.
type UserPage struct {
	Page       int      `json:"page"`
	PerPage    int      `json:"per_page"`
	Total      int      `json:"total"`
	TotalPages int      `json:"total_pages"`
	Data       []User   `json:"data"`
	Support    *Support `json:"support,omitempty"`
}

// SingleUser is returned by GET api/users/{id}. Data is nil for unknown ids.
type SingleUser struct {
	Data    *User    `json:"data,omitempty"`
	Support *Support `json:"support,omitempty"`
}

// UserCreated echoes a create-user request plus the server-assigned fields.
type UserCreated struct {
	Name      string `json:"name"`
	Job       string `json:"job"`
	ID        string `json:"id,omitempty"`
	CreatedAt string `json:"createdAt,omitempty"`
}

// UserUpdated echoes a PUT or PATCH on a user.
type UserUpdated struct {
	Name      string `json:"name"`
	Job       string `json:"job"`
	UpdatedAt string `json:"updatedAt,omitempty"`
}
