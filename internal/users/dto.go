package users

import "time"

type registerRequest struct {
	UserName string `json:"user_name"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type registerResponse struct {
	Message          string    `json:"message"`
	UUID             string    `json:"uuid"`
	UserName         string    `json:"user_name"`
	Email            string    `json:"email"`
	RegistrationDate time.Time `json:"registration_date"`
}

type loginRequest struct {
	Identifier string `json:"identifier" binding:"required"`
	Password   string `json:"password" binding:"required"`
}

type loginResponse struct {
	Message     string    `json:"message"`
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

type listUsersResponse struct {
	UUIDs      []string `json:"uuids"`
	TotalUsers int      `json:"total_users"`
}

type meResponse struct {
	UUID             string    `json:"uuid"`
	UserName         string    `json:"user_name"`
	Email            string    `json:"email"`
	Role             string    `json:"role"`
	RegistrationDate time.Time `json:"registration_date"`
}
