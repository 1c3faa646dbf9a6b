package dto

type AuthRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type AuthResponse struct {
	UserId   string `json:"user_id"`
	Username string `json:"username"`
	Token    string `json:"token"`
}
