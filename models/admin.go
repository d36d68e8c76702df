package models

type AdminCredential struct {
	Email        string `json:"email" db:"email"`
	PasswordHash string `json:"password_hash" db:"password_hash"`
}

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
