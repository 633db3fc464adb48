package models

import "github.com/golang-jwt/jwt/v5"

// LoginResponse returns the issued token with the teacher profile.
type LoginResponse struct {
	Token   string      `json:"token"`
	Teacher TeacherInfo `json:"teacher"`
}

// TeacherInfo is the public part of a teacher account.
type TeacherInfo struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	Email        string      `json:"email"`
	Designation  string      `json:"designation"`
	ProfileImage *string     `json:"profileImage,omitempty"`
	Role         TeacherRole `json:"role"`
}

// JWTClaims represents the JWT payload for access tokens.
type JWTClaims struct {
	TeacherID string      `json:"id"`
	Email     string      `json:"email"`
	Role      TeacherRole `json:"role"`
	jwt.RegisteredClaims
}
