package dto

// ProfileResponse perfil del usuario autenticado (GET /api/me).
type ProfileResponse struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	FullName     string `json:"fullName,omitempty"`
	Role         string `json:"role"`
	DepartmentID string `json:"departmentId,omitempty"`
}
