// Package users expone el perfil del usuario autenticado a partir de las
// tablas de identidad de Supabase.
package users

import (
	"context"

	"github.com/google/uuid"

	"github.com/jhoicas/kpis-api/internal/application/dto"
	"github.com/jhoicas/kpis-api/internal/domain"
	"github.com/jhoicas/kpis-api/internal/domain/repository"
	"github.com/jhoicas/kpis-api/pkg/logger"
)

// UseCase lectura del perfil propio.
type UseCase struct {
	users repository.UserRepository
	log   *logger.Logger
}

// NewUseCase construye el caso de uso.
func NewUseCase(users repository.UserRepository, log *logger.Logger) *UseCase {
	return &UseCase{users: users, log: log.Component("users")}
}

// Profile devuelve el perfil del usuario del token. El rol de la tabla
// user_roles manda; el del token solo se usa si el usuario aún no tiene fila
// (tokens emitidos antes de asignarle rol).
func (uc *UseCase) Profile(ctx context.Context, userID, tokenRole string) (*dto.ProfileResponse, error) {
	id, err := uuid.Parse(userID)
	if err != nil {
		return nil, domain.ErrInvalidInput
	}
	user, err := uc.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrNotFound
	}

	role := user.Role
	if role == "" {
		role = tokenRole
	}
	resp := &dto.ProfileResponse{
		ID:       user.ID.String(),
		Email:    user.Email,
		FullName: user.FullName,
		Role:     role,
	}
	if user.DepartmentID != nil {
		resp.DepartmentID = user.DepartmentID.String()
	}
	return resp, nil
}
