package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"biliticket/connhub/internal/model"
	"biliticket/connhub/internal/repository"
)

type signUpService struct {
	userRepo repository.UserRepository
	logger   *zap.Logger
}

// NewSignUpService creates a local user for every connection that has no
// owner yet, named after the connection's display name.
func NewSignUpService(userRepo repository.UserRepository, logger *zap.Logger) repository.ConnectionSignUp {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &signUpService{userRepo: userRepo, logger: logger}
}

func (s *signUpService) Execute(ctx context.Context, conn model.Connection) (string, error) {
	data := conn.CreateData()
	user := &model.User{
		Status:      model.UserStatusActive,
		DisplayName: data.DisplayName,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return "", fmt.Errorf("create user for %s: %w", data.Key(), err)
	}
	s.logger.Debug("user created for connection",
		zap.String("user_id", user.ID),
		zap.Stringer("connection", data.Key()),
	)
	return user.ID, nil
}
