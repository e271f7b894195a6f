package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/hogarya/hogarya-backend/internal/models"
	"github.com/hogarya/hogarya-backend/internal/pkg/apperror"
)

type ProProfileStore interface {
	Create(ctx context.Context, p *models.ProProfile) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.ProProfile, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) (*models.ProProfile, error)
	SetDestination(ctx context.Context, id uuid.UUID, destination string) error
	VerifyDestination(ctx context.Context, id uuid.UUID) error
}

// ProProfileService — платёжные профили исполнителей.
type ProProfileService struct {
	profiles ProProfileStore
	log      *logrus.Logger
}

func NewProProfileService(profiles ProProfileStore, log *logrus.Logger) *ProProfileService {
	return &ProProfileService{profiles: profiles, log: log}
}

func (s *ProProfileService) Create(ctx context.Context, userID uuid.UUID, displayName string) (*models.ProProfile, error) {
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		return nil, apperror.New(apperror.ErrCodeValidation, "имя профиля не может быть пустым")
	}
	profile := &models.ProProfile{
		ID:          uuid.New(),
		UserID:      userID,
		DisplayName: displayName,
	}
	if err := s.profiles.Create(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

func (s *ProProfileService) GetByID(ctx context.Context, id uuid.UUID) (*models.ProProfile, error) {
	return s.profiles.GetByID(ctx, id)
}

func (s *ProProfileService) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.ProProfile, error) {
	return s.profiles.GetByUserID(ctx, userID)
}

// SetDestination сохраняет реквизиты выплат и сбрасывает их подтверждение:
// каждое изменение реквизитов проходит проверку заново.
func (s *ProProfileService) SetDestination(ctx context.Context, id uuid.UUID, destination string) (*models.ProProfile, error) {
	destination = strings.TrimSpace(destination)
	if destination == "" {
		return nil, apperror.New(apperror.ErrCodeValidation, "реквизиты выплат не могут быть пустыми")
	}
	if err := s.profiles.SetDestination(ctx, id, destination); err != nil {
		return nil, err
	}
	return s.profiles.GetByID(ctx, id)
}

// VerifyDestination помечает реквизиты подтверждёнными. Только админ.
func (s *ProProfileService) VerifyDestination(ctx context.Context, id uuid.UUID) (*models.ProProfile, error) {
	profile, err := s.profiles.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if profile.PayoutDestination == nil || *profile.PayoutDestination == "" {
		return nil, apperror.New(apperror.ErrCodeConflict, "нечего подтверждать: реквизиты не заданы")
	}
	if err := s.profiles.VerifyDestination(ctx, id); err != nil {
		return nil, err
	}
	return s.profiles.GetByID(ctx, id)
}
