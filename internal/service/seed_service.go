package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/noah-isme/appraisal-go-api/internal/dto"
	"github.com/noah-isme/appraisal-go-api/internal/models"
	"github.com/noah-isme/appraisal-go-api/internal/repository"
)

var (
	// ErrSeedDisabled indicates the seeding tools are disabled by configuration.
	ErrSeedDisabled = errors.New("seeding is disabled")
	// ErrSeedUnauthorized indicates the provided token is invalid.
	ErrSeedUnauthorized = errors.New("invalid seed token")
	// ErrSeedUnknownDepartment indicates a faculty row names a department that is not seeded.
	ErrSeedUnknownDepartment = errors.New("faculty references an unknown department")
)

// SeedService loads the faculty directory used for routing appraisals.
type SeedService interface {
	SeedDirectory(ctx context.Context, token string, req dto.DirectorySeedRequest) (dto.DirectorySeedResponse, error)
}

type seedService struct {
	repo      repository.FacultyRepository
	validator *validator.Validate
	enabled   bool
	token     string
	logger    zerolog.Logger
}

// NewSeedService constructs a seeding service.
func NewSeedService(repo repository.FacultyRepository, validate *validator.Validate, enabled bool, token string, logger zerolog.Logger) SeedService {
	return &seedService{
		repo:      repo,
		validator: validate,
		enabled:   enabled,
		token:     token,
		logger:    logger.With().Str("component", "seed_service").Logger(),
	}
}

// SeedDirectory upserts departments, then faculty, then links each department
// to its head by email.
func (s *seedService) SeedDirectory(ctx context.Context, token string, req dto.DirectorySeedRequest) (dto.DirectorySeedResponse, error) {
	if !s.enabled {
		return dto.DirectorySeedResponse{}, ErrSeedDisabled
	}
	if !s.validateToken(token) {
		return dto.DirectorySeedResponse{}, ErrSeedUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return dto.DirectorySeedResponse{}, err
	}

	departments := make([]models.Department, 0, len(req.Departments))
	names := make([]string, 0, len(req.Departments))
	for _, item := range req.Departments {
		name := strings.TrimSpace(item.Name)
		departments = append(departments, models.Department{Name: name})
		names = append(names, name)
	}
	for _, item := range req.Faculty {
		if name := strings.TrimSpace(item.Department); name != "" {
			names = append(names, name)
		}
	}

	var response dto.DirectorySeedResponse
	affected, err := s.repo.UpsertDepartments(ctx, departments)
	if err != nil {
		return dto.DirectorySeedResponse{}, err
	}
	response.Departments = affected

	stored, err := s.repo.FindDepartmentsByName(ctx, names)
	if err != nil {
		return dto.DirectorySeedResponse{}, err
	}
	departmentIDs := make(map[string]uint, len(stored))
	for _, department := range stored {
		departmentIDs[department.Name] = department.ID
	}

	faculty := make([]models.Faculty, 0, len(req.Faculty))
	for _, item := range req.Faculty {
		member := models.Faculty{
			Name:        strings.TrimSpace(item.Name),
			Email:       strings.ToLower(strings.TrimSpace(item.Email)),
			Designation: strings.TrimSpace(item.Designation),
			Role:        strings.ToLower(strings.TrimSpace(item.Role)),
		}
		if name := strings.TrimSpace(item.Department); name != "" {
			id, ok := departmentIDs[name]
			if !ok {
				return dto.DirectorySeedResponse{}, fmt.Errorf("%w: %s", ErrSeedUnknownDepartment, name)
			}
			member.DepartmentID = &id
		}
		faculty = append(faculty, member)
	}

	affected, err = s.repo.UpsertFaculty(ctx, faculty)
	if err != nil {
		return dto.DirectorySeedResponse{}, err
	}
	response.Faculty = affected

	if err := s.linkHeads(ctx, req.Departments); err != nil {
		return dto.DirectorySeedResponse{}, err
	}

	s.logger.Info().
		Int64("departments", response.Departments).
		Int64("faculty", response.Faculty).
		Msg("directory seeded")
	return response, nil
}

func (s *seedService) linkHeads(ctx context.Context, items []dto.SeedDepartment) error {
	emails := make([]string, 0, len(items))
	for _, item := range items {
		if email := strings.ToLower(strings.TrimSpace(item.HODEmail)); email != "" {
			emails = append(emails, email)
		}
	}
	if len(emails) == 0 {
		return nil
	}

	heads, err := s.repo.FindFacultyByEmail(ctx, emails)
	if err != nil {
		return err
	}
	byEmail := make(map[string]uint, len(heads))
	for _, head := range heads {
		byEmail[head.Email] = head.ID
	}

	linked := make([]models.Department, 0, len(items))
	for _, item := range items {
		id, ok := byEmail[strings.ToLower(strings.TrimSpace(item.HODEmail))]
		if !ok {
			continue
		}
		hodID := id
		linked = append(linked, models.Department{Name: strings.TrimSpace(item.Name), HODID: &hodID})
	}
	_, err = s.repo.UpsertDepartments(ctx, linked)
	return err
}

func (s *seedService) validateToken(token string) bool {
	expected := strings.TrimSpace(s.token)
	if expected == "" {
		return false
	}
	return subtleConstantTimeCompare(expected, strings.TrimSpace(token))
}

func subtleConstantTimeCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	mismatch := byte(0)
	for i := 0; i < len(a); i++ {
		mismatch |= a[i] ^ b[i]
	}
	return mismatch == 0
}
