package location

import (
	"context"
	"strings"

	"github.com/MrJamesThe3rd/photobox/internal/apperror"
)

const (
	maxMachineCodeLen = 50
	maxNameLen        = 100
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=location
type Repository interface {
	GetLocation(ctx context.Context, id int64) (*Location, error)
	ListLocations(ctx context.Context, filter ListFilter) ([]*Location, error)
	CreateLocation(ctx context.Context, loc *Location) error
	UpdateLocation(ctx context.Context, loc *Location) error
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

type CreateParams struct {
	MachineCode string
	Name        string
	Address     *string
}

type UpdateParams struct {
	Name     *string
	Address  *string
	IsActive *bool
}

type ListFilter struct {
	IsActive *bool
	Search   string
}

func (s *Service) Get(ctx context.Context, id int64) (*Location, error) {
	return s.repo.GetLocation(ctx, id)
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Location, error) {
	return s.repo.ListLocations(ctx, filter)
}

func (s *Service) Create(ctx context.Context, params CreateParams) (*Location, error) {
	code := strings.TrimSpace(params.MachineCode)
	name := strings.TrimSpace(params.Name)

	if err := validate(code, name); err != nil {
		return nil, err
	}

	loc := &Location{
		MachineCode: code,
		Name:        name,
		Address:     params.Address,
		IsActive:    true,
	}
	if err := s.repo.CreateLocation(ctx, loc); err != nil {
		return nil, err
	}

	return loc, nil
}

func (s *Service) Update(ctx context.Context, id int64, params UpdateParams) (*Location, error) {
	loc, err := s.repo.GetLocation(ctx, id)
	if err != nil {
		return nil, err
	}

	if params.Name != nil {
		name := strings.TrimSpace(*params.Name)
		if name == "" || len(name) > maxNameLen {
			return nil, apperror.BadRequest("name must be between 1 and 100 characters", nil)
		}

		loc.Name = name
	}

	if params.Address != nil {
		loc.Address = params.Address
	}

	if params.IsActive != nil {
		loc.IsActive = *params.IsActive
	}

	if err := s.repo.UpdateLocation(ctx, loc); err != nil {
		return nil, err
	}

	return loc, nil
}

func validate(code, name string) error {
	if code == "" || len(code) > maxMachineCodeLen {
		return apperror.BadRequest("machine_code must be between 1 and 50 characters", nil)
	}

	if name == "" || len(name) > maxNameLen {
		return apperror.BadRequest("name must be between 1 and 100 characters", nil)
	}

	return nil
}
