package application

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	admindomain "github.com/sngm3741/bizsurvey-services/api/internal/admin/domain"
)

type userService struct {
	repo   UserRepository
	hasher PasswordHasher
	now    func() time.Time
}

func NewUserService(repo UserRepository, hasher PasswordHasher) UserService {
	return &userService{repo: repo, hasher: hasher, now: time.Now}
}

func (s *userService) List(ctx context.Context) ([]admindomain.User, error) {
	users, err := s.repo.Find(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(users, func(i, j int) bool {
		return users[i].Email < users[j].Email
	})
	return users, nil
}

func (s *userService) Create(ctx context.Context, cmd CreateUserCommand) (*admindomain.User, error) {
	email, err := admindomain.NewEmail(cmd.Email)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", ErrInvalidInput)
	}
	name := strings.TrimSpace(cmd.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	role, err := admindomain.NewRole(cmd.Role)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	password, err := admindomain.NewPassword(cmd.Password)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	hash, err := s.hasher.Hash(password.String())
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.now().UTC()
	user := &admindomain.User{
		Email:        email,
		Name:         name,
		PasswordHash: hash,
		Role:         role,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *userService) Update(ctx context.Context, actorID, id string, cmd UpdateUserCommand) (*admindomain.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	self := actorID != "" && actorID == user.ID
	changed := false

	if cmd.Name != nil {
		name := strings.TrimSpace(*cmd.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: name must not be empty", ErrInvalidInput)
		}
		user.Name = name
		changed = true
	}
	if cmd.Role != nil {
		role, err := admindomain.NewRole(*cmd.Role)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		if self && !role.Allows(user.Role) {
			return nil, ErrSelfLockout
		}
		user.Role = role
		changed = true
	}
	if cmd.Active != nil {
		if self && !*cmd.Active {
			return nil, ErrSelfLockout
		}
		user.Active = *cmd.Active
		changed = true
	}
	if cmd.Password != nil {
		password, err := admindomain.NewPassword(*cmd.Password)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		hash, err := s.hasher.Hash(password.String())
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		user.PasswordHash = hash
		changed = true
	}
	if !changed {
		return nil, fmt.Errorf("%w: at least one field is required", ErrInvalidInput)
	}

	user.UpdatedAt = s.now().UTC()
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}
