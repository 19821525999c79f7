package transferful

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type CreateUserReq struct {
	Name        string     `validate:"required"`
	Address     string     `validate:"required"`
	CountryCode string     `validate:"required,iso3166_1_alpha2"`
	Type        HolderType `validate:"required,oneof=Personal Business"`
}

// UpdateUserReq carries a partial update; nil fields keep their current
// value. A supplied country code is revalidated with the creation rule.
type UpdateUserReq struct {
	Name        *string     `validate:"omitempty,min=1"`
	Address     *string     `validate:"omitempty,min=1"`
	CountryCode *string     `validate:"omitempty,iso3166_1_alpha2"`
	Type        *HolderType `validate:"omitempty,oneof=Personal Business"`
}

type UserService interface {
	CreateUser(req CreateUserReq) (snowflake.ID, error)
	GetUser(id snowflake.ID) (*User, error)
	UpdateUser(id snowflake.ID, req UpdateUserReq) (*User, error)
	DeleteUser(id snowflake.ID) error
}

func NewUserService(store Store, node *snowflake.Node) *userService {
	return &userService{
		store: store,
		node:  node,
	}
}

type userService struct {
	store Store
	node  *snowflake.Node
}

var (
	_ UserService = (*userService)(nil)
)

func (s *userService) CreateUser(req CreateUserReq) (snowflake.ID, error) {
	if err := validateReq(req); err != nil {
		return 0, err
	}

	now := time.Now().UTC()
	user := User{
		ID:            s.node.Generate(),
		CreatedOn:     now,
		UpdatedOn:     now,
		Name:          req.Name,
		Address:       req.Address,
		CountryCode:   req.CountryCode,
		Type:          req.Type,
		OwnedAccounts: []snowflake.ID{},
	}
	s.store.PutUser(&user)
	return user.ID, nil
}

func (s *userService) GetUser(id snowflake.ID) (*User, error) {
	return s.store.GetUser(id)
}

// UpdateUser applies the non-nil fields of req and advances UpdatedOn,
// whether or not any value actually changed.
func (s *userService) UpdateUser(id snowflake.ID, req UpdateUserReq) (*User, error) {
	var updated *User
	err := s.store.UpdateUser(id, func(u *User) error {
		if err := validateReq(req); err != nil {
			return err
		}
		if req.Name != nil {
			u.Name = *req.Name
		}
		if req.Address != nil {
			u.Address = *req.Address
		}
		if req.CountryCode != nil {
			u.CountryCode = *req.CountryCode
		}
		if req.Type != nil {
			u.Type = *req.Type
		}
		u.UpdatedOn = time.Now().UTC()
		updated = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *userService) DeleteUser(id snowflake.ID) error {
	return s.store.RemoveUserIf(id, func(u *User) error {
		if len(u.OwnedAccounts) > 0 {
			return ErrConflict{Reason: "user has linked accounts"}
		}
		return nil
	})
}
