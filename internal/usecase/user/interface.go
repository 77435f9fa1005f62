package user

import "context"

// UserUsecase defines the interface for user business logic operations.
type UserUsecase interface {
	ListUsers(ctx context.Context) ([]User, error)
	GetUser(ctx context.Context, id int64) (User, bool, error)
	CreateUser(ctx context.Context, in CreateUserRequest) (CreateUserResult, error)
	UpdateUser(ctx context.Context, in UpdateUserRequest) (Result, error)
	DeleteUser(ctx context.Context, id int64) (Result, error)
}

var _ UserUsecase = (*Usecase)(nil)
