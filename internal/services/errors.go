package services

import (
	"context"
	"errors"
)

var (
	ErrGroupNotFound          = errors.New("group not found")
	ErrNotGroupCreator        = errors.New("only the group creator can do this")
	ErrPersonalGroupImmutable = errors.New("the personal group cannot be changed")
	ErrNotMember              = errors.New("user is not a member of the group")

	ErrTransactionNotFound   = errors.New("transaction not found")
	ErrNotTransactionCreator = errors.New("only the creator can delete a transaction")

	ErrInvitationNotFound = errors.New("invitation not found")
	ErrInvitationExpired  = errors.New("invitation has expired")
	ErrInvitationUsed     = errors.New("invitation was already used")
	ErrAlreadyMember      = errors.New("user is already a member of the group")
)

// Transactor runs fn inside one database transaction carried by ctx.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
