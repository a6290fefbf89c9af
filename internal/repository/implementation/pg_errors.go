package implementation

import (
	"errors"

	"ai-chat-be/internal/pkg/apperror"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

// translateConstraintError converts a postgres constraint violation surfaced
// at write time into a domain error. Uniqueness and referential integrity
// are enforced by attempting the write, never by a pre-check at commit
// paths, so this is where the storage error becomes a domain one.
func translateConstraintError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case pgerrcode.UniqueViolation:
		switch pgErr.ConstraintName {
		case "uni_users_username":
			return apperror.Wrap(apperror.KindConflict, "username already exists", err)
		case "uni_users_email":
			return apperror.Wrap(apperror.KindConflict, "email already exists", err)
		}
		return apperror.Wrap(apperror.KindConflict, "resource already exists", err)

	case pgerrcode.ForeignKeyViolation:
		// An insert pointing at a parent a concurrent transaction just
		// deleted is reported the same way as a parent that never existed.
		switch pgErr.ConstraintName {
		case "fk_messages_chat":
			return apperror.Wrap(apperror.KindNotFound, "chat not found", err)
		case "fk_chats_user", "fk_user_refresh_tokens_user":
			return apperror.Wrap(apperror.KindNotFound, "user not found", err)
		}
		return apperror.Wrap(apperror.KindConflict, "resource is still referenced", err)
	}
	return err
}
