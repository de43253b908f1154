package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"crewbase.org/internal/directory"
)

const accountColumns = `
	a.id, a.email, a.credential_hash, a.role, a.created_at, a.updated_at,
	p.first_name, p.middle_name, p.last_name, p.handle, p.avatar_url, p.bio`

func (s *Store) Create(ctx context.Context, na directory.NewAccount) (directory.Account, error) {
	email := directory.NormalizeEmail(na.Email)

	var hash string
	if na.Password != "" {
		var err error
		hash, err = s.hasher.Hash(na.Password)
		if err != nil {
			return directory.Account{}, err
		}
	}

	id := uuid.NewString()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return directory.Account{}, storageError(err)
	}
	defer func() { _ = tx.Rollback() }()

	acc := directory.Account{ID: id, Email: email, CredentialHash: hash, Role: na.Role, Profile: na.Profile}
	err = tx.QueryRowContext(ctx, `
		insert into accounts (id, email, credential_hash, role)
		values ($1, $2, $3, $4)
		returning created_at, updated_at
	`, id, email, hash, na.Role.String()).Scan(&acc.CreatedAt, &acc.UpdatedAt)
	if err != nil {
		if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrUniqueViolation {
			return directory.Account{}, directory.ErrAlreadyExists
		}
		return directory.Account{}, storageError(err)
	}

	// Every account gets a profile row, even an empty one.
	p := na.Profile
	if _, err := tx.ExecContext(ctx, `
		insert into profiles (id, account_id, first_name, middle_name, last_name, handle, avatar_url, bio)
		values ($1, $2, $3, $4, $5, $6, $7, $8)
	`, uuid.NewString(), id,
		nullIfNil(p.FirstName), nullIfNil(p.MiddleName), nullIfNil(p.LastName),
		nullIfNil(p.Handle), nullIfNil(p.AvatarURL), nullIfNil(p.Bio)); err != nil {
		if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrUniqueViolation {
			return directory.Account{}, directory.ErrAlreadyExists
		}
		return directory.Account{}, storageError(err)
	}

	if err := tx.Commit(); err != nil {
		return directory.Account{}, storageError(err)
	}
	return acc, nil
}

func (s *Store) Get(ctx context.Context, id string) (directory.Account, error) {
	row := s.db.QueryRowContext(ctx, `
		select`+accountColumns+`
		from accounts a
		left join profiles p on p.account_id = a.id
		where a.id = $1
	`, id)
	return scanAccount(row)
}

func (s *Store) FindByEmail(ctx context.Context, email string) (directory.Account, error) {
	row := s.db.QueryRowContext(ctx, `
		select`+accountColumns+`
		from accounts a
		left join profiles p on p.account_id = a.id
		where a.email = $1
	`, directory.NormalizeEmail(email))
	return scanAccount(row)
}

func (s *Store) List(ctx context.Context, f directory.Filter) ([]directory.Account, error) {
	where, args := filterClauses(f)
	query := `
		select` + accountColumns + `
		from accounts a
		left join profiles p on p.account_id = a.id` + where + fmt.Sprintf(`
		order by a.created_at desc, a.id
		limit $%d offset $%d`, len(args)+1, len(args)+2)
	args = append(args, f.PerPage, f.Offset())

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storageError(err)
	}
	defer rows.Close()

	accounts := []directory.Account{}
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, acc)
	}
	if err := rows.Err(); err != nil {
		return nil, storageError(err)
	}
	return accounts, nil
}

func (s *Store) Total(ctx context.Context, f directory.Filter) (int, error) {
	where, args := filterClauses(f)
	query := `
		select count(*)
		from accounts a
		left join profiles p on p.account_id = a.id` + where

	var total int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		return 0, storageError(err)
	}
	return total, nil
}

// filterClauses builds the WHERE fragment shared by List and Total.
// Role and search conditions combine with AND.
func filterClauses(f directory.Filter) (string, []any) {
	var (
		conds []string
		args  []any
		idx   = 1
	)
	if f.Role != nil {
		conds = append(conds, fmt.Sprintf("a.role = $%d", idx))
		args = append(args, f.Role.String())
		idx++
	}
	if f.Search != nil {
		conds = append(conds, fmt.Sprintf(
			"(a.email ilike $%d or p.handle ilike $%d or p.first_name ilike $%d or p.last_name ilike $%d)",
			idx, idx, idx, idx))
		args = append(args, "%"+*f.Search+"%")
		idx++
	}
	if len(conds) == 0 {
		return "", nil
	}
	return "\n\t\twhere " + strings.Join(conds, " and "), args
}

func (s *Store) Update(ctx context.Context, id string, upd directory.AccountUpdate) (directory.Account, error) {
	var hash *string
	if upd.Password != nil {
		h, err := s.hasher.Hash(*upd.Password)
		if err != nil {
			return directory.Account{}, err
		}
		hash = &h
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return directory.Account{}, storageError(err)
	}
	defer func() { _ = tx.Rollback() }()

	var (
		sets []string
		args []any
		idx  = 1
	)
	if upd.Email != nil {
		sets = append(sets, fmt.Sprintf("email = $%d", idx))
		args = append(args, directory.NormalizeEmail(*upd.Email))
		idx++
	}
	if hash != nil {
		sets = append(sets, fmt.Sprintf("credential_hash = $%d", idx))
		args = append(args, *hash)
		idx++
	}
	if upd.Role != nil {
		sets = append(sets, fmt.Sprintf("role = $%d", idx))
		args = append(args, upd.Role.String())
		idx++
	}
	// updated_at always advances, profile-only changes included
	sets = append(sets, "updated_at = now()")
	args = append(args, id)
	res, err := tx.ExecContext(ctx,
		fmt.Sprintf(`update accounts set %s where id = $%d`, strings.Join(sets, ", "), idx),
		args...)
	if err != nil {
		if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrUniqueViolation {
			return directory.Account{}, directory.ErrAlreadyExists
		}
		return directory.Account{}, storageError(err)
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return directory.Account{}, storageError(err)
	}
	if aff == 0 {
		return directory.Account{}, directory.ErrNotFound
	}

	if upd.Profile != nil {
		var (
			psets []string
			pargs []any
			pidx  = 1
		)
		fields := []struct {
			column string
			value  *string
		}{
			{"first_name", upd.Profile.FirstName},
			{"middle_name", upd.Profile.MiddleName},
			{"last_name", upd.Profile.LastName},
			{"handle", upd.Profile.Handle},
			{"avatar_url", upd.Profile.AvatarURL},
			{"bio", upd.Profile.Bio},
		}
		for _, f := range fields {
			if f.value != nil {
				psets = append(psets, fmt.Sprintf("%s = $%d", f.column, pidx))
				pargs = append(pargs, *f.value)
				pidx++
			}
		}
		if len(psets) > 0 {
			psets = append(psets, "updated_at = now()")
			pargs = append(pargs, id)
			if _, err := tx.ExecContext(ctx,
				fmt.Sprintf(`update profiles set %s where account_id = $%d`, strings.Join(psets, ", "), pidx),
				pargs...); err != nil {
				return directory.Account{}, storageError(err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return directory.Account{}, storageError(err)
	}
	return s.Get(ctx, id)
}

// Delete removes the account and returns its last state. Read and delete
// share one transaction so the returned record is the one removed.
func (s *Store) Delete(ctx context.Context, id string) (directory.Account, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return directory.Account{}, storageError(err)
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRowContext(ctx, `
		select`+accountColumns+`
		from accounts a
		left join profiles p on p.account_id = a.id
		where a.id = $1
	`, id)
	acc, err := scanAccount(row)
	if err != nil {
		return directory.Account{}, err
	}

	// profile rows go with the account via on delete cascade
	if _, err := tx.ExecContext(ctx, `delete from accounts where id = $1`, id); err != nil {
		return directory.Account{}, storageError(err)
	}
	if err := tx.Commit(); err != nil {
		return directory.Account{}, storageError(err)
	}
	return acc, nil
}

func (s *Store) VerifyCredential(ctx context.Context, email, password string) (directory.Account, bool, error) {
	acc, err := s.FindByEmail(ctx, email)
	if err != nil {
		return directory.Account{}, false, err
	}
	if acc.CredentialHash == "" {
		return acc, false, nil
	}
	ok, err := s.hasher.Verify(password, acc.CredentialHash)
	if err != nil {
		return directory.Account{}, false, err
	}
	return acc, ok, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (directory.Account, error) {
	var (
		acc                             directory.Account
		role                            string
		fn, mn, ln, handle, avatar, bio sql.NullString
	)
	err := row.Scan(&acc.ID, &acc.Email, &acc.CredentialHash, &role, &acc.CreatedAt, &acc.UpdatedAt,
		&fn, &mn, &ln, &handle, &avatar, &bio)
	if errors.Is(err, sql.ErrNoRows) {
		return directory.Account{}, directory.ErrNotFound
	}
	if err != nil {
		return directory.Account{}, storageError(err)
	}
	acc.Role = directory.ParseRoleOrDefault(role)
	acc.Profile = directory.Profile{
		FirstName:  nullableString(fn),
		MiddleName: nullableString(mn),
		LastName:   nullableString(ln),
		Handle:     nullableString(handle),
		AvatarURL:  nullableString(avatar),
		Bio:        nullableString(bio),
	}
	return acc, nil
}

func nullableString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}
