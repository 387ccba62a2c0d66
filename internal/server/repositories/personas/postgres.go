package personas

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/acedema/acedema-back/internal/common"
	"github.com/acedema/acedema-back/internal/dbx"
	"github.com/acedema/acedema-back/internal/server/models"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

const emailUniqueIndex = "personas_correo_lower_key"

const selectPersona = `SELECT p.id_persona, p.num_cedula, p.fecha_nacimiento, p.primer_nombre, p.segundo_nombre,
		p.primer_apellido, p.segundo_apellido, p.correo, COALESCE(p.contrasena_hash, ''), p.direccion,
		p.telefono_1, p.telefono_2, p.fecha_registro, p.id_rol, COALESCE(r.nombre, ''), p.puesto,
		p.cedula_responsable, p.version_credencial
	FROM personas p
	LEFT JOIN roles r ON r.id_rol = p.id_rol
	`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) FindByEmail(ctx context.Context, email string) (*models.Person, error) {
	row := r.db.QueryRowContext(ctx, selectPersona+`WHERE LOWER(p.correo) = LOWER($1)`, email)
	return scanPerson(row)
}

func (r *PostgresRepository) FindByID(ctx context.Context, id int64) (*models.Person, error) {
	row := r.db.QueryRowContext(ctx, selectPersona+`WHERE p.id_persona = $1`, id)
	return scanPerson(row)
}

func (r *PostgresRepository) Create(ctx context.Context, p *models.Person) (*models.Person, error) {
	query :=
		`INSERT INTO personas (num_cedula, fecha_nacimiento, primer_nombre, segundo_nombre, primer_apellido,
			segundo_apellido, correo, contrasena_hash, direccion, telefono_1, telefono_2, id_rol, puesto,
			cedula_responsable)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		 RETURNING id_persona, fecha_registro`

	err := r.db.QueryRowContext(ctx, query,
		p.Cedula, nullTime(p.BirthDate), p.FirstName, p.MiddleName, p.FirstSurname,
		p.SecondSurname, p.Email, nullString(p.PasswordHash), p.Address, p.Phone1, p.Phone2, p.RoleID, p.Position,
		nullInt64(p.GuardianCedula),
	).Scan(&p.ID, &p.RegisteredAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation && pgErr.ConstraintName == emailUniqueIndex {
			return nil, common.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return p, nil
}

func (r *PostgresRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM personas WHERE LOWER(correo) = LOWER($1))`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, email).Scan(&exists); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return exists, nil
}

func (r *PostgresRepository) CompareAndSetPassword(ctx context.Context, email, expectedHash, newHash string) (int64, error) {
	query :=
		`UPDATE personas
		 SET contrasena_hash = $3, version_credencial = version_credencial + 1
		 WHERE LOWER(correo) = LOWER($1) AND contrasena_hash = $2`

	return r.exec(ctx, query, email, expectedHash, newHash)
}

func (r *PostgresRepository) RehashPassword(ctx context.Context, email, expectedHash, newHash string) (int64, error) {
	query :=
		`UPDATE personas
		 SET contrasena_hash = $3
		 WHERE LOWER(correo) = LOWER($1) AND contrasena_hash = $2`

	return r.exec(ctx, query, email, expectedHash, newHash)
}

func (r *PostgresRepository) SetPassword(ctx context.Context, email, newHash string) (int64, error) {
	query :=
		`UPDATE personas
		 SET contrasena_hash = $2, version_credencial = version_credencial + 1
		 WHERE LOWER(correo) = LOWER($1)`

	return r.exec(ctx, query, email, newHash)
}

func (r *PostgresRepository) SetPasswordIfVersion(ctx context.Context, email, newHash string, version int64) (int64, error) {
	query :=
		`UPDATE personas
		 SET contrasena_hash = $2, version_credencial = version_credencial + 1
		 WHERE LOWER(correo) = LOWER($1) AND version_credencial = $3`

	return r.exec(ctx, query, email, newHash, version)
}

func (r *PostgresRepository) UpdateProfile(ctx context.Context, id int64, upd *models.ProfileUpdate) error {
	query :=
		`UPDATE personas
		 SET fecha_nacimiento = $2, primer_nombre = $3, segundo_nombre = $4, primer_apellido = $5,
			segundo_apellido = $6, direccion = $7, telefono_1 = $8, telefono_2 = $9
		 WHERE id_persona = $1`

	n, err := r.exec(ctx, query, id, nullTime(upd.BirthDate), upd.FirstName, upd.MiddleName,
		upd.FirstSurname, upd.SecondSurname, upd.Address, upd.Phone1, upd.Phone2)
	if err != nil {
		return err
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) exec(ctx context.Context, query string, args ...any) (int64, error) {
	n, err := dbx.RowsAffected(r.db.ExecContext(ctx, query, args...))
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func scanPerson(row *sql.Row) (*models.Person, error) {
	var (
		p         models.Person
		birthDate sql.NullTime
		guardian  sql.NullInt64
	)

	err := row.Scan(&p.ID, &p.Cedula, &birthDate, &p.FirstName, &p.MiddleName,
		&p.FirstSurname, &p.SecondSurname, &p.Email, &p.PasswordHash, &p.Address,
		&p.Phone1, &p.Phone2, &p.RegisteredAt, &p.RoleID, &p.RoleName, &p.Position,
		&guardian, &p.CredentialVersion)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	if birthDate.Valid {
		t := birthDate.Time
		p.BirthDate = &t
	}
	if guardian.Valid {
		g := guardian.Int64
		p.GuardianCedula = &g
	}
	return &p, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}
