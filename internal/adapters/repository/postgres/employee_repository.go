package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/ogurasousui/grpc-hr-clean-arch/internal/core/employee"
	pgdb "github.com/ogurasousui/grpc-hr-clean-arch/internal/platform/db/postgres"
	"github.com/shopspring/decimal"
)

const (
	employeeUniqueViolationCode = "23505"
	employeeCheckViolationCode  = "23514"

	// matriculeAllocationLockKey は採番直列化に使うアドバイザリロックのキーです。
	matriculeAllocationLockKey int64 = 350_001
)

const employeeColumns = `id, last_name, first_name, matricule, hire_date, salary::text, performance, part_time_ratio::text, created_at, updated_at`

// EmployeeRepository は PostgreSQL を利用した社員永続化の実装です。
type EmployeeRepository struct {
	pool pgdb.Queryer
}

// NewEmployeeRepository は EmployeeRepository を生成します。
func NewEmployeeRepository(pool pgdb.Queryer) *EmployeeRepository {
	return &EmployeeRepository{pool: pool}
}

// LockMatriculeAllocation はトランザクション終了まで保持されるアドバイザリロックを取得します。
func (r *EmployeeRepository) LockMatriculeAllocation(ctx context.Context) error {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	if _, err := exec.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, matriculeAllocationLockKey); err != nil {
		return fmt.Errorf("postgres: lock matricule allocation: %w", err)
	}
	return nil
}

// FindLastMatricule は最大の社員番号数値部を取得します。
func (r *EmployeeRepository) FindLastMatricule(ctx context.Context) (string, bool, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `SELECT MAX(SUBSTRING(matricule FROM 2)) FROM employees`)

	var last sql.NullString
	if err := row.Scan(&last); err != nil {
		return "", false, translateEmployeePgError(err)
	}
	if !last.Valid {
		return "", false, nil
	}
	return last.String, true, nil
}

// FindByMatricule は社員番号で社員を取得します。
func (r *EmployeeRepository) FindByMatricule(ctx context.Context, matricule string) (*employee.Employee, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        SELECT `+employeeColumns+`
          FROM employees
         WHERE matricule = $1
         LIMIT 1
    `, matricule)

	found, err := scanEmployee(row)
	if err != nil {
		return nil, translateEmployeePgError(err)
	}
	return found, nil
}

// FindByMatriculeForUpdate は社員番号で社員を取得し、トランザクション終了まで行ロックを保持します。
func (r *EmployeeRepository) FindByMatriculeForUpdate(ctx context.Context, matricule string) (*employee.Employee, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        SELECT `+employeeColumns+`
          FROM employees
         WHERE matricule = $1
         LIMIT 1
           FOR UPDATE
    `, matricule)

	found, err := scanEmployee(row)
	if err != nil {
		return nil, translateEmployeePgError(err)
	}
	return found, nil
}

// Save は社員を登録または更新します。
func (r *EmployeeRepository) Save(ctx context.Context, e *employee.Employee) (*employee.Employee, error) {
	if e.ID == "" {
		return r.insert(ctx, e)
	}
	return r.update(ctx, e)
}

func (r *EmployeeRepository) insert(ctx context.Context, e *employee.Employee) (*employee.Employee, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        INSERT INTO employees (last_name, first_name, matricule, hire_date, salary, performance, part_time_ratio, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5::numeric, $6, $7::numeric, $8, $9)
        RETURNING `+employeeColumns,
		e.LastName,
		e.FirstName,
		e.Matricule,
		nullableDate(e.HireDate),
		e.Salary.StringFixed(2),
		e.Performance,
		e.PartTimeRatio.String(),
		e.CreatedAt,
		e.UpdatedAt,
	)

	created, err := scanEmployee(row)
	if err != nil {
		return nil, translateEmployeePgError(err)
	}
	return created, nil
}

func (r *EmployeeRepository) update(ctx context.Context, e *employee.Employee) (*employee.Employee, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        UPDATE employees
           SET last_name = $1,
               first_name = $2,
               matricule = $3,
               hire_date = $4,
               salary = $5::numeric,
               performance = $6,
               part_time_ratio = $7::numeric,
               updated_at = $8
         WHERE id = $9
        RETURNING `+employeeColumns,
		e.LastName,
		e.FirstName,
		e.Matricule,
		nullableDate(e.HireDate),
		e.Salary.StringFixed(2),
		e.Performance,
		e.PartTimeRatio.String(),
		e.UpdatedAt,
		e.ID,
	)

	updated, err := scanEmployee(row)
	if err != nil {
		return nil, translateEmployeePgError(err)
	}
	return updated, nil
}

// DeleteAll は全社員を削除します。
func (r *EmployeeRepository) DeleteAll(ctx context.Context) error {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	if _, err := exec.Exec(ctx, `DELETE FROM employees`); err != nil {
		return translateEmployeePgError(err)
	}
	return nil
}

// AveragePerformance は社員番号が prefix で始まる社員の平均評価を返します。
func (r *EmployeeRepository) AveragePerformance(ctx context.Context, prefix string) (float64, bool, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `SELECT AVG(performance)::float8 FROM employees WHERE matricule LIKE $1 || '%'`, prefix)

	var avg sql.NullFloat64
	if err := row.Scan(&avg); err != nil {
		return 0, false, translateEmployeePgError(err)
	}
	if !avg.Valid {
		return 0, false, nil
	}
	return avg.Float64, true, nil
}

// List は社員の一覧を取得します。
func (r *EmployeeRepository) List(ctx context.Context, filter employee.ListEmployeesFilter) ([]*employee.Employee, string, error) {
	if filter.Limit <= 0 {
		return nil, "", employee.ErrInvalidPageSize
	}
	if filter.Offset < 0 {
		return nil, "", employee.ErrInvalidPageToken
	}

	limitWithBuffer := filter.Limit + 1

	args := make([]any, 0, 3)
	whereClause := ""
	if filter.MatriculePrefix != "" {
		args = append(args, filter.MatriculePrefix)
		whereClause = " WHERE matricule LIKE $" + strconv.Itoa(len(args)) + " || '%'"
	}

	limitPlaceholder := "$" + strconv.Itoa(len(args)+1)
	args = append(args, limitWithBuffer)
	offsetPlaceholder := "$" + strconv.Itoa(len(args)+1)
	args = append(args, filter.Offset)

	query := `
        SELECT ` + employeeColumns + `
          FROM employees` + whereClause + `
         ORDER BY matricule ASC
         LIMIT ` + limitPlaceholder + `
        OFFSET ` + offsetPlaceholder + `
    `

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, query, args...)
	if err != nil {
		return nil, "", translateEmployeePgError(err)
	}
	defer rows.Close()

	employees := make([]*employee.Employee, 0, filter.Limit)
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, "", translateEmployeePgError(err)
		}
		employees = append(employees, emp)
	}

	if err := rows.Err(); err != nil {
		return nil, "", translateEmployeePgError(err)
	}

	var nextToken string
	if len(employees) == limitWithBuffer {
		employees = employees[:filter.Limit]
		nextToken = strconv.Itoa(filter.Offset + filter.Limit)
	}

	return employees, nextToken, nil
}

func scanEmployee(row pgx.Row) (*employee.Employee, error) {
	var (
		id          string
		lastName    string
		firstName   string
		matricule   string
		hireDate    sql.NullTime
		salary      string
		performance int
		ratio       string
		createdAt   time.Time
		updatedAt   time.Time
	)

	if err := row.Scan(
		&id,
		&lastName,
		&firstName,
		&matricule,
		&hireDate,
		&salary,
		&performance,
		&ratio,
		&createdAt,
		&updatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, employee.ErrEmployeeNotFound
		}
		return nil, err
	}

	salaryValue, err := decimal.NewFromString(salary)
	if err != nil {
		return nil, fmt.Errorf("postgres: parse salary %q: %w", salary, err)
	}
	ratioValue, err := decimal.NewFromString(ratio)
	if err != nil {
		return nil, fmt.Errorf("postgres: parse part_time_ratio %q: %w", ratio, err)
	}

	var hirePtr *time.Time
	if hireDate.Valid {
		t := hireDate.Time.UTC()
		date := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		hirePtr = &date
	}

	return &employee.Employee{
		ID:            id,
		LastName:      lastName,
		FirstName:     firstName,
		Matricule:     matricule,
		HireDate:      hirePtr,
		Salary:        salaryValue,
		Performance:   performance,
		PartTimeRatio: ratioValue,
		CreatedAt:     createdAt,
		UpdatedAt:     updatedAt,
	}, nil
}

func translateEmployeePgError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return employee.ErrEmployeeNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case employeeUniqueViolationCode:
			return employee.ErrMatriculeAlreadyExists
		case employeeCheckViolationCode:
			switch pgErr.ConstraintName {
			case "employees_part_time_ratio_check":
				return employee.ErrInvalidPartTimeRatio
			case "employees_matricule_check":
				return employee.ErrInvalidMatricule
			default:
				return err
			}
		}
	}

	return err
}

func nullableDate(value *time.Time) any {
	if value == nil {
		return nil
	}
	return time.Date(value.Year(), value.Month(), value.Day(), 0, 0, 0, 0, time.UTC)
}
