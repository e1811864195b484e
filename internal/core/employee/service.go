package employee

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Clock は現在時刻を提供します。
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now().UTC()
}

// TransactionManager はトランザクション制御の抽象化です。
type TransactionManager interface {
	WithinReadOnly(ctx context.Context, fn func(context.Context) error) error
	WithinReadWrite(ctx context.Context, fn func(context.Context) error) error
}

type noopTransactionManager struct{}

func (noopTransactionManager) WithinReadOnly(ctx context.Context, fn func(context.Context) error) error {
	if fn == nil {
		return nil
	}
	return fn(ctx)
}

func (noopTransactionManager) WithinReadWrite(ctx context.Context, fn func(context.Context) error) error {
	if fn == nil {
		return nil
	}
	return fn(ctx)
}

const (
	defaultListPageSize = 50
	maxListPageSize     = 200
)

// Service は社員に関するユースケースをまとめます。
type Service struct {
	repo   Repository
	clock  Clock
	tx     TransactionManager
	logger *zap.Logger
}

// UseCase は社員ユースケースの公開インターフェースです。
type UseCase interface {
	HireEmployee(ctx context.Context, in HireEmployeeInput) (*Employee, error)
	GetEmployee(ctx context.Context, in GetEmployeeInput) (*Snapshot, error)
	ListEmployees(ctx context.Context, in ListEmployeesInput) (*ListEmployeesResult, error)
	ComputeSalesPerformance(ctx context.Context, in ComputeSalesPerformanceInput) (*Employee, error)
	RaiseSalary(ctx context.Context, in RaiseSalaryInput) (*Employee, error)
}

// NewService は Service を生成します。
func NewService(repo Repository, clock Clock, tx TransactionManager, logger *zap.Logger) *Service {
	if clock == nil {
		clock = realClock{}
	}
	if tx == nil {
		tx = noopTransactionManager{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, clock: clock, tx: tx, logger: logger}
}

// HireEmployeeInput は採用時の入力です。
type HireEmployeeInput struct {
	LastName       string
	FirstName      string
	Position       Position
	EducationLevel EducationLevel
	PartTimeRatio  decimal.Decimal
}

// GetEmployeeInput は社員取得時の入力です。
type GetEmployeeInput struct {
	Matricule string
}

// ListEmployeesInput は一覧取得時の入力です。
type ListEmployeesInput struct {
	MatriculePrefix string
	PageSize        int
	PageToken       string
}

// ListEmployeesResult は一覧取得結果を表します。
type ListEmployeesResult struct {
	Employees     []*Employee
	NextPageToken string
}

// ComputeSalesPerformanceInput は営業評価の再計算に使う入力です。
type ComputeSalesPerformanceInput struct {
	Matricule string
	Revenue   int64
	Target    int64
}

// RaiseSalaryInput は昇給時の入力です。
type RaiseSalaryInput struct {
	Matricule string
	Percent   decimal.Decimal
}

// HireEmployee は社員番号を採番し、初任給を算出して新しい社員を登録します。
func (s *Service) HireEmployee(ctx context.Context, in HireEmployeeInput) (*Employee, error) {
	lastName := strings.TrimSpace(in.LastName)
	if lastName == "" {
		return nil, ErrInvalidLastName
	}
	firstName := strings.TrimSpace(in.FirstName)
	if firstName == "" {
		return nil, ErrInvalidFirstName
	}

	position, err := normalizePosition(in.Position)
	if err != nil {
		return nil, err
	}

	level, err := normalizeEducationLevel(in.EducationLevel)
	if err != nil {
		return nil, err
	}

	salary, err := StartingSalary(level, in.PartTimeRatio)
	if err != nil {
		return nil, err
	}

	var hired *Employee
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		if err := s.repo.LockMatriculeAllocation(txCtx); err != nil {
			return err
		}

		last, found, err := s.repo.FindLastMatricule(txCtx)
		if err != nil {
			return err
		}

		matricule, err := NextMatricule(last, found, position.Prefix())
		if err != nil {
			return err
		}

		if err := s.ensureMatriculeNotExists(txCtx, matricule); err != nil {
			return err
		}

		now := s.clock.Now()
		hireDate := truncateDate(now)
		emp := &Employee{
			LastName:      lastName,
			FirstName:     firstName,
			Matricule:     matricule,
			HireDate:      &hireDate,
			Salary:        salary,
			Performance:   PerformanceBase,
			PartTimeRatio: in.PartTimeRatio,
			CreatedAt:     now,
			UpdatedAt:     now,
		}

		result, err := s.repo.Save(txCtx, emp)
		if err != nil {
			return err
		}

		hired = result
		return nil
	}); err != nil {
		s.logger.Warn("hire employee failed",
			zap.String("position", string(position)),
			zap.Error(err),
		)
		return nil, err
	}

	s.logger.Info("employee hired",
		zap.String("matricule", hired.Matricule),
		zap.String("salary", hired.Salary.StringFixed(2)),
	)
	return hired, nil
}

// GetEmployee は社員番号で社員を取得し、現時点の勤続年数と賞与を添えて返します。
func (s *Service) GetEmployee(ctx context.Context, in GetEmployeeInput) (*Snapshot, error) {
	matricule, err := ParseMatricule(in.Matricule)
	if err != nil {
		return nil, err
	}

	var found *Employee
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		emp, err := s.repo.FindByMatricule(txCtx, matricule)
		if err != nil {
			return err
		}
		found = emp
		return nil
	}); err != nil {
		return nil, err
	}

	return found.Snapshot(s.clock.Now()), nil
}

// ListEmployees は社員の一覧を取得します。
func (s *Service) ListEmployees(ctx context.Context, in ListEmployeesInput) (*ListEmployeesResult, error) {
	limit, err := normalizePageSize(in.PageSize)
	if err != nil {
		return nil, err
	}

	offset, err := parsePageToken(in.PageToken)
	if err != nil {
		return nil, err
	}

	prefix, err := ParseMatriculePrefix(in.MatriculePrefix)
	if err != nil {
		return nil, err
	}

	var (
		employees []*Employee
		nextToken string
	)

	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		resultEmployees, token, err := s.repo.List(txCtx, ListEmployeesFilter{
			MatriculePrefix: prefix,
			Limit:           limit,
			Offset:          offset,
		})
		if err != nil {
			return err
		}
		employees = resultEmployees
		nextToken = token
		return nil
	}); err != nil {
		return nil, err
	}

	return &ListEmployeesResult{Employees: employees, NextPageToken: nextToken}, nil
}

// ComputeSalesPerformance は売上実績と目標から営業社員の評価を再計算して保存します。
func (s *Service) ComputeSalesPerformance(ctx context.Context, in ComputeSalesPerformanceInput) (*Employee, error) {
	if in.Revenue < 0 {
		return nil, ErrInvalidRevenue
	}
	if in.Target < 0 {
		return nil, ErrInvalidTarget
	}

	matricule, err := ParseMatricule(in.Matricule)
	if err != nil {
		return nil, err
	}
	if !strings.HasPrefix(matricule, PrefixCommercial) {
		return nil, ErrNotCommercial
	}

	var updated *Employee
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		emp, err := s.repo.FindByMatriculeForUpdate(txCtx, matricule)
		if err != nil {
			if errors.Is(err, ErrEmployeeNotFound) {
				return fmt.Errorf("matricule %s: %w", matricule, err)
			}
			return err
		}

		performance := salesPerformance(emp.EffectivePerformance(), in.Revenue, in.Target)

		avg, found, err := s.repo.AveragePerformance(txCtx, PrefixCommercial)
		if err != nil {
			return err
		}
		if found && float64(performance) > avg {
			performance++
		}

		emp.Performance = performance
		emp.UpdatedAt = s.clock.Now()

		result, err := s.repo.Save(txCtx, emp)
		if err != nil {
			return err
		}
		updated = result
		return nil
	}); err != nil {
		return nil, err
	}

	s.logger.Info("sales performance updated",
		zap.String("matricule", updated.Matricule),
		zap.Int("performance", updated.Performance),
	)
	return updated, nil
}

// RaiseSalary は社員の月給を指定率だけ引き上げます。
func (s *Service) RaiseSalary(ctx context.Context, in RaiseSalaryInput) (*Employee, error) {
	matricule, err := ParseMatricule(in.Matricule)
	if err != nil {
		return nil, err
	}
	if in.Percent.IsNegative() {
		return nil, ErrInvalidRaise
	}

	var updated *Employee
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		emp, err := s.repo.FindByMatriculeForUpdate(txCtx, matricule)
		if err != nil {
			return err
		}
		if err := emp.RaiseSalary(in.Percent); err != nil {
			return err
		}
		emp.UpdatedAt = s.clock.Now()

		result, err := s.repo.Save(txCtx, emp)
		if err != nil {
			return err
		}
		updated = result
		return nil
	}); err != nil {
		return nil, err
	}

	return updated, nil
}

func (s *Service) ensureMatriculeNotExists(ctx context.Context, matricule string) error {
	emp, err := s.repo.FindByMatriculeForUpdate(ctx, matricule)
	if err != nil && !errors.Is(err, ErrEmployeeNotFound) {
		return err
	}
	if emp != nil {
		return fmt.Errorf("matricule %s: %w", matricule, ErrMatriculeAlreadyExists)
	}
	return nil
}

// salesPerformance は売上達成率の区分から新しい評価を決めます。
func salesPerformance(current int, revenue, target int64) int {
	r := decimal.NewFromInt(revenue)
	t := decimal.NewFromInt(target)
	low := t.Mul(salesLowerBound)
	onTargetLow := t.Mul(salesOnTargetLower)
	onTargetHigh := t.Mul(salesOnTargetUpper)
	high := t.Mul(salesUpperBound)

	switch {
	case r.GreaterThanOrEqual(low) && r.LessThan(onTargetLow):
		return max(PerformanceBase, current-2)
	case r.GreaterThanOrEqual(onTargetLow) && r.LessThanOrEqual(onTargetHigh):
		return max(PerformanceBase, current)
	case r.GreaterThan(onTargetHigh) && r.LessThanOrEqual(high):
		return current + 1
	case r.GreaterThan(high):
		return current + 4
	default:
		return PerformanceBase
	}
}

func normalizePageSize(pageSize int) (int, error) {
	if pageSize <= 0 {
		return defaultListPageSize, nil
	}
	if pageSize > maxListPageSize {
		return 0, ErrInvalidPageSize
	}
	return pageSize, nil
}

func parsePageToken(token string) (int, error) {
	if strings.TrimSpace(token) == "" {
		return 0, nil
	}

	offset, err := strconv.Atoi(token)
	if err != nil || offset < 0 || offset > math.MaxInt32 {
		return 0, ErrInvalidPageToken
	}

	return offset, nil
}
