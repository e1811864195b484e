package employee

import (
	"time"

	"github.com/shopspring/decimal"
)

// Employee は社員エンティティです。
type Employee struct {
	ID            string
	LastName      string
	FirstName     string
	Matricule     string
	HireDate      *time.Time
	Salary        decimal.Decimal
	Performance   int
	PartTimeRatio decimal.Decimal
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Snapshot は基準日時点で算出した社員の派生値です。
type Snapshot struct {
	Employee       *Employee
	SeniorityYears int
	AnnualBonus    decimal.Decimal
}

// Category は社員番号の先頭文字 (職種区分) を返します。社員番号が無い場合は空文字です。
func (e *Employee) Category() string {
	if e == nil || e.Matricule == "" {
		return ""
	}
	return e.Matricule[:1]
}

// EffectivePerformance は未設定の評価を基本評価として扱った値を返します。
func (e *Employee) EffectivePerformance() int {
	if e.Performance <= 0 {
		return PerformanceBase
	}
	return e.Performance
}

// SeniorityYears は today 時点の勤続年数 (満年数) を返します。
func (e *Employee) SeniorityYears(today time.Time) int {
	if e == nil || e.HireDate == nil {
		return 0
	}

	hired := truncateDate(*e.HireDate)
	now := truncateDate(today)
	if !hired.Before(now) {
		return 0
	}

	years := now.Year() - hired.Year()
	if now.Month() < hired.Month() || (now.Month() == hired.Month() && now.Day() < hired.Day()) {
		years--
	}
	if years < 0 {
		return 0
	}
	return years
}

// AnnualBonus は today 時点の年間賞与を算出します。
func (e *Employee) AnnualBonus(today time.Time) decimal.Decimal {
	seniority := decimal.NewFromInt(int64(e.SeniorityYears(today))).Mul(seniorityBonusPerYear)
	base := bonusBase.Mul(bonusMultiplier(e.Category(), e.Performance))

	ratio := e.PartTimeRatio
	if !ratio.IsPositive() {
		ratio = decimal.NewFromInt(1)
	}

	return base.Add(seniority).Mul(ratio).Round(2)
}

// RaiseSalary は月給を percent パーセント引き上げます。
func (e *Employee) RaiseSalary(percent decimal.Decimal) error {
	if percent.IsNegative() {
		return ErrInvalidRaise
	}
	factor := decimal.NewFromInt(1).Add(percent.Div(decimal.NewFromInt(100)))
	e.Salary = e.Salary.Mul(factor).Round(2)
	return nil
}

// Snapshot は today 時点の派生値をまとめて返します。
func (e *Employee) Snapshot(today time.Time) *Snapshot {
	return &Snapshot{
		Employee:       e,
		SeniorityYears: e.SeniorityYears(today),
		AnnualBonus:    e.AnnualBonus(today),
	}
}

func truncateDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
