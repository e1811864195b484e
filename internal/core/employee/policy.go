package employee

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Position は職種を表します。
type Position string

const (
	PositionTechnician Position = "technician"
	PositionCommercial Position = "commercial"
	PositionManager    Position = "manager"
)

// 社員番号の職種プレフィックス。
const (
	PrefixTechnician = "T"
	PrefixCommercial = "C"
	PrefixManager    = "M"
)

// Prefix は職種に対応する社員番号のプレフィックスを返します。
func (p Position) Prefix() string {
	switch p {
	case PositionTechnician:
		return PrefixTechnician
	case PositionCommercial:
		return PrefixCommercial
	case PositionManager:
		return PrefixManager
	default:
		return ""
	}
}

// EducationLevel は最終学歴を表します。
type EducationLevel string

const (
	EducationCAP       EducationLevel = "cap"
	EducationBAC       EducationLevel = "bac"
	EducationBTSIUT    EducationLevel = "bts_iut"
	EducationLicence   EducationLevel = "licence"
	EducationMaster    EducationLevel = "master"
	EducationIngenieur EducationLevel = "ingenieur"
)

// PerformanceBase は評価の初期値です。
const PerformanceBase = 1

var (
	baseSalary = decimal.RequireFromString("1521.22")

	educationCoefficients = map[EducationLevel]decimal.Decimal{
		EducationCAP:       decimal.RequireFromString("1.0"),
		EducationBAC:       decimal.RequireFromString("1.1"),
		EducationBTSIUT:    decimal.RequireFromString("1.2"),
		EducationLicence:   decimal.RequireFromString("1.2"),
		EducationMaster:    decimal.RequireFromString("1.4"),
		EducationIngenieur: decimal.RequireFromString("1.6"),
	}

	bonusBase             = decimal.NewFromInt(1000)
	seniorityBonusPerYear = decimal.NewFromInt(100)
	managerBonusIndex     = decimal.RequireFromString("1.7")
	performanceBonusIndex = decimal.RequireFromString("0.3")
)

// bonusRule は職種区分と評価から基本賞与の倍率を決めます。2 番目の戻り値が false なら次の規則を評価します。
type bonusRule func(category string, performance int) (decimal.Decimal, bool)

var bonusRules = []bonusRule{
	func(category string, _ int) (decimal.Decimal, bool) {
		return managerBonusIndex, category == PrefixManager
	},
	func(_ string, performance int) (decimal.Decimal, bool) {
		return decimal.NewFromInt(1), performance <= PerformanceBase
	},
	func(_ string, performance int) (decimal.Decimal, bool) {
		return decimal.NewFromInt(int64(performance)).Add(performanceBonusIndex), true
	},
}

func bonusMultiplier(category string, performance int) decimal.Decimal {
	for _, rule := range bonusRules {
		if m, ok := rule(category, performance); ok {
			return m
		}
	}
	return decimal.NewFromInt(1)
}

// StartingSalary は学歴と勤務率から初任給 (月額) を算出します。
func StartingSalary(level EducationLevel, ratio decimal.Decimal) (decimal.Decimal, error) {
	coefficient, ok := educationCoefficients[level]
	if !ok {
		return decimal.Zero, ErrInvalidEducationLevel
	}
	if err := validatePartTimeRatio(ratio); err != nil {
		return decimal.Zero, err
	}
	return baseSalary.Mul(coefficient).Mul(ratio).Round(2), nil
}

func isValidPosition(p Position) bool {
	return p.Prefix() != ""
}

func normalizePosition(raw Position) (Position, error) {
	p := Position(strings.ToLower(strings.TrimSpace(string(raw))))
	if !isValidPosition(p) {
		return "", ErrInvalidPosition
	}
	return p, nil
}

func normalizeEducationLevel(raw EducationLevel) (EducationLevel, error) {
	level := EducationLevel(strings.ToLower(strings.TrimSpace(string(raw))))
	if _, ok := educationCoefficients[level]; !ok {
		return "", ErrInvalidEducationLevel
	}
	return level, nil
}

// 営業評価の売上達成率の区分境界。
var (
	salesLowerBound    = decimal.RequireFromString("0.8")
	salesOnTargetLower = decimal.RequireFromString("0.95")
	salesOnTargetUpper = decimal.RequireFromString("1.05")
	salesUpperBound    = decimal.RequireFromString("1.2")
)

// PartTimeRatioScale は勤務率として保存できる小数桁数です。
const PartTimeRatioScale = 3

func validatePartTimeRatio(ratio decimal.Decimal) error {
	if !ratio.IsPositive() || ratio.GreaterThan(decimal.NewFromInt(1)) {
		return ErrInvalidPartTimeRatio
	}
	if !ratio.Equal(ratio.Truncate(PartTimeRatioScale)) {
		return fmt.Errorf("more than %d decimal places: %w", PartTimeRatioScale, ErrInvalidPartTimeRatio)
	}
	return nil
}
