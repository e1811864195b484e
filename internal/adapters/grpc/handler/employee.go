package handler

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/ogurasousui/grpc-hr-clean-arch/internal/core/employee"
	"github.com/shopspring/decimal"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

const dateLayout = "2006-01-02"

// EmployeeGrpcHandler は EmployeeService の gRPC 実装です。
// メッセージは google.protobuf.Struct で受け渡しします。
type EmployeeGrpcHandler struct {
	svc employee.UseCase
}

// NewEmployeeGrpcHandler は EmployeeGrpcHandler を生成します。
func NewEmployeeGrpcHandler(svc employee.UseCase) *EmployeeGrpcHandler {
	return &EmployeeGrpcHandler{svc: svc}
}

// HireEmployee は社員を採用します。
func (h *EmployeeGrpcHandler) HireEmployee(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	ratio, err := decimalField(req, "part_time_ratio", decimal.NewFromInt(1))
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, fmt.Sprintf("part_time_ratio: %v", err))
	}

	hired, err := h.svc.HireEmployee(ctx, employee.HireEmployeeInput{
		LastName:       stringField(req, "last_name"),
		FirstName:      stringField(req, "first_name"),
		Position:       employee.Position(stringField(req, "position")),
		EducationLevel: employee.EducationLevel(stringField(req, "education_level")),
		PartTimeRatio:  ratio,
	})
	if err != nil {
		return nil, toStatusError(err)
	}

	return newStruct(map[string]any{"employee": toEmployeeValue(hired)})
}

// GetEmployee は社員を取得します。
func (h *EmployeeGrpcHandler) GetEmployee(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	snap, err := h.svc.GetEmployee(ctx, employee.GetEmployeeInput{Matricule: stringField(req, "matricule")})
	if err != nil {
		return nil, toStatusError(err)
	}

	return newStruct(map[string]any{
		"employee":        toEmployeeValue(snap.Employee),
		"seniority_years": snap.SeniorityYears,
		"annual_bonus":    snap.AnnualBonus.StringFixed(2),
	})
}

// ListEmployees は社員の一覧を取得します。
func (h *EmployeeGrpcHandler) ListEmployees(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	pageSize, err := intField(req, "page_size")
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, fmt.Sprintf("page_size: %v", err))
	}

	result, err := h.svc.ListEmployees(ctx, employee.ListEmployeesInput{
		MatriculePrefix: stringField(req, "matricule_prefix"),
		PageSize:        int(pageSize),
		PageToken:       stringField(req, "page_token"),
	})
	if err != nil {
		return nil, toStatusError(err)
	}

	employees := make([]any, 0, len(result.Employees))
	for _, emp := range result.Employees {
		employees = append(employees, toEmployeeValue(emp))
	}

	return newStruct(map[string]any{
		"employees":       employees,
		"next_page_token": result.NextPageToken,
	})
}

// ComputeSalesPerformance は営業社員の評価を再計算します。
func (h *EmployeeGrpcHandler) ComputeSalesPerformance(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	revenue, err := intField(req, "revenue")
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, fmt.Sprintf("revenue: %v", err))
	}
	target, err := intField(req, "target")
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, fmt.Sprintf("target: %v", err))
	}

	updated, err := h.svc.ComputeSalesPerformance(ctx, employee.ComputeSalesPerformanceInput{
		Matricule: stringField(req, "matricule"),
		Revenue:   revenue,
		Target:    target,
	})
	if err != nil {
		return nil, toStatusError(err)
	}

	return newStruct(map[string]any{"employee": toEmployeeValue(updated)})
}

// RaiseSalary は社員の月給を引き上げます。
func (h *EmployeeGrpcHandler) RaiseSalary(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	percent, err := decimalField(req, "percent", decimal.Zero)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, fmt.Sprintf("percent: %v", err))
	}

	updated, err := h.svc.RaiseSalary(ctx, employee.RaiseSalaryInput{
		Matricule: stringField(req, "matricule"),
		Percent:   percent,
	})
	if err != nil {
		return nil, toStatusError(err)
	}

	return newStruct(map[string]any{"employee": toEmployeeValue(updated)})
}

func toEmployeeValue(emp *employee.Employee) map[string]any {
	if emp == nil {
		return nil
	}

	var hireDate any
	if emp.HireDate != nil {
		hireDate = emp.HireDate.Format(dateLayout)
	}

	return map[string]any{
		"id":              emp.ID,
		"last_name":       emp.LastName,
		"first_name":      emp.FirstName,
		"matricule":       emp.Matricule,
		"hire_date":       hireDate,
		"salary":          emp.Salary.StringFixed(2),
		"performance":     emp.EffectivePerformance(),
		"part_time_ratio": emp.PartTimeRatio.String(),
		"created_at":      emp.CreatedAt.Format(time.RFC3339),
		"updated_at":      emp.UpdatedAt.Format(time.RFC3339),
	}
}

func newStruct(fields map[string]any) (*structpb.Struct, error) {
	s, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, status.Error(codes.Internal, fmt.Sprintf("encode response: %v", err))
	}
	return s, nil
}

func stringField(req *structpb.Struct, name string) string {
	v, ok := req.GetFields()[name]
	if !ok {
		return ""
	}
	return strings.TrimSpace(v.GetStringValue())
}

// intField は数値または数値文字列を整数として読み取ります。未指定は 0 です。
func intField(req *structpb.Struct, name string) (int64, error) {
	v, ok := req.GetFields()[name]
	if !ok {
		return 0, nil
	}

	switch kind := v.GetKind().(type) {
	case *structpb.Value_NumberValue:
		n := kind.NumberValue
		if n != math.Trunc(n) || math.Abs(n) > math.MaxInt64/2 {
			return 0, fmt.Errorf("must be an integer")
		}
		return int64(n), nil
	case *structpb.Value_StringValue:
		d, err := decimal.NewFromString(strings.TrimSpace(kind.StringValue))
		if err != nil || !d.IsInteger() {
			return 0, fmt.Errorf("must be an integer")
		}
		return d.IntPart(), nil
	case *structpb.Value_NullValue:
		return 0, nil
	default:
		return 0, fmt.Errorf("must be a number")
	}
}

// decimalField は数値または数値文字列を decimal として読み取ります。未指定は fallback です。
func decimalField(req *structpb.Struct, name string, fallback decimal.Decimal) (decimal.Decimal, error) {
	v, ok := req.GetFields()[name]
	if !ok {
		return fallback, nil
	}

	switch kind := v.GetKind().(type) {
	case *structpb.Value_NumberValue:
		return decimal.NewFromFloat(kind.NumberValue), nil
	case *structpb.Value_StringValue:
		d, err := decimal.NewFromString(strings.TrimSpace(kind.StringValue))
		if err != nil {
			return decimal.Zero, fmt.Errorf("invalid decimal %q", kind.StringValue)
		}
		return d, nil
	case *structpb.Value_NullValue:
		return fallback, nil
	default:
		return decimal.Zero, fmt.Errorf("must be a number")
	}
}
