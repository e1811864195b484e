package handler

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/ogurasousui/grpc-hr-clean-arch/internal/core/employee"
	"github.com/shopspring/decimal"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

type stubEmployeeUseCase struct {
	hireInput employee.HireEmployeeInput
	hireOut   *employee.Employee
	hireErr   error

	getInput employee.GetEmployeeInput
	getOut   *employee.Snapshot
	getErr   error

	listInput employee.ListEmployeesInput
	listOut   *employee.ListEmployeesResult
	listErr   error

	perfInput employee.ComputeSalesPerformanceInput
	perfOut   *employee.Employee
	perfErr   error

	raiseInput employee.RaiseSalaryInput
	raiseOut   *employee.Employee
	raiseErr   error
}

func (s *stubEmployeeUseCase) HireEmployee(ctx context.Context, in employee.HireEmployeeInput) (*employee.Employee, error) {
	s.hireInput = in
	return s.hireOut, s.hireErr
}

func (s *stubEmployeeUseCase) GetEmployee(ctx context.Context, in employee.GetEmployeeInput) (*employee.Snapshot, error) {
	s.getInput = in
	return s.getOut, s.getErr
}

func (s *stubEmployeeUseCase) ListEmployees(ctx context.Context, in employee.ListEmployeesInput) (*employee.ListEmployeesResult, error) {
	s.listInput = in
	return s.listOut, s.listErr
}

func (s *stubEmployeeUseCase) ComputeSalesPerformance(ctx context.Context, in employee.ComputeSalesPerformanceInput) (*employee.Employee, error) {
	s.perfInput = in
	return s.perfOut, s.perfErr
}

func (s *stubEmployeeUseCase) RaiseSalary(ctx context.Context, in employee.RaiseSalaryInput) (*employee.Employee, error) {
	s.raiseInput = in
	return s.raiseOut, s.raiseErr
}

func sampleEmployee() *employee.Employee {
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	hire := time.Date(2020, 1, 15, 0, 0, 0, 0, time.UTC)
	return &employee.Employee{
		ID:            "emp-1",
		LastName:      "Doe",
		FirstName:     "John",
		Matricule:     "C00001",
		HireDate:      &hire,
		Salary:        decimal.RequireFromString("1825.46"),
		Performance:   2,
		PartTimeRatio: decimal.NewFromInt(1),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func mustStruct(t *testing.T, fields map[string]any) *structpb.Struct {
	t.Helper()
	s, err := structpb.NewStruct(fields)
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	return s
}

func employeeField(t *testing.T, resp *structpb.Struct) map[string]any {
	t.Helper()
	emp, ok := resp.AsMap()["employee"].(map[string]any)
	if !ok {
		t.Fatalf("response has no employee: %v", resp.AsMap())
	}
	return emp
}

func TestEmployeeGrpcHandler_HireEmployee_Success(t *testing.T) {
	t.Parallel()

	stub := &stubEmployeeUseCase{hireOut: sampleEmployee()}
	h := NewEmployeeGrpcHandler(stub)

	resp, err := h.HireEmployee(context.Background(), mustStruct(t, map[string]any{
		"last_name":       " Doe ",
		"first_name":      "John",
		"position":        "commercial",
		"education_level": "master",
		"part_time_ratio": "0.5",
	}))
	if err != nil {
		t.Fatalf("HireEmployee returned error: %v", err)
	}

	if stub.hireInput.LastName != "Doe" || stub.hireInput.Position != employee.PositionCommercial {
		t.Fatalf("unexpected input: %+v", stub.hireInput)
	}
	if !stub.hireInput.PartTimeRatio.Equal(decimal.RequireFromString("0.5")) {
		t.Fatalf("unexpected ratio: %s", stub.hireInput.PartTimeRatio)
	}

	emp := employeeField(t, resp)
	if emp["matricule"] != "C00001" || emp["salary"] != "1825.46" || emp["hire_date"] != "2020-01-15" {
		t.Fatalf("unexpected employee: %v", emp)
	}
	if emp["performance"] != float64(2) {
		t.Fatalf("unexpected performance: %v", emp["performance"])
	}
}

func TestEmployeeGrpcHandler_HireEmployee_DefaultRatio(t *testing.T) {
	t.Parallel()

	stub := &stubEmployeeUseCase{hireOut: sampleEmployee()}
	h := NewEmployeeGrpcHandler(stub)

	if _, err := h.HireEmployee(context.Background(), mustStruct(t, map[string]any{
		"last_name":       "Doe",
		"first_name":      "John",
		"position":        "technician",
		"education_level": "bac",
	})); err != nil {
		t.Fatalf("HireEmployee returned error: %v", err)
	}

	if !stub.hireInput.PartTimeRatio.Equal(decimal.NewFromInt(1)) {
		t.Fatalf("expected full-time ratio, got %s", stub.hireInput.PartTimeRatio)
	}
}

func TestEmployeeGrpcHandler_HireEmployee_InvalidRatio(t *testing.T) {
	t.Parallel()

	stub := &stubEmployeeUseCase{}
	h := NewEmployeeGrpcHandler(stub)

	_, err := h.HireEmployee(context.Background(), mustStruct(t, map[string]any{
		"part_time_ratio": "half",
	}))
	if status.Code(err) != codes.InvalidArgument {
		t.Fatalf("expected InvalidArgument, got %v", err)
	}
}

func TestEmployeeGrpcHandler_NilRequest(t *testing.T) {
	t.Parallel()

	h := NewEmployeeGrpcHandler(&stubEmployeeUseCase{})

	if _, err := h.GetEmployee(context.Background(), nil); status.Code(err) != codes.InvalidArgument {
		t.Fatalf("expected InvalidArgument, got %v", err)
	}
}

func TestEmployeeGrpcHandler_GetEmployee(t *testing.T) {
	t.Parallel()

	stub := &stubEmployeeUseCase{getOut: &employee.Snapshot{
		Employee:       sampleEmployee(),
		SeniorityYears: 5,
		AnnualBonus:    decimal.RequireFromString("2800"),
	}}
	h := NewEmployeeGrpcHandler(stub)

	resp, err := h.GetEmployee(context.Background(), mustStruct(t, map[string]any{"matricule": "c00001"}))
	if err != nil {
		t.Fatalf("GetEmployee returned error: %v", err)
	}

	if stub.getInput.Matricule != "c00001" {
		t.Fatalf("unexpected matricule passed: %s", stub.getInput.Matricule)
	}

	m := resp.AsMap()
	if m["seniority_years"] != float64(5) || m["annual_bonus"] != "2800.00" {
		t.Fatalf("unexpected snapshot: %v", m)
	}
}

func TestEmployeeGrpcHandler_ListEmployees(t *testing.T) {
	t.Parallel()

	stub := &stubEmployeeUseCase{listOut: &employee.ListEmployeesResult{
		Employees:     []*employee.Employee{sampleEmployee()},
		NextPageToken: "1",
	}}
	h := NewEmployeeGrpcHandler(stub)

	resp, err := h.ListEmployees(context.Background(), mustStruct(t, map[string]any{
		"matricule_prefix": "C",
		"page_size":        1,
	}))
	if err != nil {
		t.Fatalf("ListEmployees returned error: %v", err)
	}

	if stub.listInput.PageSize != 1 || stub.listInput.MatriculePrefix != "C" {
		t.Fatalf("unexpected input: %+v", stub.listInput)
	}

	m := resp.AsMap()
	employees, ok := m["employees"].([]any)
	if !ok || len(employees) != 1 {
		t.Fatalf("unexpected employees: %v", m["employees"])
	}
	if m["next_page_token"] != "1" {
		t.Fatalf("unexpected token: %v", m["next_page_token"])
	}
}

func TestEmployeeGrpcHandler_ListEmployees_FractionalPageSize(t *testing.T) {
	t.Parallel()

	h := NewEmployeeGrpcHandler(&stubEmployeeUseCase{})

	_, err := h.ListEmployees(context.Background(), mustStruct(t, map[string]any{"page_size": 1.5}))
	if status.Code(err) != codes.InvalidArgument {
		t.Fatalf("expected InvalidArgument, got %v", err)
	}
}

func TestEmployeeGrpcHandler_ComputeSalesPerformance(t *testing.T) {
	t.Parallel()

	updated := sampleEmployee()
	updated.Performance = 3
	stub := &stubEmployeeUseCase{perfOut: updated}
	h := NewEmployeeGrpcHandler(stub)

	resp, err := h.ComputeSalesPerformance(context.Background(), mustStruct(t, map[string]any{
		"matricule": "C00001",
		"revenue":   "120000",
		"target":    100000,
	}))
	if err != nil {
		t.Fatalf("ComputeSalesPerformance returned error: %v", err)
	}

	if stub.perfInput.Revenue != 120000 || stub.perfInput.Target != 100000 {
		t.Fatalf("unexpected input: %+v", stub.perfInput)
	}
	if employeeField(t, resp)["performance"] != float64(3) {
		t.Fatalf("unexpected response: %v", resp.AsMap())
	}
}

func TestEmployeeGrpcHandler_RaiseSalary(t *testing.T) {
	t.Parallel()

	stub := &stubEmployeeUseCase{raiseErr: employee.ErrInvalidRaise}
	h := NewEmployeeGrpcHandler(stub)

	_, err := h.RaiseSalary(context.Background(), mustStruct(t, map[string]any{
		"matricule": "C00001",
		"percent":   -5,
	}))
	if status.Code(err) != codes.InvalidArgument {
		t.Fatalf("expected InvalidArgument, got %v", err)
	}
	if !stub.raiseInput.Percent.Equal(decimal.NewFromInt(-5)) {
		t.Fatalf("unexpected percent: %s", stub.raiseInput.Percent)
	}
}

func TestToStatusError(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		err  error
		want codes.Code
	}{
		{"invalid matricule", fmt.Errorf("wrap: %w", employee.ErrInvalidMatricule), codes.InvalidArgument},
		{"not commercial", employee.ErrNotCommercial, codes.InvalidArgument},
		{"not found", fmt.Errorf("matricule C00001: %w", employee.ErrEmployeeNotFound), codes.NotFound},
		{"duplicate", employee.ErrMatriculeAlreadyExists, codes.AlreadyExists},
		{"limit", employee.ErrMatriculeLimitReached, codes.ResourceExhausted},
		{"other", errors.New("boom"), codes.Internal},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := status.Code(toStatusError(tc.err)); got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}

	if toStatusError(nil) != nil {
		t.Fatal("expected nil for nil error")
	}
}
