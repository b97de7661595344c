package reconcile

import (
	"context"

	"github.com/meikuraledutech/flowchart"
	"github.com/stretchr/testify/mock"
)

// mockBackend implements only the required Backend methods.
type mockBackend struct {
	mock.Mock
}

func (m *mockBackend) FetchProcessSteps(ctx context.Context, productID int64) (*flowchart.FlowRecord, error) {
	args := m.Called(ctx, productID)
	flow, _ := args.Get(0).(*flowchart.FlowRecord)
	return flow, args.Error(1)
}

func (m *mockBackend) FetchHazards(ctx context.Context, productID int64) ([]flowchart.HazardRecord, error) {
	args := m.Called(ctx, productID)
	hazards, _ := args.Get(0).([]flowchart.HazardRecord)
	return hazards, args.Error(1)
}

func (m *mockBackend) FetchCCPs(ctx context.Context, productID int64) ([]flowchart.CCPRecord, error) {
	args := m.Called(ctx, productID)
	ccps, _ := args.Get(0).([]flowchart.CCPRecord)
	return ccps, args.Error(1)
}

func (m *mockBackend) CreateProcessStep(ctx context.Context, productID int64, step *flowchart.StepWrite) (int64, error) {
	args := m.Called(ctx, productID, step)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockBackend) UpdateProcessStep(ctx context.Context, stepID int64, step *flowchart.StepWrite) error {
	args := m.Called(ctx, stepID, step)
	return args.Error(0)
}
