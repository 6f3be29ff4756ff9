package testutil

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/mrsaurabh009/team-of-ai-agents/tool"
)

// MockController is a testify mock implementing backend.Controller.
//
//	ctrl := new(MockController)
//	ctrl.On("Run", mock.Anything, "hi", mock.Anything).Return("hello", nil)
type MockController struct {
	mock.Mock
}

// Run implements backend.Controller.
func (m *MockController) Run(ctx context.Context, text string, tools []tool.Descriptor) (any, error) {
	args := m.Called(ctx, text, tools)
	return args.Get(0), args.Error(1)
}
