// Package mocks provides test doubles for the llm client.
package mocks

import (
	"context"

	mock "github.com/stretchr/testify/mock"
)

// MockClient is a mock type for the llm.Client interface.
type MockClient struct {
	mock.Mock
}

// Query provides a mock function with given fields: ctx, prompt, maxTokens
func (_m *MockClient) Query(ctx context.Context, prompt string, maxTokens int) (string, error) {
	ret := _m.Called(ctx, prompt, maxTokens)

	if len(ret) == 0 {
		panic("no return value specified for Query")
	}

	var r0 string
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, string, int) (string, error)); ok {
		return rf(ctx, prompt, maxTokens)
	}
	if rf, ok := ret.Get(0).(func(context.Context, string, int) string); ok {
		r0 = rf(ctx, prompt, maxTokens)
	} else {
		r0 = ret.Get(0).(string)
	}

	if rf, ok := ret.Get(1).(func(context.Context, string, int) error); ok {
		r1 = rf(ctx, prompt, maxTokens)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// NewMockClient creates a new instance of MockClient.
func NewMockClient(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockClient {
	m := &MockClient{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
