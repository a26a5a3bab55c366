// Package mocks provides mock implementations for testing the dialectic job
// system.
//
// This package uses go.uber.org/mock (gomock) to generate type-safe mocks
// for the core capability interfaces. The mocks are generated using
// go:generate directives and provide a fluent API for setting up test
// expectations.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	defer ctrl.Finish()
//	mockRepo := mocks.NewMockJobRepository(ctrl)
//	mockRepo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(job, nil)
package mocks

// Generate mock for JobRepository interface from internal/core package.
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=job_repository_mock.go github.com/dialecticlabs/dialectic-worker/internal/core JobRepository

// Generate mock for ReaperRepository interface from internal/core package.
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=reaper_repository_mock.go github.com/dialecticlabs/dialectic-worker/internal/core ReaperRepository

// Generate mock for ContributionRepository interface from internal/core package.
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=contribution_repository_mock.go github.com/dialecticlabs/dialectic-worker/internal/core ContributionRepository

// Generate mocks for the storage boundaries from internal/core package.
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=file_store_mock.go github.com/dialecticlabs/dialectic-worker/internal/core FileStore,FileRegistrar

// Generate mocks for the model boundaries from internal/core package.
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=model_boundaries_mock.go github.com/dialecticlabs/dialectic-worker/internal/core ModelCaller,ModelConfigProvider,TokenCounter,ContextCompressor,PromptAssembler

// Generate mocks for template lookup and the render policy from internal/core package.
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=template_registry_mock.go github.com/dialecticlabs/dialectic-worker/internal/core TemplateRegistry,RenderPolicy
