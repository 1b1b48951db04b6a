package temporal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultWorkerConfig(t *testing.T) {
	cfg := DefaultWorkerConfig("test-queue")

	assert.Equal(t, "test-queue", cfg.TaskQueue)
	assert.Equal(t, 4, cfg.MaxConcurrentActivityExecutionSize)
	assert.Equal(t, 10, cfg.MaxConcurrentWorkflowTaskExecutionSize)
}

func TestNewWorkerManager(t *testing.T) {
	t.Run("requires task queue", func(t *testing.T) {
		_, err := NewWorkerManager(nil, WorkerConfig{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "task queue is required")
	})
}

func TestWorkerOptionsFromConfig(t *testing.T) {
	t.Run("applies defaults for zero values", func(t *testing.T) {
		opts := workerOptionsFromConfig(WorkerConfig{TaskQueue: "q"})

		assert.Equal(t, 4, opts.MaxConcurrentActivityExecutionSize)
		assert.Equal(t, 10, opts.MaxConcurrentWorkflowTaskExecutionSize)
	})

	t.Run("keeps custom values", func(t *testing.T) {
		opts := workerOptionsFromConfig(WorkerConfig{
			TaskQueue:                              "q",
			MaxConcurrentActivityExecutionSize:     1,
			MaxConcurrentWorkflowTaskExecutionSize: 2,
		})

		assert.Equal(t, 1, opts.MaxConcurrentActivityExecutionSize)
		assert.Equal(t, 2, opts.MaxConcurrentWorkflowTaskExecutionSize)
	})
}
