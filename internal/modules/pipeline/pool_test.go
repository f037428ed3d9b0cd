package pipeline

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewWorkerPool(t *testing.T) {
	tests := []struct {
		name            string
		numWorkers      int
		expectedWorkers int
	}{
		{"positive workers", 5, 5},
		{"zero workers defaults to 10", 0, 10},
		{"negative workers defaults to 10", -1, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pool := NewWorkerPool(tt.numWorkers)
			assert.Equal(t, tt.expectedWorkers, pool.Workers())
		})
	}
}

func TestEvaluateBatch_Empty(t *testing.T) {
	pool := NewWorkerPool(2)
	records := pool.EvaluateBatch(nil, func(SecurityInput) Record { return Record{} })
	assert.Empty(t, records)
}

func TestEvaluateBatch_PreservesOrder(t *testing.T) {
	pool := NewWorkerPool(3)
	inputs := make([]SecurityInput, 50)
	for i := range inputs {
		inputs[i] = SecurityInput{ID: fmt.Sprintf("S%02d", i)}
	}

	var calls atomic.Int32
	records := pool.EvaluateBatch(inputs, func(in SecurityInput) Record {
		calls.Add(1)
		return Record{SecurityID: in.ID}
	})

	assert.Equal(t, int32(50), calls.Load())
	for i, rec := range records {
		assert.Equal(t, inputs[i].ID, rec.SecurityID)
	}
}
