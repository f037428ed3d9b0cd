package pipeline

import "sync"

// WorkerPool fans per-security work out over a fixed number of goroutines.
type WorkerPool struct {
	numWorkers int
}

// NewWorkerPool creates a new worker pool with the specified number of workers
func NewWorkerPool(numWorkers int) *WorkerPool {
	if numWorkers <= 0 {
		numWorkers = 10 // Default to 10 workers
	}
	return &WorkerPool{
		numWorkers: numWorkers,
	}
}

// Workers returns the pool size.
func (wp *WorkerPool) Workers() int { return wp.numWorkers }

// EvaluateBatch runs evaluate for every input in parallel and returns the
// records in input order.
func (wp *WorkerPool) EvaluateBatch(inputs []SecurityInput, evaluate func(SecurityInput) Record) []Record {
	numInputs := len(inputs)
	if numInputs == 0 {
		return []Record{}
	}

	jobs := make(chan jobItem, numInputs)
	results := make(chan resultItem, numInputs)

	var wg sync.WaitGroup
	numActualWorkers := wp.numWorkers
	if numInputs < numActualWorkers {
		numActualWorkers = numInputs // Don't spawn more workers than securities
	}

	for i := 0; i < numActualWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			worker(jobs, results, evaluate)
		}()
	}

	for idx, input := range inputs {
		jobs <- jobItem{index: idx, input: input}
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	records := make([]Record, numInputs)
	for result := range results {
		records[result.index] = result.record
	}
	return records
}

type jobItem struct {
	index int
	input SecurityInput
}

type resultItem struct {
	index  int
	record Record
}

func worker(jobs <-chan jobItem, results chan<- resultItem, evaluate func(SecurityInput) Record) {
	for job := range jobs {
		results <- resultItem{index: job.index, record: evaluate(job.input)}
	}
}
