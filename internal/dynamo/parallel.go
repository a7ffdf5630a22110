package dynamo

import (
	"runtime"
	"sync"
	"sync/atomic"
)

var workers atomic.Int64

func init() {
	workers.Store(int64(runtime.GOMAXPROCS(0)))
}

// SetWorkers sets the number of goroutines ParallelFor splits work across.
// Values below one are treated as one.
func SetWorkers(n int) {
	if n < 1 {
		n = 1
	}
	workers.Store(int64(n))
}

// Workers returns the current ParallelFor worker count.
func Workers() int { return int(workers.Load()) }

// ParallelFor executes a function in parallel over a range [0, n)
func ParallelFor(n, minChunk int, fn func(start, end int)) {
	numWorkers := Workers()
	if n <= minChunk || numWorkers <= 1 {
		fn(0, n)
		return
	}

	w := numWorkers
	if minChunk > 0 && n/minChunk < w {
		w = n / minChunk
	}
	if w < 1 {
		w = 1
	}

	chunkSize := (n + w - 1) / w

	var wg sync.WaitGroup
	for start := 0; start < n; start += chunkSize {
		end := start + chunkSize
		if end > n {
			end = n
		}

		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			fn(s, e)
		}(start, end)
	}

	wg.Wait()
}
