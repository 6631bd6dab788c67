package pagination

import "sync"

// fanOut runs task(i) for every i in [0, n) on a pool of at most workers
// goroutines and returns once all tasks have completed. The pool is scoped
// to this call and never outlives it; tasks must confine their writes to
// per-index state so no locking is required.
func fanOut(n, workers int, task func(i int)) {
	if n <= 0 {
		return
	}
	if workers > n {
		workers = n
	}

	indexes := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indexes {
				task(i)
			}
		}()
	}

	for i := 0; i < n; i++ {
		indexes <- i
	}
	close(indexes)
	wg.Wait()
}
