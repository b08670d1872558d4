package mapreduce

import "sort"

// worker owns one intermediate buffer and runs the full phase sequence:
// map, local sort, barrier, shuffle (worker 0 only), barrier, reduce.
type worker struct {
	tid          int
	job          *Job
	intermediate []IntermediatePair
}

// MapContext routes emissions from a map callback into the buffer of the
// worker executing it.
type MapContext struct {
	w *worker
}

func (w *worker) run() {
	defer w.job.wg.Done()

	w.runMapPhase()
	w.job.barrier.wait()

	if w.tid == 0 {
		w.job.runShuffle()
	}
	w.job.barrier.wait()

	w.runReducePhase()
}

// runMapPhase claims input pairs off the shared cursor until none remain,
// then sorts the local buffer by key.
func (w *worker) runMapPhase() {
	j := w.job
	for {
		old := j.mapNext.Add(1) - 1
		if old >= int64(len(j.input)) {
			break
		}
		pair := j.input[old]
		j.client.Map(pair.Key, pair.Value, &MapContext{w: w})
		j.bumpDone()
	}

	sort.Slice(w.intermediate, func(a, b int) bool {
		return w.intermediate[a].Key.Less(w.intermediate[b].Key)
	})
}

// runReducePhase pops groups off the shared shuffled stack until empty.
// Popping is the only contended step; the reduce callback itself runs
// outside the lock.
func (w *worker) runReducePhase() {
	j := w.job
	for {
		var group []IntermediatePair
		j.reduceLock.Do(func() {
			if len(j.shuffled) == 0 {
				return
			}
			group = j.shuffled[len(j.shuffled)-1]
			j.shuffled = j.shuffled[:len(j.shuffled)-1]
		})
		if group == nil {
			break
		}

		j.client.Reduce(group, j)
	}
}
