// Package mapreduce is a multi-threaded MapReduce execution engine: N
// workers pull from a shared input queue, sort their intermediates
// locally, a single shuffler groups equal keys, and the groups are
// reduced concurrently. Progress is tracked in a packed stage/total/done
// state word readable at any time through GetJobState.
package mapreduce

import (
	"github.com/google/uuid"

	"github.com/Noamshabat1/Operating-Systems/utils"
)

// StartJob launches a job over input with the given number of workers.
// The output slice is caller-owned and appended to under the job's output
// lock. Returns nil if the client or the output slice is missing or the
// worker count is not positive.
func StartJob(client Client, input []InputPair, output *[]OutputPair, workers int) *Job {
	if client == nil {
		utils.ErrorLog.Error("cannot start a job without a client")
		return nil
	}
	if output == nil {
		utils.ErrorLog.Error("cannot start a job without an output vector")
		return nil
	}
	if workers < 1 {
		utils.ErrorLog.Error("cannot start a job without workers", "workers", workers)
		return nil
	}

	j := &Job{
		id:         uuid.New(),
		client:     client,
		input:      input,
		output:     output,
		outputLock: utils.NewSemaphore(1),
		reduceLock: utils.NewSemaphore(1),
		barrier:    newBarrier(workers),
	}
	j.state.Store(packState(StageUndefined, uint64(len(input))))

	j.workers = make([]*worker, workers)
	for i := range j.workers {
		j.workers[i] = &worker{tid: i, job: j}
	}

	j.setState(StageMap, uint64(len(input)))

	j.wg.Add(workers)
	for _, w := range j.workers {
		go w.run()
	}

	utils.InfoLog.Info("mapreduce job started", "job_id", j.id,
		"workers", workers, "input_pairs", len(input))
	return j
}

// WaitForJob blocks until every worker has exited. Safe to call more than
// once: later calls return once the first completes.
func WaitForJob(job *Job) {
	if job == nil {
		return
	}
	job.waitMu.Lock()
	if job.joined {
		job.waitMu.Unlock()
		job.wg.Wait()
		return
	}
	job.joined = true
	job.waitMu.Unlock()

	job.wg.Wait()
	utils.InfoLog.Info("mapreduce job finished", "job_id", job.id,
		"output_pairs", job.reducedCount.Load())
}

// GetJobState returns a consistent snapshot of the job's stage and
// completion percentage.
func GetJobState(job *Job) JobState {
	if job == nil {
		return JobState{}
	}
	return job.snapshotState()
}

// CloseJob waits for the job and releases everything it still holds. The
// handle must not be used afterwards.
func CloseJob(job *Job) {
	if job == nil {
		return
	}
	WaitForJob(job)

	for _, w := range job.workers {
		w.intermediate = nil
	}
	job.shuffled = nil
	job.workers = nil
}

// Emit2 appends an intermediate pair from inside a map callback.
func Emit2(key Key, value any, ctx *MapContext) {
	ctx.w.intermediate = append(ctx.w.intermediate, IntermediatePair{Key: key, Value: value})
	ctx.w.job.intermediateCount.Add(1)
}

// Emit3 appends an output pair from inside a reduce callback.
func Emit3(key Key, value any, job *Job) {
	job.outputLock.Do(func() {
		*job.output = append(*job.output, OutputPair{Key: key, Value: value})
	})

	job.stateMu.Lock()
	job.reducedCount.Add(1)
	job.state.Add(1)
	job.stateMu.Unlock()
}
