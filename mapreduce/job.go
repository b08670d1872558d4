package mapreduce

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/Noamshabat1/Operating-Systems/utils"
)

// Stage identifies where a job is in its lifecycle.
type Stage int

const (
	StageUndefined Stage = iota
	StageMap
	StageShuffle
	StageReduce
)

func (s Stage) String() string {
	switch s {
	case StageMap:
		return "MAP"
	case StageShuffle:
		return "SHUFFLE"
	case StageReduce:
		return "REDUCE"
	default:
		return "UNDEFINED"
	}
}

// JobState is a consistent progress snapshot.
type JobState struct {
	Stage      Stage
	Percentage float32
}

// The job state is one 64-bit word: stage in the top two bits, then the
// stage's task total, then the completed count, 31 bits each. Transitions
// and snapshot reads serialize on stateMu so a reader never sees a stage
// paired with another stage's counters.
const (
	stateStageShift  = 62
	stateTotalShift  = 31
	stateCounterMask = 1<<31 - 1
)

func packState(stage Stage, total uint64) uint64 {
	return uint64(stage)<<stateStageShift | total<<stateTotalShift
}

// Job is the handle of one MapReduce run: its workers, the shared input
// cursor, the shuffled group stack, and the packed progress word.
type Job struct {
	id     uuid.UUID
	client Client
	input  []InputPair
	output *[]OutputPair

	workers  []*worker
	shuffled [][]IntermediatePair

	mapNext           atomic.Int64
	intermediateCount atomic.Int64
	shufflePushed     atomic.Int64
	reducedCount      atomic.Int64

	state   atomic.Uint64
	stateMu sync.Mutex

	outputLock *utils.Semaphore
	reduceLock *utils.Semaphore
	barrier    *barrier

	wg     sync.WaitGroup
	waitMu sync.Mutex
	joined bool
}

// ID returns the job's unique identifier.
func (j *Job) ID() uuid.UUID {
	return j.id
}

// setState replaces the packed word for a stage transition, resetting the
// completed count to zero.
func (j *Job) setState(stage Stage, total uint64) {
	j.stateMu.Lock()
	j.state.Store(packState(stage, total))
	j.stateMu.Unlock()
}

// bumpDone counts one completed unit of the current stage.
func (j *Job) bumpDone() {
	j.stateMu.Lock()
	j.state.Add(1)
	j.stateMu.Unlock()
}

// snapshotState decodes a consistent {stage, percentage} view.
func (j *Job) snapshotState() JobState {
	j.stateMu.Lock()
	packed := j.state.Load()
	j.stateMu.Unlock()

	stage := Stage(packed >> stateStageShift)
	total := (packed >> stateTotalShift) & stateCounterMask
	done := packed & stateCounterMask

	var percentage float32
	if total > 0 {
		percentage = float32(done) / float32(total) * 100
		if percentage > 100 {
			percentage = 100
		}
	}
	return JobState{Stage: stage, Percentage: percentage}
}

// runShuffle drains every worker's sorted buffer into per-key groups on
// the shuffled stack. Only worker 0 runs this, between the two barriers,
// so no per-worker locks are needed: the owners are parked.
func (j *Job) runShuffle() {
	j.setState(StageShuffle, uint64(j.intermediateCount.Load()))

	for {
		maxKey := j.maxPendingKey()
		if maxKey == nil {
			break
		}
		group := j.collectGroup(maxKey)
		j.shuffled = append(j.shuffled, group)
		j.shufflePushed.Add(1)
	}

	utils.InfoLog.Debug("shuffle finished", "job_id", j.id,
		"groups", j.shufflePushed.Load(), "pairs", j.intermediateCount.Load())

	j.setState(StageReduce, uint64(j.shufflePushed.Load()))
}

// maxPendingKey finds the greatest key among the backs of all non-empty
// worker buffers, or nil once every buffer is drained.
func (j *Job) maxPendingKey() Key {
	var maxKey Key
	for _, w := range j.workers {
		if len(w.intermediate) == 0 {
			continue
		}
		k := w.intermediate[len(w.intermediate)-1].Key
		if maxKey == nil || maxKey.Less(k) {
			maxKey = k
		}
	}
	return maxKey
}

// collectGroup pops every pair equal to maxKey off the worker buffer backs.
// The buffers are sorted, so equal keys sit contiguously at the back.
func (j *Job) collectGroup(maxKey Key) []IntermediatePair {
	var group []IntermediatePair
	for _, w := range j.workers {
		for len(w.intermediate) > 0 &&
			keysEqual(w.intermediate[len(w.intermediate)-1].Key, maxKey) {
			group = append(group, w.intermediate[len(w.intermediate)-1])
			w.intermediate = w.intermediate[:len(w.intermediate)-1]
			j.bumpDone()
		}
	}
	return group
}
