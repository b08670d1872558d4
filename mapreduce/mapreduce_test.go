package mapreduce

import (
	"strings"
	"sync"
	"sync/atomic"
	"testing"
)

// wordKey orders words lexicographically.
type wordKey string

func (k wordKey) Less(other Key) bool {
	return k < other.(wordKey)
}

// wordCountClient emits (word, 1) per word and reduces groups to counts.
type wordCountClient struct {
	emitted atomic.Int64

	mu          sync.Mutex
	groupErrors []string
}

func (c *wordCountClient) Map(key, value any, ctx *MapContext) {
	for _, word := range strings.Fields(value.(string)) {
		Emit2(wordKey(word), 1, ctx)
		c.emitted.Add(1)
	}
}

func (c *wordCountClient) Reduce(group []IntermediatePair, job *Job) {
	if len(group) == 0 {
		c.recordGroupError("empty group delivered to reduce")
		return
	}
	first := group[0].Key
	count := 0
	for _, pair := range group {
		if !keysEqual(pair.Key, first) {
			c.recordGroupError("group with mixed keys delivered to reduce")
		}
		count += pair.Value.(int)
	}
	Emit3(first, count, job)
}

func (c *wordCountClient) recordGroupError(msg string) {
	c.mu.Lock()
	c.groupErrors = append(c.groupErrors, msg)
	c.mu.Unlock()
}

func runWordCount(t *testing.T, lines []string, workers int) (map[string]int, *wordCountClient) {
	t.Helper()

	input := make([]InputPair, len(lines))
	for i, line := range lines {
		input[i] = InputPair{Key: i, Value: line}
	}

	var output []OutputPair
	client := &wordCountClient{}
	job := StartJob(client, input, &output, workers)
	if job == nil {
		t.Fatal("StartJob returned nil for valid arguments")
	}
	CloseJob(job)

	for _, msg := range client.groupErrors {
		t.Error(msg)
	}

	counts := make(map[string]int)
	for _, pair := range output {
		word := string(pair.Key.(wordKey))
		if _, dup := counts[word]; dup {
			t.Errorf("word %q reduced more than once", word)
		}
		counts[word] = pair.Value.(int)
	}
	return counts, client
}

func TestWordCount(t *testing.T) {
	counts, _ := runWordCount(t, []string{"a a b", "b c", "a"}, 4)

	want := map[string]int{"a": 3, "b": 2, "c": 1}
	if len(counts) != len(want) {
		t.Fatalf("got %d distinct words, want %d", len(counts), len(want))
	}
	for word, n := range want {
		if counts[word] != n {
			t.Errorf("count[%q] = %d, want %d", word, counts[word], n)
		}
	}
}

func TestMoreWorkersThanInput(t *testing.T) {
	counts, _ := runWordCount(t, []string{"x"}, 8)
	if len(counts) != 1 || counts["x"] != 1 {
		t.Fatalf("counts = %v, want {x: 1}", counts)
	}
}

func TestSingleWorkerSingleInput(t *testing.T) {
	counts, client := runWordCount(t, []string{"solo"}, 1)
	if counts["solo"] != 1 {
		t.Fatalf("counts = %v, want {solo: 1}", counts)
	}
	if got := client.emitted.Load(); got != 1 {
		t.Fatalf("emitted = %d, want 1", got)
	}
}

func TestEmptyInput(t *testing.T) {
	var output []OutputPair
	client := &wordCountClient{}

	job := StartJob(client, nil, &output, 2)
	if job == nil {
		t.Fatal("StartJob returned nil for valid arguments")
	}
	WaitForJob(job)

	state := GetJobState(job)
	if state.Stage != StageReduce {
		t.Errorf("final stage = %v, want %v", state.Stage, StageReduce)
	}
	if state.Percentage != 0 {
		t.Errorf("final percentage = %v, want 0 with an empty total", state.Percentage)
	}
	CloseJob(job)

	if len(output) != 0 {
		t.Errorf("output has %d pairs, want 0", len(output))
	}
}

func TestReducedCountsCoverEmittedPairs(t *testing.T) {
	lines := []string{
		"the quick brown fox", "jumps over the lazy dog",
		"the fox", "dog days", "quick quick quick",
	}
	counts, client := runWordCount(t, lines, 3)

	// One output pair per distinct word, and all emitted pairs accounted
	// for by the group sums.
	total := 0
	for _, n := range counts {
		total += n
	}
	if got := client.emitted.Load(); int64(total) != got {
		t.Errorf("sum of reduced counts = %d, want %d emitted pairs", total, got)
	}
}

func TestStateProgression(t *testing.T) {
	lines := make([]string, 200)
	for i := range lines {
		lines[i] = "alpha beta gamma delta epsilon"
	}
	input := make([]InputPair, len(lines))
	for i, line := range lines {
		input[i] = InputPair{Key: i, Value: line}
	}

	var output []OutputPair
	client := &wordCountClient{}
	job := StartJob(client, input, &output, 4)
	if job == nil {
		t.Fatal("StartJob returned nil for valid arguments")
	}

	lastStage := StageUndefined
	for {
		state := GetJobState(job)
		if state.Stage < lastStage {
			t.Fatalf("stage went backwards: %v after %v", state.Stage, lastStage)
		}
		lastStage = state.Stage
		if state.Percentage < 0 || state.Percentage > 100 {
			t.Fatalf("percentage out of range: %v", state.Percentage)
		}
		if state.Stage == StageReduce && state.Percentage == 100 {
			break
		}
	}

	CloseJob(job)

	state := GetJobState(job)
	if state.Stage != StageReduce || state.Percentage != 100 {
		t.Errorf("final state = %+v, want REDUCE at 100%%", state)
	}
}

func TestWaitForJobIdempotent(t *testing.T) {
	var output []OutputPair
	client := &wordCountClient{}
	job := StartJob(client, []InputPair{{Key: 0, Value: "a b"}}, &output, 2)

	WaitForJob(job)
	WaitForJob(job)
	CloseJob(job)

	if len(output) != 2 {
		t.Fatalf("output has %d pairs, want 2", len(output))
	}
}

func TestStartJobValidation(t *testing.T) {
	var output []OutputPair
	if job := StartJob(nil, nil, &output, 2); job != nil {
		t.Error("StartJob accepted a nil client")
	}
	if job := StartJob(&wordCountClient{}, nil, nil, 2); job != nil {
		t.Error("StartJob accepted a nil output vector")
	}
	if job := StartJob(&wordCountClient{}, nil, &output, 0); job != nil {
		t.Error("StartJob accepted zero workers")
	}
	if GetJobState(nil).Stage != StageUndefined {
		t.Error("GetJobState(nil) should report UNDEFINED")
	}
	// Nil handles are ignored rather than dereferenced.
	WaitForJob(nil)
	CloseJob(nil)
}

func TestJobIDsAreUnique(t *testing.T) {
	var out1, out2 []OutputPair
	j1 := StartJob(&wordCountClient{}, nil, &out1, 1)
	j2 := StartJob(&wordCountClient{}, nil, &out2, 1)
	if j1.ID() == j2.ID() {
		t.Error("two jobs share one id")
	}
	CloseJob(j1)
	CloseJob(j2)
}
