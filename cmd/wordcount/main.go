package main

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/Noamshabat1/Operating-Systems/mapreduce"
	"github.com/Noamshabat1/Operating-Systems/utils"
)

// WordCountConfig holds the driver parameters.
type WordCountConfig struct {
	Workers  int    `json:"workers"`
	LogLevel string `json:"log_level"`
}

// wordKey orders words lexicographically.
type wordKey string

func (k wordKey) Less(other mapreduce.Key) bool {
	return k < other.(wordKey)
}

// wordCountClient emits (word, 1) per word and reduces groups to counts.
type wordCountClient struct{}

func (wordCountClient) Map(key, value any, ctx *mapreduce.MapContext) {
	for _, word := range strings.Fields(value.(string)) {
		mapreduce.Emit2(wordKey(word), 1, ctx)
	}
}

func (wordCountClient) Reduce(group []mapreduce.IntermediatePair, job *mapreduce.Job) {
	count := 0
	for _, pair := range group {
		count += pair.Value.(int)
	}
	mapreduce.Emit3(group[0].Key, count, job)
}

func main() {
	if len(os.Args) < 3 {
		fmt.Fprintf(os.Stderr, "Usage: %s <config_file> <input_file>...\n", os.Args[0])
		os.Exit(1)
	}

	config := utils.LoadConfig[WordCountConfig](os.Args[1])
	if config.Workers < 1 {
		config.Workers = 4
	}
	utils.InitLogger(config.LogLevel, "wordcount")

	var input []mapreduce.InputPair
	for _, path := range os.Args[2:] {
		content, err := os.ReadFile(path)
		if err != nil {
			utils.ErrorLog.Error("Could not read input file", "file", path, "error", err)
			os.Exit(1)
		}
		input = append(input, mapreduce.InputPair{Key: path, Value: string(content)})
	}

	var output []mapreduce.OutputPair
	job := mapreduce.StartJob(wordCountClient{}, input, &output, config.Workers)
	if job == nil {
		os.Exit(1)
	}

	utils.InfoLog.Info("Job running", "job_id", job.ID(), "files", len(input))
	mapreduce.CloseJob(job)

	sort.Slice(output, func(a, b int) bool {
		return output[a].Key.Less(output[b].Key)
	})
	for _, pair := range output {
		fmt.Printf("%s %d\n", pair.Key.(wordKey), pair.Value.(int))
	}
}
