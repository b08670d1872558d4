package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/Noamshabat1/Operating-Systems/uthreads"
	"github.com/Noamshabat1/Operating-Systems/utils"
)

const demoQuantums = 50

// main spawns a few sleeping workers and lets the round-robin scheduler
// run them until enough quantums have elapsed, then reports the split.
func main() {
	quantumUsecs := 10_000
	if len(os.Args) > 1 {
		q, err := strconv.Atoi(os.Args[1])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Usage: %s [quantum_usecs]\n", os.Args[0])
			os.Exit(1)
		}
		quantumUsecs = q
	}

	utils.InitLogger("info", "threads")

	if uthreads.Init(quantumUsecs) != 0 {
		os.Exit(1)
	}

	for i := 0; i < 3; i++ {
		sleepFor := i + 1
		tid := uthreads.Spawn(func() {
			for {
				uthreads.Sleep(sleepFor)
			}
		})
		utils.InfoLog.Info("Worker spawned", "tid", tid, "sleep_quantums", sleepFor)
	}

	for uthreads.GetTotalQuantums() < demoQuantums {
	}

	fmt.Printf("total quantums: %d\n", uthreads.GetTotalQuantums())
	for tid := 0; tid < 4; tid++ {
		fmt.Printf("thread %d ran %d quantums\n", tid, uthreads.GetQuantums(tid))
	}

	uthreads.Terminate(0)
}
