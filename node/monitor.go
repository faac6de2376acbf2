package node

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/skillsenselab/docflow/logger"
	"github.com/skillsenselab/docflow/run"
)

// memGrowthWarnBytes is the heap growth during one node execution that
// triggers a warning.
const memGrowthWarnBytes = 100 << 20 // 100MB

// Monitor consumes a node's result stream under supervision. It
// measures wall-clock time and heap high-water mark, and converts any
// panic from the stream into a single terminal failed result carrying
// the panic text and the elapsed time. A failure never propagates past
// this boundary.
//
// If the stream ends without a terminal result, one is synthesized so
// step accounting stays sound.
func Monitor(ctx context.Context, log *logger.Logger, n Node, rc *run.Context, input any) []run.Result {
	start := time.Now()
	startHeap := heapAlloc()
	peakHeap := startHeap

	results := make([]run.Result, 0, 4)
	terminal := false

	func() {
		defer func() {
			if p := recover(); p != nil {
				results = append(results, run.Failed(
					n.Name(),
					fmt.Errorf("node %s panicked: %v", n.Name(), p),
					time.Since(start),
				))
				terminal = true
				if log != nil {
					log.Error("node panicked", logger.Fields(
						logger.FieldNode, n.Name(),
						logger.FieldError, fmt.Sprint(p),
					))
				}
			}
		}()

		for r := range n.Execute(ctx, rc, input) {
			results = append(results, r)
			if h := heapAlloc(); h > peakHeap {
				peakHeap = h
			}
			// The contract allows exactly one terminal result; stop
			// consuming so a misbehaving stream cannot settle the step
			// twice and push progress past 1.0.
			if r.Terminal() {
				terminal = true
				break
			}
		}
	}()

	if !terminal {
		results = append(results, run.Failed(
			n.Name(),
			fmt.Errorf("node %s ended without a terminal result", n.Name()),
			time.Since(start),
		))
	}

	if peakHeap > startHeap && peakHeap-startHeap > memGrowthWarnBytes && log != nil {
		log.Warn("node memory growth exceeded threshold", logger.Fields(
			logger.FieldNode, n.Name(),
			"growth_bytes", peakHeap-startHeap,
			"threshold_bytes", uint64(memGrowthWarnBytes),
		))
	}

	return results
}

func heapAlloc() uint64 {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return ms.HeapAlloc
}
