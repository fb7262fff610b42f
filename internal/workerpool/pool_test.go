package workerpool

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPool_RunsSubmittedJobs(t *testing.T) {
	pool := New(4)
	defer pool.Stop()

	var count int64
	const jobs = 50
	done := make(chan struct{}, jobs)
	for i := 0; i < jobs; i++ {
		pool.Submit(func() {
			atomic.AddInt64(&count, 1)
			done <- struct{}{}
		})
	}
	for i := 0; i < jobs; i++ {
		<-done
	}
	require.Equal(t, int64(jobs), atomic.LoadInt64(&count))
}

func TestPool_StopDrainsRunningWorkers(t *testing.T) {
	pool := New(2)
	started := make(chan struct{})
	release := make(chan struct{})
	pool.Submit(func() {
		close(started)
		<-release
	})
	<-started

	stopped := make(chan struct{})
	go func() {
		pool.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
		t.Fatal("Stop returned before the running job finished")
	case <-time.After(20 * time.Millisecond):
	}

	close(release)
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("Stop never returned after job finished")
	}
}
