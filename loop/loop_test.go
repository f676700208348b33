package loop

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
)

func startLoop(t *testing.T, clk clock.Clock) *Loop {
	t.Helper()
	l := New(clk)
	ctx, cancel := context.WithCancel(context.Background())
	go l.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-l.Done()
	})
	return l
}

func TestPostRunsInOrder(t *testing.T) {
	l := startLoop(t, nil)

	var got []int
	for i := range 100 {
		l.Post(func() { got = append(got, i) })
	}
	l.Call(func() {})

	if len(got) != 100 {
		t.Fatalf("ran %d functions, want 100", len(got))
	}
	for i, v := range got {
		if v != i {
			t.Fatalf("got[%d] = %d, out of order", i, v)
		}
	}
}

func TestConcurrentPostersNeverOverlap(t *testing.T) {
	l := startLoop(t, nil)

	var (
		running int
		maxSeen int
		count   int
		wg      sync.WaitGroup
	)
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 50 {
				l.Post(func() {
					running++
					if running > maxSeen {
						maxSeen = running
					}
					count++
					running--
				})
			}
		}()
	}
	wg.Wait()
	l.Call(func() {})

	if count != 400 {
		t.Errorf("count = %d, want 400", count)
	}
	if maxSeen != 1 {
		t.Errorf("saw %d functions running at once", maxSeen)
	}
}

func TestAfterFuncUsesClock(t *testing.T) {
	mock := clock.NewMock()
	l := startLoop(t, mock)

	fired := make(chan struct{}, 1)
	l.Call(func() {
		l.AfterFunc(3*time.Second, func() { fired <- struct{}{} })
	})

	mock.Add(2 * time.Second)
	select {
	case <-fired:
		t.Fatal("fired before deadline")
	case <-time.After(20 * time.Millisecond):
	}

	mock.Add(time.Second)
	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("did not fire after deadline")
	}
}

func TestAfterFuncStop(t *testing.T) {
	mock := clock.NewMock()
	l := startLoop(t, mock)

	fired := make(chan struct{}, 1)
	var timer *Timer
	l.Call(func() {
		timer = l.AfterFunc(time.Second, func() { fired <- struct{}{} })
	})
	if !timer.Stop() {
		t.Error("Stop on pending timer should report true")
	}

	mock.Add(2 * time.Second)
	select {
	case <-fired:
		t.Fatal("stopped timer fired")
	case <-time.After(20 * time.Millisecond):
	}
}

func TestPostAfterStop(t *testing.T) {
	l := New(nil)
	ctx, cancel := context.WithCancel(context.Background())
	go l.Run(ctx)
	cancel()
	<-l.Done()

	if l.Post(func() {}) {
		t.Error("Post after stop should report false")
	}
	if l.Call(func() {}) {
		t.Error("Call after stop should report false")
	}
}
