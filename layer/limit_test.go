package layer_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/momentics/hioload-mw/api"
	"github.com/momentics/hioload-mw/layer"
)

func TestConcurrencyLimitBoundsInFlight(t *testing.T) {
	var (
		mu      sync.Mutex
		current int
		peak    int
	)
	inner := api.ServiceFunc[struct{}, int, int](func(_ api.Context[struct{}], n int) (int, error) {
		mu.Lock()
		current++
		if current > peak {
			peak = current
		}
		mu.Unlock()
		time.Sleep(10 * time.Millisecond)
		mu.Lock()
		current--
		mu.Unlock()
		return n, nil
	})
	svc := layer.NewConcurrencyLimitLayer[struct{}, int, int](2).Layer(inner)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := svc.Serve(newCtx(), i); err != nil {
				t.Errorf("Serve: %v", err)
			}
		}(i)
	}
	wg.Wait()
	if peak > 2 {
		t.Errorf("peak concurrency %d exceeds limit 2", peak)
	}
}

func TestLimiterFIFOAndCancellation(t *testing.T) {
	l := layer.NewLimiter(1, 0)
	if err := l.Acquire(context.Background()); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	gaveUp := make(chan error, 1)
	go func() { gaveUp <- l.Acquire(ctx) }()

	order := make(chan int, 2)
	time.Sleep(10 * time.Millisecond)
	go func() {
		if l.Acquire(context.Background()) == nil {
			order <- 1
		}
	}()
	time.Sleep(10 * time.Millisecond)

	cancel()
	if err := <-gaveUp; !errors.Is(err, context.Canceled) {
		t.Fatalf("cancelled waiter returned %v", err)
	}

	l.Release()
	select {
	case <-order:
	case <-time.After(time.Second):
		t.Fatal("live waiter was skipped")
	}
	if l.InFlight() != 1 {
		t.Errorf("InFlight = %d, want 1", l.InFlight())
	}
	l.Release()
	if l.InFlight() != 0 {
		t.Errorf("InFlight = %d, want 0", l.InFlight())
	}
}

func TestLimiterRejectsWhenQueueFull(t *testing.T) {
	l := layer.NewLimiter(1, 1)
	_ = l.Acquire(context.Background())
	go l.Acquire(context.Background())
	time.Sleep(10 * time.Millisecond)
	if err := l.Acquire(context.Background()); !errors.Is(err, layer.ErrLimitReached) {
		t.Errorf("err = %v, want ErrLimitReached", err)
	}
}
