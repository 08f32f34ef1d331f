package console

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestReadOrder(t *testing.T) {
	c := New(WithInput("ab"))
	var got []int
	for {
		ch, err := c.Read(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		if ch == EOF {
			break
		}
		got = append(got, ch)
	}
	if len(got) != 2 || got[0] != 'a' || got[1] != 'b' {
		t.Errorf("read %v, want [97 98]", got)
	}
}

func TestTryReadDoesNotBlock(t *testing.T) {
	c := New()
	if _, ok, err := c.TryRead(); ok || err != nil {
		t.Fatalf("TryRead on empty input = ok %v, err %v", ok, err)
	}
	c.FeedInput('x')
	ch, ok, err := c.TryRead()
	if !ok || err != nil || ch != 'x' {
		t.Errorf("TryRead = %q %v %v", ch, ok, err)
	}
	if c.IsAwaitingInput() {
		t.Error("TryRead must not change the state")
	}
}

func TestUnget(t *testing.T) {
	c := New(WithInput("12"))
	ctx := context.Background()
	first, _ := c.Read(ctx)
	if err := c.Unget(first); err != nil {
		t.Fatal(err)
	}
	if err := c.Unget('9'); err == nil {
		t.Error("a second pushed-back character must be rejected")
	}
	for _, want := range []int{'1', '2', EOF} {
		if ch, _ := c.Read(ctx); ch != want {
			t.Errorf("read %d, want %d", ch, want)
		}
	}
}

func TestBlockingReadWaitsForInput(t *testing.T) {
	c := New()
	done := make(chan int)
	go func() {
		ch, _ := c.Read(context.Background())
		done <- ch
	}()
	deadline := time.Now().Add(5 * time.Second)
	for !c.IsAwaitingInput() {
		if time.Now().After(deadline) {
			t.Fatal("reader never started waiting")
		}
		time.Sleep(time.Millisecond)
	}
	c.FeedInput('z')
	if ch := <-done; ch != 'z' {
		t.Errorf("read %q, want 'z'", ch)
	}
	if c.State() != Ready {
		t.Errorf("state after read = %s", c.State())
	}
}

func TestStopWinsOverQueuedInput(t *testing.T) {
	c := New(WithInput("queued"))
	c.RequestStop()
	if _, err := c.Read(context.Background()); !errors.Is(err, ErrStopped) {
		t.Errorf("Read after stop = %v", err)
	}
	if _, _, err := c.TryRead(); !errors.Is(err, ErrStopped) {
		t.Errorf("TryRead after stop = %v", err)
	}
}

func TestStopWakesBlockedReader(t *testing.T) {
	c := New()
	done := make(chan error)
	go func() {
		_, err := c.Read(context.Background())
		done <- err
	}()
	c.RequestStop()
	select {
	case err := <-done:
		if !errors.Is(err, ErrStopped) {
			t.Errorf("err = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("reader was not woken")
	}
}

func TestContextCancelsRead(t *testing.T) {
	c := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.Read(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v", err)
	}
}

func TestOutputAndEcho(t *testing.T) {
	var tee strings.Builder
	c := New(WithInput("7\n"), WithEcho(true), WithOutput(&tee))
	c.Write([]byte("n? "))
	c.Read(context.Background())
	c.Read(context.Background())
	if got := c.CurrentOutputText(); got != "n? 7\n" {
		t.Errorf("output = %q", got)
	}
	if tee.String() != "n? 7\n" {
		t.Errorf("tee = %q", tee.String())
	}
}
