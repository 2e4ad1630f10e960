package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bloom-go/bloom/pkg/vdom"
)

func TestGeneratorDoesNotRunAhead(t *testing.T) {
	var progress atomic.Int32
	g := Generate(func(y *Yielder) (*vdom.VNode, error) {
		for i := 0; i < 3; i++ {
			progress.Store(int32(i))
			if err := y.Yield(vdom.Textf("%d", i)); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	defer g.Close()
	ctx := context.Background()

	if progress.Load() != 0 {
		t.Fatal("body ran before the first pull")
	}
	st, err := g.Next(ctx)
	if err != nil || st.Tree.Text != "0" {
		t.Fatalf("first Next = %v, %v", st, err)
	}
	time.Sleep(10 * time.Millisecond)
	if got := progress.Load(); got != 0 {
		t.Errorf("body advanced to %d without a pull", got)
	}

	st, _ = g.Next(ctx)
	if st.Tree.Text != "1" {
		t.Errorf("second tree = %v", st.Tree)
	}
	st, _ = g.Next(ctx)
	if st.Tree.Text != "2" {
		t.Errorf("third tree = %v", st.Tree)
	}

	st, err = g.Next(ctx)
	if err != nil || !st.Done || st.Tree != nil {
		t.Errorf("final Next = %+v, %v; want Done without tree", st, err)
	}
	st, err = g.Next(ctx)
	if err != nil || !st.Done {
		t.Errorf("Next after exhaustion = %+v, %v", st, err)
	}
}

func TestGeneratorFinalTree(t *testing.T) {
	g := Generate(func(y *Yielder) (*vdom.VNode, error) {
		if err := y.Yield(vdom.Text("first")); err != nil {
			return nil, err
		}
		return vdom.Text("last"), nil
	})
	ctx := context.Background()
	g.Next(ctx)
	st, err := g.Next(ctx)
	if err != nil || !st.Done || st.Tree == nil || st.Tree.Text != "last" {
		t.Errorf("Next = %+v, %v; want Done with final tree", st, err)
	}
}

func TestGeneratorCloseReleasesBody(t *testing.T) {
	released := make(chan error, 1)
	g := Generate(func(y *Yielder) (*vdom.VNode, error) {
		y.Yield(vdom.Text("a"))
		err := y.Yield(vdom.Text("b"))
		released <- err
		return nil, err
	})
	g.Next(context.Background())
	g.Next(context.Background())
	g.Close()

	select {
	case err := <-released:
		if !errors.Is(err, ErrProducerClosed) {
			t.Errorf("Yield after Close = %v, want ErrProducerClosed", err)
		}
	case <-time.After(time.Second):
		t.Fatal("body still blocked after Close")
	}

	if _, err := g.Next(context.Background()); !errors.Is(err, ErrProducerClosed) {
		t.Errorf("Next after Close = %v, want ErrProducerClosed", err)
	}
}

func TestGeneratorContextCancelledOnClose(t *testing.T) {
	g := Generate(func(y *Yielder) (*vdom.VNode, error) {
		<-y.Context().Done()
		return nil, y.Context().Err()
	})
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	go func() {
		time.Sleep(5 * time.Millisecond)
		g.Close()
	}()
	if _, err := g.Next(ctx); !errors.Is(err, ErrProducerClosed) {
		t.Errorf("Next = %v, want ErrProducerClosed", err)
	}
}

func TestGeneratorPanic(t *testing.T) {
	g := Generate(func(y *Yielder) (*vdom.VNode, error) {
		panic("bad body")
	})
	_, err := g.Next(context.Background())
	var pe *PanicError
	if !errors.As(err, &pe) || pe.Value != "bad body" || len(pe.Stack) == 0 {
		t.Errorf("Next = %v, want PanicError", err)
	}
}

func TestGeneratorError(t *testing.T) {
	boom := errors.New("boom")
	g := Generate(func(y *Yielder) (*vdom.VNode, error) { return nil, boom })
	if _, err := g.Next(context.Background()); !errors.Is(err, boom) {
		t.Errorf("Next = %v, want boom", err)
	}
}

func TestStatic(t *testing.T) {
	tree := vdom.P("same")
	p := Static(tree)
	for i := 0; i < 3; i++ {
		st, err := p.Next(context.Background())
		if err != nil || st.Done || st.Tree != tree {
			t.Fatalf("Next #%d = %+v, %v", i, st, err)
		}
	}
}
