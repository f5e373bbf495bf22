package intercept

import (
	"context"
	"errors"
	"testing"

	"github.com/hostgate/hostgate/pkg/httpmsg"
)

func TestChainAppliesInRegistrationOrder(t *testing.T) {
	c := NewChain()
	var order []int
	for i := 0; i < 3; i++ {
		i := i
		c.Add(TransformFunc(func(ctx context.Context, msg *httpmsg.Message) error {
			order = append(order, i)
			return nil
		}))
	}

	msg := httpmsg.NewRequest("GET", "/", 1, 1)
	if err := c.Apply(context.Background(), msg); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if len(order) != 3 || order[0] != 0 || order[1] != 1 || order[2] != 2 {
		t.Fatalf("expected registration order, got %v", order)
	}
}

func TestChainStopsOnFirstError(t *testing.T) {
	c := NewChain()
	called := false
	c.Add(TransformFunc(func(context.Context, *httpmsg.Message) error {
		return errors.New("boom")
	}))
	c.Add(TransformFunc(func(context.Context, *httpmsg.Message) error {
		called = true
		return nil
	}))

	err := c.Apply(context.Background(), httpmsg.NewRequest("GET", "/", 1, 1))
	if err == nil {
		t.Fatal("expected error from first transform")
	}
	if called {
		t.Fatal("second transform should not have run")
	}
}

func TestHeaderInjector(t *testing.T) {
	msg := httpmsg.NewRequest("GET", "/", 1, 1)
	inj := HeaderInjector{Name: "X-Proxy", Value: "hostgate"}
	if err := inj.Apply(context.Background(), msg); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	v, ok := msg.Headers.Get("X-Proxy")
	if !ok || v != "hostgate" {
		t.Fatalf("expected injected header, got %q ok=%v", v, ok)
	}
}

func TestMaxHeaderCountRejectsOverLimit(t *testing.T) {
	msg := httpmsg.NewRequest("GET", "/", 1, 1)
	msg.Headers.Add("A", "1")
	msg.Headers.Add("B", "2")
	guard := MaxHeaderCount{Limit: 1}
	if err := guard.Apply(context.Background(), msg); err == nil {
		t.Fatal("expected error for exceeding header limit")
	}
}
