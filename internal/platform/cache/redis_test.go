package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

type fakeKV struct {
	data   map[string]string
	ttls   map[string]time.Duration
	getErr error
}

func newFakeKV() *fakeKV {
	return &fakeKV{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeKV) Get(ctx context.Context, key string) *goredis.StringCmd {
	if f.getErr != nil {
		return goredis.NewStringResult("", f.getErr)
	}
	v, ok := f.data[key]
	if !ok {
		return goredis.NewStringResult("", goredis.Nil)
	}
	return goredis.NewStringResult(v, nil)
}

func (f *fakeKV) Set(ctx context.Context, key string, value interface{}, exp time.Duration) *goredis.StatusCmd {
	switch v := value.(type) {
	case []byte:
		f.data[key] = string(v)
	case string:
		f.data[key] = v
	}
	f.ttls[key] = exp
	return goredis.NewStatusResult("OK", nil)
}

type payload struct {
	Summary string `json:"summary"`
	Risk    string `json:"risk"`
}

func TestJSON_RoundTripWithPrefixAndTTL(t *testing.T) {
	kv := newFakeKV()
	c := NewJSON(kv, "notesum:", time.Hour)
	ctx := context.Background()

	if err := c.SetJSON(ctx, "abc", payload{Summary: "s", Risk: "low"}); err != nil {
		t.Fatalf("SetJSON: %v", err)
	}
	if _, ok := kv.data["notesum:abc"]; !ok {
		t.Fatalf("expected prefixed key, have %v", kv.data)
	}
	if kv.ttls["notesum:abc"] != time.Hour {
		t.Errorf("ttl = %v", kv.ttls["notesum:abc"])
	}

	var got payload
	if err := c.GetJSON(ctx, "abc", &got); err != nil {
		t.Fatalf("GetJSON: %v", err)
	}
	if got.Summary != "s" || got.Risk != "low" {
		t.Errorf("got %+v", got)
	}
}

func TestJSON_Miss(t *testing.T) {
	c := NewJSON(newFakeKV(), "p:", time.Minute)
	var got payload
	if err := c.GetJSON(context.Background(), "nope", &got); !errors.Is(err, ErrMiss) {
		t.Fatalf("expected ErrMiss, got %v", err)
	}
}

func TestJSON_BackendError(t *testing.T) {
	kv := newFakeKV()
	kv.getErr = errors.New("connection refused")
	c := NewJSON(kv, "p:", time.Minute)
	var got payload
	err := c.GetJSON(context.Background(), "k", &got)
	if err == nil || errors.Is(err, ErrMiss) {
		t.Fatalf("expected backend error, got %v", err)
	}
}

func TestJSON_CorruptValue(t *testing.T) {
	kv := newFakeKV()
	kv.data["p:k"] = "{not json"
	c := NewJSON(kv, "p:", time.Minute)
	var got payload
	if err := c.GetJSON(context.Background(), "k", &got); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestConnect_BadURL(t *testing.T) {
	if _, err := Connect(context.Background(), "://bad"); err == nil {
		t.Fatal("expected parse error")
	}
}
