package asyncdb

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestQueue_FIFO(t *testing.T) {
	q := newRequestQueue()

	reqs := []*request{newStopRequest(), newStopRequest(), newStopRequest()}
	for _, r := range reqs {
		q.push(r)
	}

	for i, want := range reqs {
		got, ok := q.tryPop()
		require.True(t, ok)
		assert.Same(t, want, got, "position %d", i)
	}

	_, ok := q.tryPop()
	assert.False(t, ok)
	assert.Zero(t, q.len())
}

func TestRequestQueue_PopWaitBlocksUntilPush(t *testing.T) {
	q := newRequestQueue()
	want := newStopRequest()

	got := make(chan *request, 1)
	go func() { got <- q.popWait() }()

	select {
	case r := <-got:
		t.Fatalf("popWait returned %v from an empty queue", r)
	case <-time.After(20 * time.Millisecond):
	}

	q.push(want)
	select {
	case r := <-got:
		assert.Same(t, want, r)
	case <-time.After(time.Second):
		t.Fatal("popWait did not wake after push")
	}
}

func TestRequestQueue_ConcurrentPushersKeepPerPusherOrder(t *testing.T) {
	q := newRequestQueue()

	const pushers = 8
	const perPusher = 200
	type tag struct{ pusher, seq int }
	tags := make(map[*request]tag, pushers*perPusher)
	var tagMu sync.Mutex

	var wg sync.WaitGroup
	for p := 0; p < pushers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perPusher; i++ {
				r := newStopRequest()
				tagMu.Lock()
				tags[r] = tag{pusher: p, seq: i}
				tagMu.Unlock()
				q.push(r)
			}
		}(p)
	}
	wg.Wait()

	// Global pops preserve each pusher's submission order.
	lastSeq := make([]int, pushers)
	for i := range lastSeq {
		lastSeq[i] = -1
	}
	popped := 0
	for {
		r, ok := q.tryPop()
		if !ok {
			break
		}
		popped++
		tg := tags[r]
		require.Greater(t, tg.seq, lastSeq[tg.pusher],
			"pusher %d reordered", tg.pusher)
		lastSeq[tg.pusher] = tg.seq
	}
	assert.Equal(t, pushers*perPusher, popped)
}
