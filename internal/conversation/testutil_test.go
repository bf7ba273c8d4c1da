package conversation

import (
	"context"
	"sync"
)

// fakeClient replays scripted completions in order and records every
// call it receives.
type fakeClient struct {
	mu      sync.Mutex
	replies []string
	err     error
	calls   []fakeCall
}

type fakeCall struct {
	System      string
	User        string
	Temperature float32
}

func (f *fakeClient) Complete(_ context.Context, system, user string, temperature float32) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, fakeCall{System: system, User: user, Temperature: temperature})
	if len(f.replies) == 0 {
		// Scripted replies exhausted; fail with err if one is set.
		return "", f.err
	}
	reply := f.replies[0]
	f.replies = f.replies[1:]
	return reply, nil
}

func (f *fakeClient) lastCall() fakeCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[len(f.calls)-1]
}
