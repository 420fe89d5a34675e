package query

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/sma-adp-client/pkg/errors"
)

type teacherPatch struct {
	ID   int
	Name string
}

func TestMutationInvalidatesBeforeReturning(t *testing.T) {
	ctx := context.Background()
	c := NewClient(testConfig(), Options{})
	listKey := NewKey("teachers", "list", 1)

	server := []string{"Pak Budi"}
	list := Query[[]string]{Key: listKey, Fetch: func(context.Context) ([]string, error) {
		return append([]string(nil), server...), nil
	}}
	_, err := Fetch(ctx, c, list)
	require.NoError(t, err)

	var succeeded string
	update := NewMutation(c, MutationConfig[teacherPatch, string]{
		Name: "teachers.update",
		Fn: func(ctx context.Context, in teacherPatch) (string, error) {
			server[0] = in.Name
			return in.Name, nil
		},
		Invalidates: func(in teacherPatch, _ string) []Key {
			return []Key{NewKey("teachers", "list"), NewKey("teachers", "retrieve", in.ID)}
		},
		OnSuccess: func(out string, _ teacherPatch) { succeeded = out },
	})

	_, err = update.Mutate(ctx, teacherPatch{ID: 1, Name: "Pak Budi S."})
	require.NoError(t, err)
	assert.Equal(t, "Pak Budi S.", succeeded)
	assert.False(t, update.IsPending())

	res, err := Fetch(ctx, c, list)
	require.NoError(t, err)
	assert.Equal(t, []string{"Pak Budi S."}, res.Data)
}

func TestMutationRetriesOnlyWithoutResponse(t *testing.T) {
	ctx := context.Background()
	c := NewClient(testConfig(), Options{})

	var calls int32
	lost := NewMutation(c, MutationConfig[int, int]{Fn: func(ctx context.Context, in int) (int, error) {
		if atomic.AddInt32(&calls, 1) < 3 {
			return 0, appErrors.Fetch(errors.New("connection reset"), 0, "")
		}
		return in, nil
	}})
	out, err := lost.Mutate(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, 7, out)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))

	atomic.StoreInt32(&calls, 0)
	var failed error
	rejected := NewMutation(c, MutationConfig[int, int]{
		Fn: func(ctx context.Context, in int) (int, error) {
			atomic.AddInt32(&calls, 1)
			return 0, appErrors.Fetch(nil, http.StatusInternalServerError, "boom")
		},
		OnError: func(err error, _ int) { failed = err },
	})
	_, err = rejected.Mutate(ctx, 1)
	require.Error(t, err)
	assert.Equal(t, err, failed)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestMutationFailureKeepsCache(t *testing.T) {
	ctx := context.Background()
	c := NewClient(testConfig(), Options{})
	key := NewKey("students", "list", 1)
	_, err := Fetch(ctx, c, Query[[]string]{Key: key, Fetch: func(context.Context) ([]string, error) { return []string{"a"}, nil }})
	require.NoError(t, err)

	m := NewMutation(c, MutationConfig[string, string]{
		Fn: func(ctx context.Context, in string) (string, error) {
			return "", appErrors.Validation("", map[string]string{"name": "This field is required"})
		},
		Invalidates: func(string, string) []Key { return []Key{NewKey("students", "list")} },
	})
	_, err = m.Mutate(ctx, "")
	require.Error(t, err)
	assert.False(t, c.Snapshot(key).Stale)
}

func TestMutationIsPendingWhileRunning(t *testing.T) {
	c := NewClient(testConfig(), Options{})
	release := make(chan struct{})
	m := NewMutation(c, MutationConfig[int, int]{Retry: -1, Fn: func(ctx context.Context, in int) (int, error) {
		<-release
		return in, nil
	}})

	done := make(chan struct{})
	go func() {
		_, _ = m.Mutate(context.Background(), 1)
		close(done)
	}()
	require.Eventually(t, m.IsPending, time.Second, time.Millisecond)
	close(release)
	<-done
	assert.False(t, m.IsPending())
}
