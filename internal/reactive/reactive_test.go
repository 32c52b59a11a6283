package reactive

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscribeReceivesCurrentSnapshotFirst(t *testing.T) {
	l := NewLatest[int]()
	l.Publish(42)

	ch, cancel := l.Subscribe()
	defer cancel()

	select {
	case v := <-ch:
		assert.Equal(t, 42, v)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for initial snapshot")
	}
}

func TestSubscribeBeforeAnyPublishGetsNothingUntilFirstWrite(t *testing.T) {
	l := NewLatest[string]()
	ch, cancel := l.Subscribe()
	defer cancel()

	select {
	case <-ch:
		t.Fatal("unexpected value before first publish")
	case <-time.After(10 * time.Millisecond):
	}

	l.Publish("hello")
	select {
	case v := <-ch:
		assert.Equal(t, "hello", v)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for published value")
	}
}

func TestSlowReaderAlwaysSeesLatestValue(t *testing.T) {
	l := NewLatest[int]()
	ch, cancel := l.Subscribe()
	defer cancel()

	for i := 0; i < 10; i++ {
		l.Publish(i)
	}

	v, ok := l.Get()
	require.True(t, ok)
	assert.Equal(t, 9, v)

	select {
	case got := <-ch:
		assert.Equal(t, 9, got)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for latest value")
	}
}

func TestCancelUnregistersSubscriber(t *testing.T) {
	l := NewLatest[int]()
	_, cancel := l.Subscribe()
	assert.Equal(t, 1, l.SubscriberCount())
	cancel()
	assert.Equal(t, 0, l.SubscriberCount())
}
