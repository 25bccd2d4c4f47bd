package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func TestFake_AfterFiresOnAdvance(t *testing.T) {
	c := Fake(epoch)
	ch := c.After(60 * time.Second)

	c.Advance(59 * time.Second)
	select {
	case <-ch:
		t.Fatal("fired before deadline")
	default:
	}

	c.Advance(time.Second)
	select {
	case got := <-ch:
		assert.Equal(t, epoch.Add(60*time.Second), got)
	default:
		t.Fatal("did not fire at deadline")
	}
	assert.Zero(t, c.PendingCount())
}

func TestFake_AfterNonPositiveIsReady(t *testing.T) {
	c := Fake(epoch)
	select {
	case got := <-c.After(0):
		assert.Equal(t, epoch, got)
	default:
		t.Fatal("zero duration should be ready immediately")
	}
}

func TestFake_WaitForTimers(t *testing.T) {
	c := Fake(epoch)
	done := make(chan struct{})

	go func() {
		c.Sleep(30 * time.Second)
		close(done)
	}()

	c.WaitForTimers(1)
	require.Equal(t, 1, c.PendingCount())
	c.Advance(30 * time.Second)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sleeper was not woken")
	}
}

func TestFake_NowMovesOnlyOnAdvance(t *testing.T) {
	c := Fake(epoch)
	assert.Equal(t, epoch, c.Now())
	c.Advance(50 * time.Second)
	assert.Equal(t, epoch.Add(50*time.Second), c.Now())
}
