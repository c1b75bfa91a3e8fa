package testutil

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDeterministicClock_Steps(t *testing.T) {
	c := NewDeterministicClock()

	assert.Equal(t, DefaultEpoch, c.Now())
	assert.Equal(t, DefaultEpoch.Add(time.Minute), c.Now())
	assert.Equal(t, DefaultEpoch.Add(2*time.Minute), c.Current())
	assert.Equal(t, DefaultEpoch.Add(2*time.Minute), c.Now())
}

func TestDeterministicClock_Reset(t *testing.T) {
	c := NewDeterministicClockAt(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), time.Second)
	c.Now()
	c.Now()
	c.Reset()
	assert.Equal(t, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), c.Now())
}

func TestDeterministicClock_Concurrent(t *testing.T) {
	c := NewDeterministicClock()
	var wg sync.WaitGroup
	seen := make(chan time.Time, 100)

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			seen <- c.Now()
		}()
	}
	wg.Wait()
	close(seen)

	unique := map[time.Time]bool{}
	for ts := range seen {
		unique[ts] = true
	}
	assert.Len(t, unique, 100)
	assert.Equal(t, DefaultEpoch.Add(100*time.Minute), c.Current())
}

func TestSequentialIDGenerator(t *testing.T) {
	g := NewSequentialIDGenerator("rev")
	assert.Equal(t, "rev-0001", g.NewID())
	assert.Equal(t, "rev-0002", g.NewID())
	g.Reset()
	assert.Equal(t, "rev-0001", g.NewID())

	assert.Equal(t, "id-0001", NewSequentialIDGenerator("").NewID())
}
