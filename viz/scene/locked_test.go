package scene

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLockedSerializesProducers(t *testing.T) {
	const producers, rounds = 8, 1000

	cloud := NewLocked(NewCloud(16))
	counter := 0

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < rounds; i++ {
				cloud.Do(func(c Cloud) {
					c.SetPointSize(float32(counter))
					counter++
				})
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, producers*rounds, counter)
	assert.Equal(t, float32(producers*rounds-1), cloud.Get().PointSize())
}

func TestLockedGet(t *testing.T) {
	l := NewLocked(NewLabel("x", 0, 0, 0))
	assert.Equal(t, "x", l.Get().Text())
}
