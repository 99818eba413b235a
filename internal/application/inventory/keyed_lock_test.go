package inventory

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLockMap_SerializaMismaClave(t *testing.T) {
	m := newLockMap()
	var inside, maxInside int32
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := m.acquire(context.Background(), "V1")
			if !assert.NoError(t, err) {
				return
			}
			n := atomic.AddInt32(&inside, 1)
			for {
				cur := atomic.LoadInt32(&maxInside)
				if n <= cur || atomic.CompareAndSwapInt32(&maxInside, cur, n) {
					break
				}
			}
			time.Sleep(100 * time.Microsecond)
			atomic.AddInt32(&inside, -1)
			release()
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxInside, "nunca debe haber dos dueños de la misma clave")
	assert.Zero(t, m.size(), "las entradas sin uso deben eliminarse")
}

func TestLockMap_ClavesDistintasNoSeBloquean(t *testing.T) {
	m := newLockMap()
	releaseA, err := m.acquire(context.Background(), "A")
	require.NoError(t, err)
	defer releaseA()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	releaseB, err := m.acquire(ctx, "B")
	require.NoError(t, err, "otra clave debe obtenerse sin esperar")
	releaseB()
}

func TestLockMap_TimeoutDevuelveErrorDelContexto(t *testing.T) {
	m := newLockMap()
	release, err := m.acquire(context.Background(), "V1")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = m.acquire(ctx, "V1")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	release()
	release() // liberar dos veces no debe desbloquear a un tercero
	assert.Zero(t, m.size())
}
