// File: ring/timespec_test.go
// Author: momentics <momentics@gmail.com>

package ring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTimespecAddNormalizes(t *testing.T) {
	ts := Timespec{Sec: 1, Nsec: 900_000_000}
	assert.Equal(t, Timespec{Sec: 2, Nsec: 100_000_000}, ts.Add(200*time.Millisecond))
	assert.Equal(t, Timespec{Sec: 4, Nsec: 900_000_000}, ts.Add(3*time.Second))
	assert.Equal(t, Timespec{Sec: 1, Nsec: 800_000_000}, ts.Add(-100*time.Millisecond))
	assert.Equal(t, Timespec{Sec: 0, Nsec: 950_000_000}, Timespec{Sec: 1, Nsec: 50_000_000}.Add(-100*time.Millisecond))
}

func TestTimespecOrdering(t *testing.T) {
	a := Timespec{Sec: 1, Nsec: 5}
	b := Timespec{Sec: 1, Nsec: 6}
	c := Timespec{Sec: 2}
	assert.True(t, a.Before(b))
	assert.True(t, b.Before(c))
	assert.False(t, b.Before(a))
	assert.False(t, a.Before(a))
	assert.Equal(t, time.Second-5, c.Sub(a))
}

func TestMonotonicAdvances(t *testing.T) {
	a := Monotonic.Now()
	time.Sleep(2 * time.Millisecond)
	b := Monotonic.Now()
	assert.True(t, a.Before(b))
	assert.GreaterOrEqual(t, b.Sub(a), 2*time.Millisecond)
}
