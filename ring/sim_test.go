// File: ring/sim_test.go
// Author: momentics <momentics@gmail.com>

package ring

import (
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntryLayout(t *testing.T) {
	assert.EqualValues(t, 64, sqeSize)
	assert.EqualValues(t, 16, cqeSize)
}

func reapAll(t *testing.T, s *Sim) []CQE {
	t.Helper()
	out := make([]CQE, 16)
	n, err := s.Reap(out, 0)
	require.NoError(t, err)
	return out[:n]
}

func TestSimCapacity(t *testing.T) {
	s := NewSim(2)
	require.NotNil(t, s.AcquireSlot())
	require.NotNil(t, s.AcquireSlot())
	assert.Nil(t, s.AcquireSlot())

	n, err := s.SubmitAndWait(0)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.NotNil(t, s.AcquireSlot())
}

func TestSimNopRoundTrip(t *testing.T) {
	s := NewSim(4)
	sqe := s.AcquireSlot()
	sqe.PrepNop()
	sqe.SetToken(42)
	_, err := s.SubmitAndWait(1)
	require.NoError(t, err)
	assert.Equal(t, []CQE{{UserData: 42}}, reapAll(t, s))
	assert.EqualValues(t, 1, s.Submitted())
}

func TestSimTimersFireInOrder(t *testing.T) {
	s := NewSim(4)
	late := Timespec{}.Add(20 * time.Millisecond)
	rel := Timespec{}.Add(5 * time.Millisecond)

	sqe := s.AcquireSlot()
	sqe.PrepTimeout(&late, 0, IORING_TIMEOUT_ABS)
	sqe.SetToken(1)
	sqe = s.AcquireSlot()
	sqe.PrepTimeout(&rel, 0, 0)
	sqe.SetToken(2)

	_, err := s.SubmitAndWait(1)
	require.NoError(t, err)
	assert.Equal(t, []CQE{{UserData: 2, Res: -ETIME}}, reapAll(t, s))
	assert.Equal(t, rel, s.Clock().Now())

	out := make([]CQE, 4)
	n, err := s.Reap(out, 1)
	require.NoError(t, err)
	assert.Equal(t, []CQE{{UserData: 1, Res: -ETIME}}, out[:n])
	assert.Equal(t, late, s.Clock().Now())
}

func TestSimExpiredDeadlineFiresImmediately(t *testing.T) {
	clock := &SimClock{}
	clock.Advance(time.Second)
	s := NewSim(4, WithSimClock(clock))
	past := Timespec{}.Add(time.Millisecond)
	sqe := s.AcquireSlot()
	sqe.PrepTimeout(&past, 0, IORING_TIMEOUT_ABS)
	sqe.SetToken(9)
	_, err := s.SubmitAndWait(0)
	require.NoError(t, err)
	assert.Equal(t, 1, s.Ready())
	assert.Zero(t, s.Pending())
}

func TestSimCancel(t *testing.T) {
	s := NewSim(4)
	sqe := s.AcquireSlot()
	sqe.PrepPollAdd(3, 1)
	sqe.SetToken(7)
	sqe = s.AcquireSlot()
	sqe.PrepCancel(7, 0)
	sqe.SetToken(8)
	sqe = s.AcquireSlot()
	sqe.PrepCancel(99, 0)
	sqe.SetToken(10)

	_, err := s.SubmitAndWait(0)
	require.NoError(t, err)
	assert.Equal(t, []CQE{
		{UserData: 7, Res: -ECANCELED},
		{UserData: 8, Res: 0},
		{UserData: 10, Res: -ENOENT},
	}, reapAll(t, s))
	assert.Zero(t, s.Pending())
}

func TestSimHandler(t *testing.T) {
	s := NewSim(4, WithSimHandler(func(sqe *SQE) (int32, bool) {
		if sqe.Opcode == IORING_OP_SEND {
			return int32(sqe.Len), true
		}
		return 0, false
	}))
	sqe := s.AcquireSlot()
	sqe.PrepSend(4, make([]byte, 10), 10, 0)
	sqe.SetToken(1)
	sqe = s.AcquireSlot()
	sqe.PrepRecv(4, make([]byte, 10), 10, 0)
	sqe.SetToken(2)

	_, err := s.SubmitAndWait(0)
	require.NoError(t, err)
	assert.Equal(t, []CQE{{UserData: 1, Res: 10}}, reapAll(t, s))
	assert.Equal(t, 1, s.Pending())
}

func TestSimStallsWithoutProgress(t *testing.T) {
	s := NewSim(4)
	sqe := s.AcquireSlot()
	sqe.PrepPollAdd(3, 1)
	sqe.SetToken(1)
	_, err := s.SubmitAndWait(1)
	assert.ErrorIs(t, err, ErrStalled)
}

func TestSimInjectedErrors(t *testing.T) {
	s := NewSim(4)
	s.FailSubmit(syscall.EBUSY)
	s.FailReap(syscall.EINTR)
	sqe := s.AcquireSlot()
	sqe.PrepNop()

	_, err := s.SubmitAndWait(0)
	assert.ErrorIs(t, err, syscall.EBUSY)
	assert.Zero(t, s.Submitted())

	_, err = s.SubmitAndWait(0)
	require.NoError(t, err)
	_, err = s.Reap(make([]CQE, 1), 0)
	assert.ErrorIs(t, err, syscall.EINTR)
	assert.Len(t, reapAll(t, s), 1)
}

func TestSimClosed(t *testing.T) {
	s := NewSim(1)
	require.NoError(t, s.Close())
	assert.Nil(t, s.AcquireSlot())
	_, err := s.SubmitAndWait(0)
	assert.ErrorIs(t, err, ErrClosed)
	_, err = s.Reap(make([]CQE, 1), 0)
	assert.ErrorIs(t, err, ErrClosed)
}
