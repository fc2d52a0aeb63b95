package fairqueue

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestQueue_EmptyDequeue(t *testing.T) {
	q := New[string]()
	require.True(t, q.Empty())

	_, _, err := q.Dequeue()
	require.ErrorIs(t, err, ErrEmptyQueue)
}

func TestQueue_SingleTagFIFO(t *testing.T) {
	q := New[string]()
	q.Enqueue(1, "a")
	q.Enqueue(1, "b")
	q.Enqueue(1, "c")
	require.Equal(t, 3, q.Count())
	require.Equal(t, 3, q.CountTagged(1))

	for _, want := range []string{"a", "b", "c"} {
		v, tag, err := q.Dequeue()
		require.NoError(t, err)
		require.Equal(t, int64(1), tag)
		require.Equal(t, want, v)
	}
	require.True(t, q.Empty())
}

func TestQueue_Enqueue0UsesTagZero(t *testing.T) {
	q := New[int]()
	q.Enqueue0(42)
	require.Equal(t, 1, q.CountTagged(0))

	v, tag, err := q.Dequeue()
	require.NoError(t, err)
	require.Equal(t, int64(0), tag)
	require.Equal(t, 42, v)
}

// TestQueue_FairnessScenario reproduces spec.md section 8, scenario 1: three
// tags enqueued in full before any dequeue, successive dequeues must round
// robin 1,2,3,1,2,3,... until the queue drains.
func TestQueue_FairnessScenario(t *testing.T) {
	q := New[string]()
	for _, tag := range []int64{1, 2, 3} {
		for i := 1; i <= 4; i++ {
			q.Enqueue(tag, itoaTagValue(tag, i))
		}
	}

	var gotTags []int64
	for !q.Empty() {
		_, tag, err := q.Dequeue()
		require.NoError(t, err)
		gotTags = append(gotTags, tag)
	}

	require.Len(t, gotTags, 12)
	for i, tag := range gotTags {
		require.Equal(t, int64(i%3)+1, tag, "position %d", i)
	}

	_, _, err := q.Dequeue()
	require.ErrorIs(t, err, ErrEmptyQueue)
}

func itoaTagValue(tag int64, i int) string {
	digits := "0123456789"
	return string([]byte{'t', digits[tag], digits[i]})
}

// TestQueue_RotationUnlinksWhenBucketDrains exercises dequeue rotation rule
// 1: once a tag's bucket is drained it drops out of the rotation entirely.
func TestQueue_RotationUnlinksWhenBucketDrains(t *testing.T) {
	q := New[int]()
	q.Enqueue(1, 10)
	q.Enqueue(2, 20)
	q.Enqueue(2, 21)

	_, tag, err := q.Dequeue()
	require.NoError(t, err)
	require.Equal(t, int64(1), tag)

	// tag 1's bucket is now empty and unlinked; only tag 2 remains.
	_, tag, err = q.Dequeue()
	require.NoError(t, err)
	require.Equal(t, int64(2), tag)

	_, tag, err = q.Dequeue()
	require.NoError(t, err)
	require.Equal(t, int64(2), tag)

	require.True(t, q.Empty())
}

// TestQueue_SingleBucketStaysInPlace exercises dequeue rotation rule 3: a
// lone non-empty bucket is left at head==tail across repeated dequeues.
func TestQueue_SingleBucketStaysInPlace(t *testing.T) {
	q := New[int]()
	for i := 0; i < 5; i++ {
		q.Enqueue(7, i)
	}
	for i := 0; i < 5; i++ {
		v, tag, err := q.Dequeue()
		require.NoError(t, err)
		require.Equal(t, int64(7), tag)
		require.Equal(t, i, v)
	}
}

// TestQueue_BucketPersistsAcrossEmptiness verifies a tag's bucket, once
// created, can re-enter non-emptiness and rejoin the rotation later.
func TestQueue_BucketPersistsAcrossEmptiness(t *testing.T) {
	q := New[string]()
	q.Enqueue(1, "first")
	_, _, err := q.Dequeue()
	require.NoError(t, err)
	require.True(t, q.Empty())

	q.Enqueue(2, "x")
	q.Enqueue(1, "second")

	v, tag, err := q.Dequeue()
	require.NoError(t, err)
	require.Equal(t, int64(2), tag)
	require.Equal(t, "x", v)

	v, tag, err = q.Dequeue()
	require.NoError(t, err)
	require.Equal(t, int64(1), tag)
	require.Equal(t, "second", v)
}

// TestQueue_FairnessQuantitative checks the quantitative fairness property
// from spec.md section 8: after any prefix of K*j dequeues (j >= 1), each
// tag's dequeued count lies within [j-1, j+1].
func TestQueue_FairnessQuantitative(t *testing.T) {
	const tags = 5
	const perTag = 20
	q := New[int]()
	for tag := int64(1); tag <= tags; tag++ {
		for i := 0; i < perTag; i++ {
			q.Enqueue(tag, i)
		}
	}

	counts := make(map[int64]int)
	for j := 1; j <= perTag; j++ {
		for i := 0; i < tags; i++ {
			_, tag, err := q.Dequeue()
			require.NoError(t, err)
			counts[tag]++
		}
		for _, c := range counts {
			require.GreaterOrEqual(t, c, j-1)
			require.LessOrEqual(t, c, j+1)
		}
	}
}
