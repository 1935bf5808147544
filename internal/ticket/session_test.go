package ticket

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreLifecycle(t *testing.T) {
	st := NewStore()
	assert.Nil(t, st.Get(1))
	assert.False(t, st.Active(1))

	sess := st.Create(1)
	require.NotNil(t, sess)
	assert.Same(t, sess, st.Get(1))
	assert.True(t, st.Active(1))

	// A second Create replaces the session entirely.
	sess.SetAnswer("name", "x")
	fresh := st.Create(1)
	assert.NotSame(t, sess, fresh)
	assert.Empty(t, fresh.Answer("name"))

	st.Clear(1)
	assert.Nil(t, st.Get(1))
	assert.False(t, st.Active(1))
}

func TestSessionAnswers(t *testing.T) {
	s := newSession()
	s.SetAnswer("name", "Алиса")
	s.AppendFile("files", "a")
	s.AppendFile("files", "b")

	assert.Equal(t, []string{"Алиса"}, s.Answer("name"))
	assert.Equal(t, 2, s.FileCount("files"))

	// Answers returns a copy; mutating it must not leak back.
	got := s.Answers()
	got["files"][0] = "mutated"
	assert.Equal(t, []string{"a", "b"}, s.Answer("files"))
}

func TestStoreLockSerializesPerUser(t *testing.T) {
	st := NewStore()
	st.Create(1)

	var (
		wg      sync.WaitGroup
		counter int
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := st.Lock(1)
			defer unlock()
			counter++
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, counter)
}

func TestStoreLockNegativeUserID(t *testing.T) {
	st := NewStore()
	unlock := st.Lock(-5)
	unlock()
}
