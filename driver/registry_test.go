package driver

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tebeka/selenium"
)

// quitDriver fakes just enough of selenium.WebDriver for lifecycle tests.
type quitDriver struct {
	selenium.WebDriver
	mu    sync.Mutex
	quits int
}

func (q *quitDriver) Quit() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.quits++
	return nil
}

func (q *quitDriver) quitCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.quits
}

func fakeRegistry(t *testing.T) (*Registry, func() []*quitDriver) {
	t.Helper()
	var mu sync.Mutex
	var drivers []*quitDriver
	reg := NewRegistry(WithFactory(func(b Browser, opts Options) (*Session, error) {
		wd := &quitDriver{}
		mu.Lock()
		drivers = append(drivers, wd)
		mu.Unlock()
		return WrapDriver(wd, b), nil
	}))
	return reg, func() []*quitDriver {
		mu.Lock()
		defer mu.Unlock()
		return append([]*quitDriver{}, drivers...)
	}
}

func TestCreateThenDestroyReleasesDriverOnce(t *testing.T) {
	reg, drivers := fakeRegistry(t)
	slot := reg.Slot("worker-0")

	sess, err := slot.Create(Chrome, Options{})
	require.NoError(t, err)
	require.NotNil(t, sess)

	_, ok := slot.Current()
	assert.True(t, ok)

	slot.Destroy()
	_, ok = slot.Current()
	assert.False(t, ok)
	assert.True(t, sess.Closed())

	// Idempotent: destroying again, and quitting the session again, is a
	// no-op rather than a second driver teardown.
	slot.Destroy()
	sess.Quit()
	assert.Equal(t, 1, drivers()[0].quitCount())
}

func TestDestroyWithoutSessionIsNoop(t *testing.T) {
	reg, _ := fakeRegistry(t)
	slot := reg.Slot("worker-0")
	slot.Destroy() // must not panic
	_, ok := slot.Current()
	assert.False(t, ok)
}

func TestSlotIsStablePerWorker(t *testing.T) {
	reg, _ := fakeRegistry(t)
	assert.Same(t, reg.Slot("w1"), reg.Slot("w1"))
	assert.NotSame(t, reg.Slot("w1"), reg.Slot("w2"))
}

func TestCreateReplacesLiveSession(t *testing.T) {
	reg, drivers := fakeRegistry(t)
	slot := reg.Slot("worker-0")

	first, err := slot.Create(Chrome, Options{})
	require.NoError(t, err)
	second, err := slot.Create(Chrome, Options{})
	require.NoError(t, err)

	assert.True(t, first.Closed())
	assert.False(t, second.Closed())
	assert.Equal(t, 1, drivers()[0].quitCount())
	assert.Equal(t, 0, drivers()[1].quitCount())
}

func TestConcurrentWorkersGetIndependentSessions(t *testing.T) {
	reg, _ := fakeRegistry(t)

	const workers = 8
	sessions := make([]*Session, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			slot := reg.Slot(fmt.Sprintf("worker-%d", i))
			sess, err := slot.Create(Chrome, Options{})
			require.NoError(t, err)
			sessions[i] = sess
		}(i)
	}
	wg.Wait()

	for i := 0; i < workers; i++ {
		for j := i + 1; j < workers; j++ {
			assert.NotSame(t, sessions[i], sessions[j])
		}
	}

	// Destroying one worker's session leaves the others live.
	reg.Slot("worker-0").Destroy()
	assert.True(t, sessions[0].Closed())
	for i := 1; i < workers; i++ {
		assert.False(t, sessions[i].Closed(), "worker-%d", i)
	}
}

func TestRegistryCloseDestroysEverything(t *testing.T) {
	reg, drivers := fakeRegistry(t)
	for i := 0; i < 3; i++ {
		_, err := reg.Slot(fmt.Sprintf("worker-%d", i)).Create(Firefox, Options{})
		require.NoError(t, err)
	}

	reg.Close()
	for _, d := range drivers() {
		assert.Equal(t, 1, d.quitCount())
	}
}
