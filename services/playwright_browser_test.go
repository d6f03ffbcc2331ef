package services

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestProfileDirName(t *testing.T) {
	name := profileDirName("asha@x.com")
	assert.True(t, strings.HasPrefix(name, "asha_x.com-"), name)
	assert.Equal(t, name, profileDirName("asha@x.com"), "stable across runs")

	assert.NotEqual(t, profileDirName("a/b"), profileDirName("a_b"))

	for _, key := range []string{"..", "../../etc", "", "///"} {
		name := profileDirName(key)
		assert.Equal(t, name, filepath.Base(name), key)
		assert.NotContains(t, name, "..", key)
		assert.False(t, strings.HasPrefix(name, "."), key)
	}
	assert.True(t, strings.HasPrefix(profileDirName(".."), "user-"))

	long := profileDirName(strings.Repeat("x", 100))
	assert.Len(t, long, 32+1+16)
}

func TestProfilePathStaysUnderRoot(t *testing.T) {
	l := &PlaywrightLauncher{opts: PlaywrightLauncherOptions{ProfileDir: "/srv/profiles"}}
	assert.Equal(t, "/srv/profiles", filepath.Dir(l.ProfilePath("../../etc")))
}

func TestWaitUnlessClosed(t *testing.T) {
	open := make(chan struct{})
	assert.NoError(t, waitUnlessClosed(context.Background(), time.Millisecond, open))

	closed := make(chan struct{})
	go func() {
		time.Sleep(10 * time.Millisecond)
		close(closed)
	}()
	start := time.Now()
	assert.ErrorIs(t, waitUnlessClosed(context.Background(), time.Minute, closed), ErrPageUnavailable)
	assert.Less(t, time.Since(start), 5*time.Second, "a close ends the wait")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, waitUnlessClosed(ctx, time.Minute, open), context.Canceled)
}
