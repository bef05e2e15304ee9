package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
)

// fakeClient is a scripted cleanupClient. Unset functions fall back to an
// already-clean control plane: no LPAR, no volumes, every command accepted.
// Every call is appended to calls so tests can assert ordering.
type fakeClient struct {
	findLparByNameFn      func(name string) (string, error)
	getLparStateFn        func(id string) (lparState, error)
	listAttachedVolumesFn func(id string) []attachedVolume
	requestShutdownFn     func(id string) error
	bulkDetachVolumesFn   func(id string) error
	detachVolumeFn        func(id string, volumeID string) error
	deleteVolumeFn        func(volumeID string) error
	volumeExistsFn        func(volumeID string) bool
	deleteLparFn          func(id string) error
	lparExistsFn          func(id string) bool

	calls []string
}

func (c *fakeClient) record(format string, args ...interface{}) {
	c.calls = append(c.calls, fmt.Sprintf(format, args...))
}

func (c *fakeClient) findLparByName(name string) (string, error) {
	c.record("findLparByName %s", name)
	if c.findLparByNameFn != nil {
		return c.findLparByNameFn(name)
	}
	return "", nil
}

func (c *fakeClient) getLparState(id string) (lparState, error) {
	c.record("getLparState %s", id)
	if c.getLparStateFn != nil {
		return c.getLparStateFn(id)
	}
	return lparStateShutoff, nil
}

func (c *fakeClient) listAttachedVolumes(id string) []attachedVolume {
	c.record("listAttachedVolumes %s", id)
	if c.listAttachedVolumesFn != nil {
		return c.listAttachedVolumesFn(id)
	}
	return nil
}

func (c *fakeClient) requestShutdown(id string) error {
	c.record("requestShutdown %s", id)
	if c.requestShutdownFn != nil {
		return c.requestShutdownFn(id)
	}
	return nil
}

func (c *fakeClient) bulkDetachVolumes(id string) error {
	c.record("bulkDetachVolumes %s", id)
	if c.bulkDetachVolumesFn != nil {
		return c.bulkDetachVolumesFn(id)
	}
	return nil
}

func (c *fakeClient) detachVolume(id string, volumeID string) error {
	c.record("detachVolume %s", volumeID)
	if c.detachVolumeFn != nil {
		return c.detachVolumeFn(id, volumeID)
	}
	return nil
}

func (c *fakeClient) deleteVolume(volumeID string) error {
	c.record("deleteVolume %s", volumeID)
	if c.deleteVolumeFn != nil {
		return c.deleteVolumeFn(volumeID)
	}
	return nil
}

func (c *fakeClient) volumeExists(volumeID string) bool {
	c.record("volumeExists %s", volumeID)
	if c.volumeExistsFn != nil {
		return c.volumeExistsFn(volumeID)
	}
	return false
}

func (c *fakeClient) deleteLpar(id string) error {
	c.record("deleteLpar %s", id)
	if c.deleteLparFn != nil {
		return c.deleteLparFn(id)
	}
	return nil
}

func (c *fakeClient) lparExists(id string) bool {
	c.record("lparExists %s", id)
	if c.lparExistsFn != nil {
		return c.lparExistsFn(id)
	}
	return false
}

// callsNamed filters the recorded calls down to one operation.
func (c *fakeClient) callsNamed(op string) []string {
	var result []string
	for _, call := range c.calls {
		if strings.HasPrefix(call, op) {
			result = append(result, call)
		}
	}
	return result
}

// sleepRecorder stands in for time.Sleep so polls finish instantly while
// the logical elapsed accounting still advances.
type sleepRecorder struct {
	slept []time.Duration
}

func (s *sleepRecorder) sleep(d time.Duration) {
	s.slept = append(s.slept, d)
}

func (s *sleepRecorder) total() time.Duration {
	var sum time.Duration
	for _, d := range s.slept {
		sum += d
	}
	return sum
}

// newTestRun returns a run wired to the fake client with sleeping recorded
// instead of performed.
func newTestRun(client *fakeClient, config CleanupConfig) (*CleanupRun, *sleepRecorder) {
	logger, _ := test.NewNullLogger()
	run := NewCleanupRun(config, client, logger)
	recorder := &sleepRecorder{}
	run.sleep = recorder.sleep
	return run, recorder
}

func testConfig(deleteLpar bool) CleanupConfig {
	return DefaultCleanupConfig("backup-lpar", deleteLpar)
}
