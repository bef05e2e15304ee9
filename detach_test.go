package main

import (
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetachVolumesSkipsWithoutBootVolume(t *testing.T) {
	client := &fakeClient{}
	run, recorder := resolvedRun(client, testConfig(false), nil)

	run.detachVolumes()

	assert.Empty(t, client.calls)
	assert.Empty(t, recorder.slept)
}

func TestDetachVolumesBulkSucceeds(t *testing.T) {
	client := &fakeClient{
		listAttachedVolumesFn: func(id string) []attachedVolume {
			return nil // detached by the time the grace period is over
		},
	}
	run, recorder := resolvedRun(client, testConfig(false), bootAndTwoData())

	run.detachVolumes()

	assert.Len(t, client.callsNamed("bulkDetachVolumes"), 1)
	assert.Empty(t, client.callsNamed("detachVolume"), "no individual fallback when bulk works")
	require.NotEmpty(t, recorder.slept)
	assert.Equal(t, detachGracePeriod, recorder.slept[0], "grace period before the first check")
}

func TestDetachVolumesRequeriesFreshEachIteration(t *testing.T) {
	listings := 0
	client := &fakeClient{
		listAttachedVolumesFn: func(id string) []attachedVolume {
			listings++
			if listings >= 3 {
				return nil
			}
			return bootAndTwoData()
		},
	}
	run, _ := resolvedRun(client, testConfig(false), bootAndTwoData())

	run.detachVolumes()

	assert.Equal(t, 3, listings)
}

func TestDetachVolumesTimeoutIsNotFatal(t *testing.T) {
	client := &fakeClient{
		listAttachedVolumesFn: func(id string) []attachedVolume {
			return bootAndTwoData() // never drains
		},
	}
	run, _ := resolvedRun(client, testConfig(false), bootAndTwoData())

	run.detachVolumes() // must return rather than loop forever

	assert.Empty(t, client.callsNamed("detachVolume"),
		"accepted bulk request never escalates to individual detach")
}

func TestDetachVolumesFallbackFiresExactlyOnce(t *testing.T) {
	client := &fakeClient{
		bulkDetachVolumesFn: func(id string) error {
			return errors.New("bulk detach rejected")
		},
		listAttachedVolumesFn: func(id string) []attachedVolume {
			return bootAndTwoData() // stays attached the whole run
		},
	}
	run, _ := resolvedRun(client, testConfig(false), bootAndTwoData())

	run.detachVolumes()

	detaches := client.callsNamed("detachVolume")
	require.Len(t, detaches, 3, "one individual detach per volume, exactly once")
	assert.Equal(t, "detachVolume vol-boot", detaches[0], "boot volume detached first")
	assert.Equal(t, "detachVolume vol-data-1", detaches[1])
	assert.Equal(t, "detachVolume vol-data-2", detaches[2])
}

func TestDetachVolumesFallbackWaitsSixtySeconds(t *testing.T) {
	config := testConfig(false)

	var listElapsed []time.Duration
	var sinceStart time.Duration
	client := &fakeClient{
		bulkDetachVolumesFn: func(id string) error {
			return errors.New("bulk detach rejected")
		},
	}
	client.listAttachedVolumesFn = func(id string) []attachedVolume {
		listElapsed = append(listElapsed, sinceStart)
		return bootAndTwoData()
	}

	run, recorder := resolvedRun(client, config, bootAndTwoData())
	run.sleep = func(d time.Duration) {
		sinceStart += d
		recorder.sleep(d)
	}

	run.detachVolumes()

	// First listing happens right after the 30s grace period; the fallback
	// must not fire until 60 logical seconds after the rejected request.
	require.NotEmpty(t, listElapsed)
	assert.Equal(t, detachGracePeriod, listElapsed[0])

	var fallbackAt time.Duration = -1
	for i, call := range client.calls {
		if call == "detachVolume vol-boot" {
			// Count the listings that happened before the fallback.
			listings := 0
			for _, prior := range client.calls[:i] {
				if strings.HasPrefix(prior, "listAttachedVolumes") {
					listings++
				}
			}
			fallbackAt = listElapsed[listings-1]
			break
		}
	}
	require.GreaterOrEqual(t, fallbackAt, time.Duration(0), "fallback fired")
	assert.GreaterOrEqual(t, fallbackAt, detachFallbackAfter)
}

func TestDetachVolumesFallbackToleratesIndividualFailures(t *testing.T) {
	client := &fakeClient{
		bulkDetachVolumesFn: func(id string) error {
			return errors.New("bulk detach rejected")
		},
		listAttachedVolumesFn: func(id string) []attachedVolume {
			return bootAndTwoData()
		},
		detachVolumeFn: func(id string, volumeID string) error {
			return errors.New("still busy")
		},
	}
	run, _ := resolvedRun(client, testConfig(false), bootAndTwoData())

	run.detachVolumes() // no panic, no abort

	assert.Len(t, client.callsNamed("detachVolume"), 3,
		"every volume is attempted even when detaches fail")
}
