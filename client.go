package main

import (
	"strings"
)

// lparState is the power state of an LPAR as reported by the service.
// Anything PowerVS reports that is not ACTIVE or SHUTOFF (BUILD, RESIZE,
// and friends) is treated as transient.
type lparState string

const (
	lparStateActive    lparState = "ACTIVE"
	lparStateShutoff   lparState = "SHUTOFF"
	lparStateTransient lparState = "TRANSIENT"
)

func parseLparState(status string) lparState {
	switch strings.ToUpper(status) {
	case "ACTIVE":
		return lparStateActive
	case "SHUTOFF":
		return lparStateShutoff
	default:
		return lparStateTransient
	}
}

// attachedVolume is one storage volume attached to an LPAR.
type attachedVolume struct {
	id   string
	name string
	boot bool
}

// volumeSet is the attached volumes of an LPAR partitioned by role. The
// backup workflow creates every LPAR with exactly one boot volume, so boot
// is either nil or a single volume; everything else is a data volume in
// discovery order.
type volumeSet struct {
	boot *attachedVolume
	data []attachedVolume
}

func (s volumeSet) empty() bool {
	return s.boot == nil && len(s.data) == 0
}

// inOrder returns the volumes boot first, then data volumes in discovery
// order. Detach and delete both walk the set in this order.
func (s volumeSet) inOrder() []attachedVolume {
	var result []attachedVolume
	if s.boot != nil {
		result = append(result, *s.boot)
	}
	return append(result, s.data...)
}

// classifyVolumes partitions an attached-volume list into one boot volume
// and the remaining data volumes. The first volume flagged boot wins; the
// service should never report two, but if it does the extras are kept as
// data volumes rather than failing the run.
func classifyVolumes(volumes []attachedVolume) volumeSet {
	var set volumeSet
	for _, volume := range volumes {
		if volume.boot && set.boot == nil {
			v := volume
			set.boot = &v
			continue
		}
		set.data = append(set.data, volume)
	}
	return set
}

// cleanupClient is the contract the teardown stages need from the PowerVS
// control plane. powerVSClient implements it against the live service; the
// tests substitute a scripted fake.
type cleanupClient interface {
	// findLparByName returns the instance ID of the named LPAR, or "" if
	// no LPAR by that name exists. An error means the lookup itself failed.
	findLparByName(name string) (string, error)

	// getLparState returns the power state of the LPAR. Fails if the LPAR
	// is gone.
	getLparState(id string) (lparState, error)

	// listAttachedVolumes returns the volumes currently attached to the
	// LPAR, in the order the service reports them. A failed query is
	// reported as zero volumes, never as an error.
	listAttachedVolumes(id string) []attachedVolume

	// requestShutdown issues an immediate (non-graceful) shutdown.
	requestShutdown(id string) error

	// bulkDetachVolumes asks the service to detach every volume from the
	// LPAR in one request. A nil return means the request was accepted,
	// not that detachment has completed.
	bulkDetachVolumes(id string) error

	// detachVolume detaches a single volume from the LPAR.
	detachVolume(id string, volumeID string) error

	// deleteVolume deletes a volume.
	deleteVolume(volumeID string) error

	// volumeExists reports whether the volume is still retrievable.
	volumeExists(volumeID string) bool

	// deleteLpar deletes the LPAR itself.
	deleteLpar(id string) error

	// lparExists reports whether the LPAR is still retrievable.
	lparExists(id string) bool
}
