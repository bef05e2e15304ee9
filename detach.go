package main

import (
	"time"
)

// fallbackState tracks the per-volume detach fallback. It moves from
// notAttempted to attempted at most once per run, which is what makes the
// retry exactly-once.
type fallbackState int

const (
	fallbackNotAttempted fallbackState = iota
	fallbackAttempted
)

// detachVolumes detaches every volume from the LPAR. One bulk request
// covers boot and data volumes; the service handles it asynchronously, so
// after a fixed grace period the attachment list is re-queried until it
// drains. If the bulk request was rejected outright, a one-shot per-volume
// fallback fires once enough time has passed for the rejection to be
// trusted. Volumes still attached when the bound runs out are left for the
// deletion stage; nothing here is fatal.
func (o *CleanupRun) detachVolumes() {
	if o.volumes.boot == nil {
		o.Logger.Debugf("detachVolumes: no boot volume, skipping")
		return
	}

	o.Logger.Infof("Detaching %d volume(s) from LPAR %q",
		len(o.volumes.inOrder()), o.Config.LparName)

	requestFailed := false
	if err := o.client.bulkDetachVolumes(o.lparID); err != nil {
		o.Logger.Warnf("Bulk detach request rejected: %v", err)
		requestFailed = true
	}

	// Bulk detach is asynchronous; checking immediately would only ever
	// see the volumes still attached.
	o.Logger.Debugf("detachVolumes: waiting %v for detach to propagate", detachGracePeriod)
	o.sleep(detachGracePeriod)

	fallback := fallbackNotAttempted

	result := pollUntil(func(elapsed time.Duration) bool {
		attached := o.client.listAttachedVolumes(o.lparID)
		if len(attached) == 0 {
			return true
		}
		o.Logger.Debugf("detachVolumes: %d volume(s) still attached", len(attached))

		sinceRequest := detachGracePeriod + elapsed
		if requestFailed && fallback == fallbackNotAttempted && sinceRequest >= detachFallbackAfter {
			fallback = fallbackAttempted
			o.detachIndividually()
		}
		return false
	}, o.Config.PollInterval, o.Config.MaxDetachWait, o.sleep)

	if result == pollTimedOut {
		o.Logger.Warnf("Volumes still attached to LPAR %q after %v, proceeding to deletion anyway",
			o.Config.LparName, o.Config.MaxDetachWait)
		return
	}

	o.Logger.Infof("All volumes detached from LPAR %q", o.Config.LparName)
}

// detachIndividually issues one detach per volume, boot volume first.
// Best effort: failures are logged and the poll loop keeps watching the
// attachment list.
func (o *CleanupRun) detachIndividually() {
	o.Logger.Infof("Bulk detach did not take, detaching volumes individually")

	for _, volume := range o.volumes.inOrder() {
		o.Logger.Debugf("detachIndividually: detaching %s (%s)", volume.name, volume.id)
		if err := o.client.detachVolume(o.lparID, volume.id); err != nil {
			o.Logger.Warnf("Failed to detach volume %q: %v", volume.name, err)
		}
	}
}
