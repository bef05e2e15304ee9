package main

import (
	"time"

	"github.com/pkg/errors"
)

// ensureShutdown makes sure the LPAR is powered off before any volume is
// touched. Detaching storage from a running partition risks corrupting the
// backup that was just taken, so both a rejected shutdown command and an
// LPAR that will not reach SHUTOFF within the bound stop the run.
func (o *CleanupRun) ensureShutdown() error {
	if o.volumes.boot == nil {
		// Without a boot volume the LPAR cannot be running.
		o.Logger.Debugf("ensureShutdown: no boot volume, skipping")
		return nil
	}

	state, err := o.client.getLparState(o.lparID)
	if err != nil {
		o.Logger.Warnf("Failed to query LPAR state: %v", err)
		state = lparStateTransient
	}
	o.Logger.Debugf("ensureShutdown: LPAR state is %s", state)

	if state != lparStateActive {
		o.Logger.Infof("LPAR %q is not active, no shutdown needed", o.Config.LparName)
		return nil
	}

	o.Logger.Infof("Shutting down LPAR %q", o.Config.LparName)
	if err := o.client.requestShutdown(o.lparID); err != nil {
		return errors.Wrapf(err, "failed to issue shutdown for LPAR %q", o.Config.LparName)
	}

	result := pollUntil(func(elapsed time.Duration) bool {
		state, err := o.client.getLparState(o.lparID)
		if err != nil {
			o.suppressWarning(o.lparID, err, o.Logger)
			return false
		}
		o.Logger.Debugf("ensureShutdown: state %s after %v", state, elapsed)
		return state == lparStateShutoff
	}, o.Config.PollInterval, o.Config.MaxShutdownWait, o.sleep)

	if result == pollTimedOut {
		return errors.Errorf("LPAR %q did not reach SHUTOFF within %v",
			o.Config.LparName, o.Config.MaxShutdownWait)
	}

	o.Logger.Infof("LPAR %q is shut off", o.Config.LparName)
	return nil
}
