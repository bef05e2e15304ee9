package main

import (
	"time"

	"github.com/pkg/errors"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"
)

// deleteVolumes deletes the LPAR's volumes, boot volume first, then data
// volumes in discovery order, verifying each deletion. Failures are
// per-volume warnings: one stubborn volume must not keep the rest of the
// environment allocated. The collected errors end up in the run report.
func (o *CleanupRun) deleteVolumes() {
	if o.volumes.boot == nil {
		o.Logger.Debugf("deleteVolumes: no boot volume, skipping")
		return
	}

	var errs []error
	for _, volume := range o.volumes.inOrder() {
		if err := o.deleteOneVolume(volume); err != nil {
			o.Logger.Warnf("Volume %q: %v", volume.name, err)
			errs = append(errs, errors.Wrapf(err, "volume %q", volume.name))
		}
	}

	if err := utilerrors.NewAggregate(errs); err != nil {
		o.Logger.Warnf("Volume deletion finished with problems: %v", err)
		return
	}
	o.Logger.Infof("All volumes of LPAR %q deleted", o.Config.LparName)
}

// deleteOneVolume deletes a single volume and polls until the service no
// longer returns it.
func (o *CleanupRun) deleteOneVolume(volume attachedVolume) error {
	o.Logger.Infof("Deleting volume %q (%s)", volume.name, volume.id)

	if err := o.client.deleteVolume(volume.id); err != nil {
		return errors.Wrap(err, "delete request failed")
	}

	result := pollUntil(func(elapsed time.Duration) bool {
		return !o.client.volumeExists(volume.id)
	}, o.Config.PollInterval, o.Config.MaxDeleteWait, o.sleep)

	if result == pollTimedOut {
		return errors.Errorf("still retrievable after %v", o.Config.MaxDeleteWait)
	}

	o.Logger.Debugf("deleteOneVolume: %s is gone", volume.id)
	return nil
}

// deleteLpar handles the optional final stage: deleting the LPAR itself.
// The outcome is recorded as the run's LPAR disposition. Unlike volume
// cleanup this was an explicit request, so a rejected delete command is
// fatal; a deletion that merely cannot be confirmed within the bound is
// not, since the service already accepted it.
func (o *CleanupRun) deleteLpar() error {
	if !o.Config.DeleteLpar {
		o.Logger.Infof("Retaining LPAR %q", o.Config.LparName)
		o.lparDisposition = lparRetained
		return nil
	}

	if !o.resolved {
		o.lparDisposition = lparAlreadyGone
		return nil
	}

	o.Logger.Infof("Deleting LPAR %q (%s)", o.Config.LparName, o.lparID)
	if err := o.client.deleteLpar(o.lparID); err != nil {
		return errors.Wrapf(err, "failed to delete LPAR %q", o.Config.LparName)
	}

	o.Logger.Debugf("deleteLpar: waiting %v for deletion to start", lparDeleteGracePeriod)
	o.sleep(lparDeleteGracePeriod)

	result := pollUntil(func(elapsed time.Duration) bool {
		return !o.client.lparExists(o.lparID)
	}, o.Config.PollInterval, o.Config.MaxLparDeleteWait, o.sleep)

	if result == pollTimedOut {
		o.Logger.Warnf("LPAR %q still retrievable after %v", o.Config.LparName, o.Config.MaxLparDeleteWait)
		o.lparDisposition = lparUnconfirmed
		return nil
	}

	o.lparDisposition = lparDeleted
	return nil
}
