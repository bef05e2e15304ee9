package main

import (
	"github.com/pkg/errors"
)

// resolveLpar looks up the target LPAR by name and takes a classified
// snapshot of its attached volumes. Not finding the LPAR is a success:
// o.resolved stays false and every later stage is a no-op. A failed lookup
// is fatal since nothing downstream can be trusted without it.
func (o *CleanupRun) resolveLpar() error {
	o.Logger.Debugf("resolveLpar: looking up LPAR %q", o.Config.LparName)

	id, err := o.client.findLparByName(o.Config.LparName)
	if err != nil {
		return errors.Wrapf(err, "failed to look up LPAR %q", o.Config.LparName)
	}
	if id == "" {
		o.Logger.Infof("LPAR %q not found, nothing to clean up", o.Config.LparName)
		return nil
	}

	o.lparID = id
	o.resolved = true
	o.Logger.Debugf("resolveLpar: FOUND: %s (%s)", o.Config.LparName, o.lparID)

	o.volumes = classifyVolumes(o.client.listAttachedVolumes(o.lparID))

	if o.volumes.boot == nil {
		// No boot volume means the LPAR cannot be ACTIVE, so the storage
		// stages have nothing to do either.
		o.Logger.Infof("LPAR %q has no boot volume, skipping volume cleanup", o.Config.LparName)
		return nil
	}

	o.Logger.Infof("LPAR %q: boot volume %s, %d data volume(s)",
		o.Config.LparName, o.volumes.boot.id, len(o.volumes.data))
	for _, volume := range o.volumes.data {
		o.Logger.Debugf("resolveLpar: data volume: %s (%s)", volume.name, volume.id)
	}

	return nil
}
