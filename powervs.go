package main

import (
	"github.com/IBM-Cloud/power-go-client/clients/instance"
	"github.com/IBM-Cloud/power-go-client/power/models"
	"github.com/IBM/go-sdk-core/v5/core"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// powerVSClient implements cleanupClient against the Power Systems Virtual
// Server service of one workspace.
type powerVSClient struct {
	instanceClient *instance.IBMPIInstanceClient
	volumeClient   *instance.IBMPIVolumeClient
	logger         logrus.FieldLogger

	errorTracker
}

func (c *powerVSClient) findLparByName(name string) (string, error) {
	instances, err := c.instanceClient.GetAll()
	if err != nil {
		return "", errors.Wrap(err, "failed to list LPARs")
	}

	for _, lpar := range instances.PvmInstances {
		if lpar.ServerName == nil || lpar.PvmInstanceID == nil {
			continue
		}
		if *lpar.ServerName == name {
			c.logger.Debugf("findLparByName: FOUND: %s (%s)", *lpar.ServerName, *lpar.PvmInstanceID)
			return *lpar.PvmInstanceID, nil
		}
		c.logger.Debugf("findLparByName: SKIP:  %s", *lpar.ServerName)
	}

	return "", nil
}

func (c *powerVSClient) getLparState(id string) (lparState, error) {
	lpar, err := c.instanceClient.Get(id)
	if err != nil {
		return lparStateTransient, errors.Wrapf(err, "failed to get LPAR %s", id)
	}
	if lpar.Status == nil {
		return lparStateTransient, nil
	}
	return parseLparState(*lpar.Status), nil
}

func (c *powerVSClient) listAttachedVolumes(id string) []attachedVolume {
	volumes, err := c.volumeClient.GetAllInstanceVolumes(id)
	if err != nil {
		// A failed listing counts as zero volumes.
		c.suppressWarning(id, errors.Wrapf(err, "failed to list volumes of LPAR %s", id), c.logger)
		return nil
	}

	var result []attachedVolume
	for _, volume := range volumes.Volumes {
		if volume.VolumeID == nil {
			continue
		}
		v := attachedVolume{id: *volume.VolumeID}
		if volume.Name != nil {
			v.name = *volume.Name
		}
		if volume.Bootable != nil {
			v.boot = *volume.Bootable
		}
		result = append(result, v)
	}
	return result
}

func (c *powerVSClient) requestShutdown(id string) error {
	return c.instanceClient.Action(id, &models.PVMInstanceAction{
		Action: core.StringPtr("immediate-shutdown"),
	})
}

func (c *powerVSClient) bulkDetachVolumes(id string) error {
	_, err := c.volumeClient.BulkVolumeDetach(id, &models.VolumesDetach{
		DetachAllVolumes:        core.BoolPtr(true),
		DetachPrimaryBootVolume: core.BoolPtr(true),
	})
	return err
}

func (c *powerVSClient) detachVolume(id string, volumeID string) error {
	return c.volumeClient.Detach(id, volumeID)
}

func (c *powerVSClient) deleteVolume(volumeID string) error {
	return c.volumeClient.DeleteVolume(volumeID)
}

func (c *powerVSClient) volumeExists(volumeID string) bool {
	_, err := c.volumeClient.Get(volumeID)
	return err == nil
}

func (c *powerVSClient) deleteLpar(id string) error {
	return c.instanceClient.Delete(id)
}

func (c *powerVSClient) lparExists(id string) bool {
	_, err := c.instanceClient.Get(id)
	return err == nil
}
