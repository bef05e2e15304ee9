package main

import (
	"time"

	"github.com/sirupsen/logrus"
)

// Defaults for CleanupConfig. The grace periods and the fallback threshold
// are fixed; the service needs the propagation time no matter what the
// caller is in a hurry about.
const (
	defaultPollInterval      = 15 * time.Second
	defaultMaxShutdownWait   = 5 * time.Minute
	defaultMaxDetachWait     = 5 * time.Minute
	defaultMaxDeleteWait     = 5 * time.Minute
	defaultMaxLparDeleteWait = 10 * time.Minute
	detachGracePeriod        = 30 * time.Second
	detachFallbackAfter      = 60 * time.Second
	lparDeleteGracePeriod    = 60 * time.Second
)

// CleanupConfig is the immutable configuration for one cleanup run.
type CleanupConfig struct {
	// LparName is the name of the LPAR to tear down.
	LparName string

	PollInterval      time.Duration
	MaxShutdownWait   time.Duration
	MaxDetachWait     time.Duration
	MaxDeleteWait     time.Duration
	MaxLparDeleteWait time.Duration

	// DeleteLpar deletes the LPAR itself after its volumes are gone.
	// When false the LPAR is retained for the next backup cycle.
	DeleteLpar bool
}

// DefaultCleanupConfig returns a CleanupConfig with the stock wait bounds.
func DefaultCleanupConfig(lparName string, deleteLpar bool) CleanupConfig {
	return CleanupConfig{
		LparName:          lparName,
		PollInterval:      defaultPollInterval,
		MaxShutdownWait:   defaultMaxShutdownWait,
		MaxDetachWait:     defaultMaxDetachWait,
		MaxDeleteWait:     defaultMaxDeleteWait,
		MaxLparDeleteWait: defaultMaxLparDeleteWait,
		DeleteLpar:        deleteLpar,
	}
}

// LPAR dispositions for the run report.
const (
	lparRetained    = "Retained by preference."
	lparAlreadyGone = "Already gone."
	lparDeleted     = "Deleted."
	lparUnconfirmed = "Deletion unconfirmed, may still be processing."
)

// CleanupRun holds the state of one teardown run: the resolved LPAR, its
// volumes, and the outcome of each stage. It is built fresh per run and
// thrown away afterwards; nothing is persisted between invocations.
type CleanupRun struct {
	Config CleanupConfig
	Logger logrus.FieldLogger

	client cleanupClient
	sleep  sleeper

	lparID   string
	resolved bool
	volumes  volumeSet

	lparDisposition string

	errorTracker
}

// NewCleanupRun returns a run over the given client.
func NewCleanupRun(config CleanupConfig, client cleanupClient, log logrus.FieldLogger) *CleanupRun {
	return &CleanupRun{
		Config: config,
		Logger: log,
		client: client,
		sleep:  time.Sleep,
	}
}

// Run drives the teardown to completion: resolve the LPAR, power it off,
// detach its volumes, delete them boot first, optionally delete the LPAR,
// and print the report. Stages run strictly in order; a returned error
// means a fatal stop (shutdown could not be confirmed, or an explicit LPAR
// delete request was rejected). Not finding the LPAR at all is a success:
// the environment is already clean.
func (o *CleanupRun) Run() error {
	if err := o.resolveLpar(); err != nil {
		return err
	}

	if o.resolved {
		if err := o.ensureShutdown(); err != nil {
			return err
		}
		o.detachVolumes()
		o.deleteVolumes()
	}

	if err := o.deleteLpar(); err != nil {
		return err
	}

	o.report()
	return nil
}

const suppressDuration = time.Minute * 5

// errorTracker holds a history of errors.
type errorTracker struct {
	history map[string]time.Time
}

// suppressWarning logs errors WARN once every duration and the rest to DEBUG.
func (o *errorTracker) suppressWarning(identifier string, err error, log logrus.FieldLogger) {
	if o.history == nil {
		o.history = map[string]time.Time{}
	}
	if firstSeen, ok := o.history[identifier]; ok {
		if time.Since(firstSeen) > suppressDuration {
			log.Warn(err)
			o.history[identifier] = time.Now() // reset the clock
		} else {
			log.Debug(err)
		}
	} else { // first error for this identifier
		o.history[identifier] = time.Now()
		log.Debug(err)
	}
}
