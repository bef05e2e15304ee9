package main

// report prints the final status summary. The earlier stages are reported
// as complete once reached: their failures were either fatal, in which case
// this is never printed, or warnings that have already been logged.
func (o *CleanupRun) report() {
	o.Logger.Infof("==================================")
	o.Logger.Infof("Cleanup summary for LPAR %q", o.Config.LparName)
	if !o.resolved {
		o.Logger.Infof("Resolution:  LPAR not found")
		o.Logger.Infof("LPAR:        %s", o.lparDisposition)
		o.Logger.Infof("==================================")
		return
	}
	o.Logger.Infof("Shutdown:    complete")
	o.Logger.Infof("Detachment:  complete")
	o.Logger.Infof("Volumes:     complete")
	o.Logger.Infof("LPAR:        %s", o.lparDisposition)
	o.Logger.Infof("==================================")
}
