//
// (go build; ./snapshot-ops-part-3 -apiKey "${IBMCLOUD_API_KEY}" -serviceInstanceName "${SERVICE_INSTANCE}" -zone "${POWERVS_ZONE}" -lparName "rdr-backup-lpar" -shouldDebug true -deleteLpar false)
//

package main

import (
	"context"
	"flag"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

var (
	log              *logrus.Logger = nil
	shouldDebug                     = false
	shouldDeleteLpar                = false
)

func main() {

	var (
		logMain *logrus.Logger = &logrus.Logger{
			Out:       os.Stderr,
			Formatter: new(logrus.TextFormatter),
			Level:     logrus.DebugLevel,
		}

		out io.Writer
		err error

		// CLI parameters:
		ptrApiKey              *string
		ptrServiceInstanceGUID *string
		ptrServiceInstanceName *string
		ptrResourceGroup       *string
		ptrZone                *string
		ptrLparName            *string
		ptrShouldDebug         *string
		ptrDeleteLpar          *string
	)

	ptrApiKey = flag.String("apiKey", "", "Your IBM Cloud API key")
	ptrServiceInstanceGUID = flag.String("serviceInstanceGUID", "", "The GUID of the PowerVS service instance")
	ptrServiceInstanceName = flag.String("serviceInstanceName", "", "The name of the PowerVS service instance")
	ptrResourceGroup = flag.String("resourceGroup", "", "The resource group to search, when resolving by name")
	ptrZone = flag.String("zone", "", "The zone to use")
	ptrLparName = flag.String("lparName", "", "The name of the LPAR to tear down")
	ptrShouldDebug = flag.String("shouldDebug", "false", "Should output debug output")
	ptrDeleteLpar = flag.String("deleteLpar", "false", "Should delete the LPAR itself after its volumes")

	flag.Parse()

	switch strings.ToLower(*ptrShouldDebug) {
	case "true":
		shouldDebug = true
	case "false":
		shouldDebug = false
	default:
		logMain.Fatalf("Error: shouldDebug is not true/false (%s)", *ptrShouldDebug)
	}

	if shouldDebug {
		out = os.Stderr
	} else {
		out = io.Discard
	}
	log = &logrus.Logger{
		Out: out,
		Formatter: &logrus.TextFormatter{
			FullTimestamp: true,
		},
		Level: logrus.DebugLevel,
	}

	switch strings.ToLower(*ptrDeleteLpar) {
	case "true":
		shouldDeleteLpar = true
	case "false":
		shouldDeleteLpar = false
	default:
		logMain.Fatalf("Error: deleteLpar is not true/false (%s)", *ptrDeleteLpar)
	}

	if *ptrApiKey == "" {
		logMain.Fatal("Error: No API key set, use -apiKey")
	}
	if *ptrServiceInstanceGUID == "" && *ptrServiceInstanceName == "" {
		logMain.Fatal("Error: No service instance set, use -serviceInstanceGUID or -serviceInstanceName")
	}
	if *ptrZone == "" {
		logMain.Fatal("Error: No zone set, use -zone")
	}
	if *ptrLparName == "" {
		logMain.Fatal("Error: No LPAR name set, use -lparName")
	}

	if shouldDebug {
		log.Printf("ptrServiceInstanceGUID = %v", *ptrServiceInstanceGUID)
		log.Printf("ptrServiceInstanceName = %v", *ptrServiceInstanceName)
		log.Printf("ptrResourceGroup       = %v", *ptrResourceGroup)
		log.Printf("ptrZone                = %v", *ptrZone)
		log.Printf("ptrLparName            = %v", *ptrLparName)
		log.Printf("ptrDeleteLpar          = %v", *ptrDeleteLpar)
	}

	// The run report always goes to stderr, debug or not.
	reportLog := &logrus.Logger{
		Out: os.Stderr,
		Formatter: &logrus.TextFormatter{
			FullTimestamp: true,
		},
		Level: logrus.InfoLevel,
	}
	if shouldDebug {
		reportLog = log
	}

	client, err := newPowerVSClient(context.Background(), sessionOptions{
		APIKey:        *ptrApiKey,
		Zone:          *ptrZone,
		ServiceGUID:   *ptrServiceInstanceGUID,
		ServiceName:   *ptrServiceInstanceName,
		ResourceGroup: *ptrResourceGroup,
	}, reportLog)
	if err != nil {
		logMain.Fatalf("Error newPowerVSClient: %v", err)
	}

	run := NewCleanupRun(DefaultCleanupConfig(*ptrLparName, shouldDeleteLpar), client, reportLog)

	err = run.Run()
	if err != nil {
		logMain.Fatalf("Error cleanup.Run: %v", err)
	}
}
