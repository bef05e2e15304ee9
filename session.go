package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/IBM-Cloud/power-go-client/clients/instance"
	"github.com/IBM-Cloud/power-go-client/ibmpisession"
	"github.com/IBM/go-sdk-core/v5/core"
	"github.com/IBM/platform-services-go-sdk/resourcecontrollerv2"
	"github.com/IBM/platform-services-go-sdk/resourcemanagerv2"
	"github.com/golang-jwt/jwt"
	"github.com/sirupsen/logrus"
)

const (
	// resource Id for Power Systems Virtual Server in the Global catalog.
	powerIAASResourceID = "abd259f0-9990-11e8-acc8-b9f54a8f1661"
)

// sessionOptions carries everything needed to reach one PowerVS workspace.
// Either ServiceGUID or ServiceName must be set; a name is resolved to its
// GUID through the resource controller.
type sessionOptions struct {
	APIKey        string
	Zone          string
	ServiceGUID   string
	ServiceName   string
	ResourceGroup string
}

// fetchAccountID extracts the account ID from the IAM token of the given
// API key. The PowerVS session needs it and the IAM service does not hand
// it out directly, so it is read out of the token's claims.
func fetchAccountID(apikey string) (string, error) {
	authenticator, err := core.NewIamAuthenticatorBuilder().SetApiKey(apikey).Build()
	if err != nil {
		return "", err
	}
	iamToken, err := authenticator.GetToken()
	if err != nil {
		return "", err
	}

	bluemixToken := strings.TrimPrefix(iamToken, "Bearer ")

	token, err := jwt.Parse(bluemixToken, func(token *jwt.Token) (interface{}, error) {
		return "", nil
	})
	if err != nil && !strings.Contains(err.Error(), "key is of invalid type") {
		return "", err
	}

	claims := token.Claims.(jwt.MapClaims)
	return claims["account"].(map[string]interface{})["bss"].(string), nil
}

func newAuthenticator(apikey string) (core.Authenticator, error) {
	if apikey == "" {
		return nil, fmt.Errorf("newAuthenticator: apikey is empty")
	}

	authenticator := &core.IamAuthenticator{
		ApiKey: apikey,
	}
	if err := authenticator.Validate(); err != nil {
		return nil, fmt.Errorf("newAuthenticator: authenticator.Validate: %w", err)
	}

	return authenticator, nil
}

// newPowerVSClient authenticates against IBM Cloud, resolves the target
// workspace, and returns a client bound to it.
func newPowerVSClient(ctx context.Context, opts sessionOptions, log logrus.FieldLogger) (*powerVSClient, error) {
	accountID, err := fetchAccountID(opts.APIKey)
	if err != nil {
		return nil, fmt.Errorf("newPowerVSClient: fetchAccountID: %w", err)
	}

	authenticator, err := newAuthenticator(opts.APIKey)
	if err != nil {
		return nil, err
	}

	piSession, err := ibmpisession.NewIBMPISession(&ibmpisession.IBMPIOptions{
		Authenticator: authenticator,
		Debug:         false,
		UserAccount:   accountID,
		Zone:          opts.Zone,
	})
	if err != nil {
		return nil, fmt.Errorf("newPowerVSClient: ibmpisession.NewIBMPISession: %w", err)
	}

	serviceGUID := opts.ServiceGUID
	if serviceGUID == "" {
		serviceGUID, err = serviceInstanceNameToGUID(ctx, opts, log)
		if err != nil {
			return nil, fmt.Errorf("newPowerVSClient: serviceInstanceNameToGUID: %w", err)
		}
		if serviceGUID == "" {
			return nil, fmt.Errorf("newPowerVSClient: service instance %q not found", opts.ServiceName)
		}
	}
	log.Debugf("newPowerVSClient: serviceGUID = %s", serviceGUID)

	return &powerVSClient{
		instanceClient: instance.NewIBMPIInstanceClient(context.Background(), piSession, serviceGUID),
		volumeClient:   instance.NewIBMPIVolumeClient(context.Background(), piSession, serviceGUID),
		logger:         log,
	}, nil
}

// serviceInstanceNameToGUID returns the GUID of the named PowerVS service
// instance, or "" when no instance matches.
func serviceInstanceNameToGUID(ctx context.Context, opts sessionOptions, log logrus.FieldLogger) (string, error) {
	authenticator, err := newAuthenticator(opts.APIKey)
	if err != nil {
		return "", err
	}
	controllerSvc, err := resourcecontrollerv2.NewResourceControllerV2(&resourcecontrollerv2.ResourceControllerV2Options{
		Authenticator: authenticator,
	})
	if err != nil {
		return "", fmt.Errorf("creating ResourceControllerV2 service: %w", err)
	}

	options := controllerSvc.NewListResourceInstancesOptions()
	// resource ID for Power Systems Virtual Server in the Global catalog
	options.SetResourceID(powerIAASResourceID)
	perPage := int64(10)
	options.SetLimit(perPage)

	if opts.ResourceGroup != "" {
		groupID, err := resourceGroupNameToID(ctx, opts.APIKey, opts.ResourceGroup, log)
		if err != nil {
			return "", err
		}
		options.SetResourceGroupID(groupID)
	}

	for moreData := true; moreData; {
		resources, _, err := controllerSvc.ListResourceInstancesWithContext(ctx, options)
		if err != nil {
			return "", fmt.Errorf("failed to list resource instances: %w", err)
		}

		for _, resource := range resources.Resources {
			if resource.Name == nil || resource.GUID == nil {
				continue
			}
			if *resource.Name == opts.ServiceName {
				log.Debugf("serviceInstanceNameToGUID: FOUND: %s %s", *resource.Name, *resource.GUID)
				return *resource.GUID, nil
			}
			log.Debugf("serviceInstanceNameToGUID: SKIP:  %s", *resource.Name)
		}

		// Based on: https://cloud.ibm.com/apidocs/resource-controller/resource-controller?code=go#list-resource-instances
		nextURL, err := core.GetQueryParam(resources.NextURL, "start")
		if err != nil {
			return "", fmt.Errorf("failed to GetQueryParam on start: %w", err)
		}
		if nextURL == nil {
			options.SetStart("")
		} else {
			options.SetStart(*nextURL)
		}

		moreData = *resources.RowsCount == perPage
	}

	return "", nil
}

// resourceGroupNameToID converts a human readable resource group name into
// the UUID the resource controller filters on.
func resourceGroupNameToID(ctx context.Context, apikey string, name string, log logrus.FieldLogger) (string, error) {
	authenticator, err := newAuthenticator(apikey)
	if err != nil {
		return "", err
	}
	managementSvc, err := resourcemanagerv2.NewResourceManagerV2(&resourcemanagerv2.ResourceManagerV2Options{
		Authenticator: authenticator,
	})
	if err != nil {
		return "", fmt.Errorf("creating ResourceManagerV2 service: %w", err)
	}

	listGroupOptions := managementSvc.NewListResourceGroupsOptions()
	groups, _, err := managementSvc.ListResourceGroupsWithContext(ctx, listGroupOptions)
	if err != nil {
		return "", fmt.Errorf("failed to list resource groups: %w", err)
	}
	for _, group := range groups.Resources {
		if group.Name == nil || group.ID == nil {
			continue
		}
		if *group.Name == name {
			log.Debugf("resourceGroupNameToID: group FOUND: %s %s", *group.Name, *group.ID)
			return *group.ID, nil
		}
		log.Debugf("resourceGroupNameToID: group SKIP:  %s %s", *group.Name, *group.ID)
	}

	// The caller may already have passed in a UUID.
	return name, nil
}
