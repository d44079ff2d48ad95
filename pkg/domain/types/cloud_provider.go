package types

import "fmt"

// CloudProvider is where an account runs its data platform
type CloudProvider string

const (
	CloudProviderAWS    CloudProvider = "AWS"
	CloudProviderAzure  CloudProvider = "Azure"
	CloudProviderGCP    CloudProvider = "GCP"
	CloudProviderOCI    CloudProvider = "OCI"
	CloudProviderOnPrem CloudProvider = "On-Prem"
)

// AllCloudProviders returns all valid cloud providers
func AllCloudProviders() []CloudProvider {
	return []CloudProvider{
		CloudProviderAWS,
		CloudProviderAzure,
		CloudProviderGCP,
		CloudProviderOCI,
		CloudProviderOnPrem,
	}
}

// IsValid checks if the cloud provider is valid
func (c CloudProvider) IsValid() bool {
	switch c {
	case CloudProviderAWS,
		CloudProviderAzure,
		CloudProviderGCP,
		CloudProviderOCI,
		CloudProviderOnPrem:
		return true
	default:
		return false
	}
}

// String returns the string representation of the cloud provider
func (c CloudProvider) String() string {
	return string(c)
}

// ParseCloudProvider parses a string into a CloudProvider
func ParseCloudProvider(s string) (CloudProvider, error) {
	provider := CloudProvider(s)
	if !provider.IsValid() {
		return "", fmt.Errorf("invalid cloud provider: %s", s)
	}
	return provider, nil
}
