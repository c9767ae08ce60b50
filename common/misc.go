package common

import (
	"os"
)

const serviceName = "steward"

var serviceInstance string

func GetServiceName() string {
	return serviceName
}

// GetServiceInstance hostname is unique enough inside a container scheduler
func GetServiceInstance() string {
	if serviceInstance == "" {
		hostname, err := os.Hostname()
		if err != nil {
			hostname = "unknown"
		}
		serviceInstance = hostname
	}
	return serviceInstance
}
