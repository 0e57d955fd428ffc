// Courier is a multi-provider data-fetch orchestration service.
//
// It routes fetch requests across external data providers, falling back
// between them on failure, caching results per content class, and
// journaling every request for cost and reliability analysis.
//
// Usage:
//
//	# Start the service with default configuration
//	courier run
//
//	# Start with a custom configuration file
//	courier run --config /etc/courier/config.yaml
//
//	# Perform a one-shot fetch from the command line
//	courier fetch https://example.com --class article
//
//	# Validate a configuration file
//	courier validate --config config.yaml
//
//	# Show version information
//	courier version
package main

func main() {
	Execute()
}
