// Package utils exposes the configuration and logging helpers shared by the
// lwgit command-line application.
//
// ConfigurationLoader layers embedded defaults, an optional configuration file,
// and LWGIT_ environment variables through Viper. LoggerFactory builds the zap
// logger that every repository component receives.
package utils
