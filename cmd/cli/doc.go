// Package cli constructs the lwgit command-line interface, wiring the Cobra
// command hierarchy, the Viper configuration loader, and structured zap
// logging. Repository commands are provided by internal/commands and receive
// the resolved repository options and logger from the Application.
package cli
