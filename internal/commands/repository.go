package commands

import (
	"github.com/spf13/cobra"

	"github.com/ericy3/lightweightGit/internal/repository"
)

const (
	initUseConstant              = "init"
	initShortDescriptionConstant = "Create an empty repository in the working directory"
	initLongDescriptionConstant  = "init creates the repository marker directory, an initial commit dated at the Unix epoch, and the default branch pointing at it."
)

// InitCommandBuilder assembles the init command.
type InitCommandBuilder struct {
	Environment Environment
}

// Build constructs the init command.
func (builder *InitCommandBuilder) Build() (*cobra.Command, error) {
	return &cobra.Command{
		Use:   initUseConstant,
		Short: initShortDescriptionConstant,
		Long:  initLongDescriptionConstant,
		Args:  exactOperands(0),
		RunE:  builder.run,
	}, nil
}

func (builder *InitCommandBuilder) run(command *cobra.Command, arguments []string) error {
	_, initError := repository.Init(builder.Environment.resolveOptions())
	return initError
}
