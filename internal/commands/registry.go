package commands

// Builders lists the builder of every lwgit command in presentation order.
func Builders(environment Environment) []Builder {
	return []Builder{
		&InitCommandBuilder{Environment: environment},
		&AddCommandBuilder{Environment: environment},
		&CommitCommandBuilder{Environment: environment},
		&RemoveCommandBuilder{Environment: environment},
		&LogCommandBuilder{Environment: environment},
		&GlobalLogCommandBuilder{Environment: environment},
		&FindCommandBuilder{Environment: environment},
		&StatusCommandBuilder{Environment: environment},
		&CheckoutCommandBuilder{Environment: environment},
		&BranchCommandBuilder{Environment: environment},
		&RemoveBranchCommandBuilder{Environment: environment},
		&ResetCommandBuilder{Environment: environment},
		&MergeCommandBuilder{Environment: environment},
		&AddRemoteCommandBuilder{Environment: environment},
		&RemoveRemoteCommandBuilder{Environment: environment},
	}
}
