package main

import "github.com/spf13/cobra"

// GlobalFlags are flags shared by every subcommand.
type GlobalFlags struct {
	ConfigPath string
}

// APIFlags configure the HTTP client used by the remote subcommands.
type APIFlags struct {
	APIURL     string
	APITimeout string
}

func (f *APIFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.APIURL, "api-url", "http://127.0.0.1:8172/procward", "base URL of the procward daemon API")
	cmd.Flags().StringVar(&f.APITimeout, "api-timeout", "5s", "timeout for API requests")
}

// RegisterFlags identify a workspace worker for register/unregister.
type RegisterFlags struct {
	WorkspaceID string
	PID         int
	Folder      string
}

func (f *RegisterFlags) register(cmd *cobra.Command, withProcess bool) {
	cmd.Flags().StringVar(&f.WorkspaceID, "workspace", "", "workspace identifier")
	_ = cmd.MarkFlagRequired("workspace")
	if withProcess {
		cmd.Flags().IntVar(&f.PID, "pid", 0, "worker process id")
		cmd.Flags().StringVar(&f.Folder, "folder", "", "absolute workspace folder path")
		_ = cmd.MarkFlagRequired("pid")
		_ = cmd.MarkFlagRequired("folder")
	}
}

// ActiveFlags list the workspace ids that must survive a reconcile or scan.
type ActiveFlags struct {
	Active []string
}

func (f *ActiveFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringSliceVar(&f.Active, "active", nil, "workspace ids that are currently active (repeatable)")
}
