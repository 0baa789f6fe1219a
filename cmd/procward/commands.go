package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/loykin/procward"
	"github.com/loykin/procward/internal/history/factory"
	"github.com/loykin/procward/pkg/client"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

// apiBasePath is where the admin API is mounted on the daemon.
const apiBasePath = "/procward"

func createServeCommand(g *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the supervisor daemon with the HTTP admin API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(g.ConfigPath)
		},
	}
}

func runServe(configPath string) error {
	cfg, err := procward.LoadConfig(configPath)
	if err != nil {
		return err
	}
	procward.NewLogger(cfg.Log)
	if err := procward.RegisterMetrics(prometheus.DefaultRegisterer); err != nil {
		slog.Warn("metrics registration failed", "error", err)
	}

	opts := procward.Options{
		RegistryPath: cfg.RegistryPath,
		Signature:    cfg.Signature,
		Interval:     cfg.Interval,
	}
	if cfg.HistoryDSN != "" {
		sink, err := factory.NewSinkFromDSN(cfg.HistoryDSN)
		if err != nil {
			return fmt.Errorf("history sink: %w", err)
		}
		opts.History = sink
	}

	mgr := procward.New(opts)
	server, err := procward.NewHTTPServer(cfg.Listen, apiBasePath, mgr)
	if err != nil {
		return fmt.Errorf("start api server: %w", err)
	}
	slog.Info("procward daemon started", "listen", cfg.Listen, "registry", cfg.RegistryPath, "interval", cfg.Interval)

	// Startup reconcile clears anything left over from a previous run, then
	// the supervisor takes over on its cadence.
	mgr.Tick()
	mgr.StartSupervisor(nil)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	slog.Info("shutting down", "signal", sig.String())

	mgr.StopSupervisor()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		slog.Warn("api server shutdown", "error", err)
	}
	return nil
}

func createStatusCommand(api *APIFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show registered workspaces and unregistered orphans",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, ctx, cancel, err := newAPIClient(api)
			if err != nil {
				return err
			}
			defer cancel()
			report, err := c.ListRunning(ctx)
			if err != nil {
				return err
			}
			return printJSON(report)
		},
	}
	api.register(cmd)
	return cmd
}

func createRegisterCommand(api *APIFlags, rf *RegisterFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Record a workspace's worker process",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, ctx, cancel, err := newAPIClient(api)
			if err != nil {
				return err
			}
			defer cancel()
			return c.Register(ctx, client.RegisterRequest{
				WorkspaceID: rf.WorkspaceID,
				PID:         rf.PID,
				Folder:      rf.Folder,
			})
		},
	}
	api.register(cmd)
	rf.register(cmd, true)
	return cmd
}

func createUnregisterCommand(api *APIFlags, rf *RegisterFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "unregister",
		Short: "Remove a workspace's record without touching its process",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, ctx, cancel, err := newAPIClient(api)
			if err != nil {
				return err
			}
			defer cancel()
			return c.Unregister(ctx, rf.WorkspaceID)
		},
	}
	api.register(cmd)
	rf.register(cmd, false)
	return cmd
}

func createReconcileCommand(api *APIFlags, af *ActiveFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Run one reconciliation pass, reaping inactive workers",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, ctx, cancel, err := newAPIClient(api)
			if err != nil {
				return err
			}
			defer cancel()
			res, err := c.Reconcile(ctx, af.Active)
			if err != nil {
				return err
			}
			return printJSON(res)
		},
	}
	api.register(cmd)
	af.register(cmd)
	return cmd
}

func createScanCommand(api *APIFlags, af *ActiveFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Kill unregistered orphan workers matching the daemon signature",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, ctx, cancel, err := newAPIClient(api)
			if err != nil {
				return err
			}
			defer cancel()
			res, err := c.Scan(ctx, af.Active)
			if err != nil {
				return err
			}
			return printJSON(res)
		},
	}
	api.register(cmd)
	af.register(cmd)
	return cmd
}

func createClearCommand(api *APIFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Drop every registry record without touching processes",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, ctx, cancel, err := newAPIClient(api)
			if err != nil {
				return err
			}
			defer cancel()
			return c.ClearAll(ctx)
		},
	}
	api.register(cmd)
	return cmd
}

func newAPIClient(api *APIFlags) (*client.Client, context.Context, context.CancelFunc, error) {
	timeout, err := time.ParseDuration(api.APITimeout)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("invalid --api-timeout: %w", err)
	}
	c := client.New(client.Config{BaseURL: api.APIURL, Timeout: timeout})
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	if !c.IsReachable(ctx) {
		cancel()
		return nil, nil, nil, fmt.Errorf("daemon not reachable at %s", api.APIURL)
	}
	return c, ctx, cancel, nil
}

func printJSON(v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(b))
	return nil
}
