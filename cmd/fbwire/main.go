// Command fbwire is a thin manual-smoke-test CLI over the wire protocol
// engine, modeled on dittofsctl's cobra root command: a handful of
// subcommands that each load pkg/config, dial a Session, and issue one
// or two operations, printing the result for a human to eyeball against
// a real Firebird server. It is not a DB-API layer; cursors and statement
// objects belong to callers of the library.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/veyronfb/fbwire/internal/logger"
	"github.com/veyronfb/fbwire/internal/protocol/fbclient"
	"github.com/veyronfb/fbwire/internal/protocol/fberr"
	"github.com/veyronfb/fbwire/pkg/config"
	"github.com/veyronfb/fbwire/pkg/metrics"
)

var configPath string

func main() {
	root := &cobra.Command{
		Use:   "fbwire",
		Short: "Manual driver for the Firebird wire protocol engine",
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to config file (default: $XDG_CONFIG_HOME/fbwire/config.yaml)")

	root.AddCommand(connectCmd(), pingCmd(), queryCmd(), eventsCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadSession() (*fbclient.Session, *config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}

	if err := logger.Init(logger.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format, Output: cfg.Logging.Output}); err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}

	var collector *metrics.Collector
	if cfg.Metrics.Enabled {
		collector = metrics.New(prometheus.DefaultRegisterer)
	}

	sess, err := fbclient.Dial(fbclient.Config{
		Host:       cfg.Host,
		Port:       cfg.Port,
		Filename:   cfg.Database,
		User:       cfg.User,
		Password:   cfg.Password,
		Role:       cfg.Role,
		Charset:    cfg.Charset,
		WireCrypt:  cfg.WireCrypt,
		Timeout:    cfg.Timeout,
		AuthPlugin: cfg.AuthPlugin,
	}, collector)
	if err != nil {
		return nil, nil, err
	}
	return sess, cfg, nil
}

func connectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "connect",
		Short: "Connect and attach, printing the negotiated protocol version and plugin",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, _, err := loadSession()
			if err != nil {
				return err
			}
			if err := sess.Connect(); err != nil {
				return fmt.Errorf("connect: %w", err)
			}
			if err := sess.Attach(); err != nil {
				return fmt.Errorf("attach: %w", err)
			}
			defer sess.Detach()

			fmt.Printf("accept_version=%d plugin=%q db_handle=%d\n",
				sess.AcceptVersion(), sess.PluginName(), sess.DBHandle())
			return nil
		},
	}
}

func pingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Connect, attach, and ping the server",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, _, err := loadSession()
			if err != nil {
				return err
			}
			if err := sess.Connect(); err != nil {
				return fmt.Errorf("connect: %w", err)
			}
			if err := sess.Attach(); err != nil {
				return fmt.Errorf("attach: %w", err)
			}
			defer sess.Detach()

			if err := sess.Ping(); err != nil {
				return fmt.Errorf("ping: %w", err)
			}
			fmt.Printf("ok: protocol version %d, db handle %d\n", sess.AcceptVersion(), sess.DBHandle())
			return nil
		},
	}
}

func queryCmd() *cobra.Command {
	var sql string
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Execute a statement with no result set (e.g. DDL/DML)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if sql == "" {
				return fmt.Errorf("--sql is required")
			}
			sess, _, err := loadSession()
			if err != nil {
				return err
			}
			if err := sess.Connect(); err != nil {
				return fmt.Errorf("connect: %w", err)
			}
			if err := sess.Attach(); err != nil {
				return fmt.Errorf("attach: %w", err)
			}
			defer sess.Detach()

			transHandle, err := sess.StartTransaction()
			if err != nil {
				return fmt.Errorf("start transaction: %w", err)
			}

			if err := sess.ExecImmediate(transHandle, 3, sql); err != nil {
				_ = sess.Rollback(transHandle)
				return fmt.Errorf("exec_immediate: %w", err)
			}

			if err := sess.Commit(transHandle); err != nil {
				return fmt.Errorf("commit: %w", err)
			}
			fmt.Println("ok")
			return nil
		},
	}
	cmd.Flags().StringVar(&sql, "sql", "", "SQL statement to execute immediately")
	return cmd
}

func eventsCmd() *cobra.Command {
	var names []string
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Register interest in named events and print counters as they arrive",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(names) == 0 {
				return fmt.Errorf("--name is required (repeatable)")
			}
			sess, _, err := loadSession()
			if err != nil {
				return err
			}
			if err := sess.Connect(); err != nil {
				return fmt.Errorf("connect: %w", err)
			}
			if err := sess.Attach(); err != nil {
				return fmt.Errorf("attach: %w", err)
			}
			defer sess.Detach()

			eventID, err := sess.QueEvents(fbclient.BuildEventBlock(names))
			if err != nil {
				return fmt.Errorf("que_events: %w", err)
			}
			defer sess.CancelEvents(eventID)

			for {
				update, err := sess.WaitForEvent()
				var disconnected fberr.DisconnectByPeer
				if errors.As(err, &disconnected) {
					return nil
				}
				if err != nil {
					return fmt.Errorf("wait for event: %w", err)
				}
				fmt.Printf("event %d: %v\n", update.EventID, update.Counts)
			}
		},
	}
	cmd.Flags().StringArrayVar(&names, "name", nil, "event name to register interest in (repeatable)")
	return cmd
}
