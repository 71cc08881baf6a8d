package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"

	"github.com/liamg/netscan/config"
	"github.com/liamg/netscan/netif"
	"github.com/liamg/netscan/probe"
	"github.com/liamg/netscan/scan"
	"github.com/liamg/netscan/scanerr"
	"github.com/liamg/netscan/version"
	"github.com/rs/xid"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// maxUnforcedSize is the largest range scanned without --force, a /16.
const maxUnforcedSize = 1 << 16

const (
	usageLine = "netscan [flags] <ip>"
	longHelp  = `Probes every address of the subnet containing the given IP and prints the ones that answer.

If the IP is assigned to this machine, the subnet of that interface is scanned. Otherwise
the subnet must be given with --prefix or --subnet.`
)

type app struct {
	stdout     io.Writer
	logger     *log.Logger
	interfaces netif.Lister
	newProber  func(method string, port int) (probe.Prober, error)
	describe   func(result scan.Result) []scan.HostDetails
}

func newApp() *app {
	return &app{
		stdout:     os.Stdout,
		logger:     log.StandardLogger(),
		interfaces: netif.System{},
		newProber: func(method string, port int) (probe.Prober, error) {
			return probe.New(method, runtime.GOOS, port)
		},
		describe: scan.NewDescriber().DescribeAll,
	}
}

var rootCmd = &cobra.Command{
	Use:                usageLine,
	Short:              "netscan finds the reachable hosts of an IPv4 subnet",
	Long:               longHelp,
	DisableFlagParsing: true,
	SilenceErrors:      true,
	SilenceUsage:       true,
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := config.DefaultsFromEnv(viper.New())
		if err != nil {
			return err
		}
		return newApp().run(cmd.Context(), args, defaults)
	},
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(scanerr.ExitCode(err))
	}
}

func (a *app) run(ctx context.Context, args []string, defaults config.Defaults) error {

	cfg, err := config.Parse(args, defaults)
	if err != nil {
		if errors.Is(err, config.ErrHelp) {
			a.usage(defaults)
			return nil
		}
		return err
	}

	if cfg.Version {
		v := version.Version
		if v == "" {
			v = "development version"
		}
		fmt.Fprintf(a.stdout, "netscan %s\n", v)
		return nil
	}

	if cfg.Verbose {
		a.logger.SetLevel(log.DebugLevel)
	}

	prober, err := a.newProber(cfg.Method, cfg.Port)
	if err != nil {
		return err
	}

	interfaces, err := a.interfaces.List(ctx)
	if err != nil {
		return scanerr.Wrap(scanerr.CodeInterfaceQuery, "unable to list network interfaces", err)
	}

	addressRange, err := scan.Resolve(cfg.Target, cfg.Prefix, cfg.Mask, interfaces)
	if err != nil {
		return err
	}
	if iface, addr, ok := scan.FindAssigned(cfg.Target, interfaces); ok {
		a.logger.Debugf("%s is assigned to %s, using its prefix /%d", cfg.Target, iface.Name, addr.Prefix)
		if cfg.Prefix != nil || cfg.Mask != nil {
			a.logger.Warnf("%s is assigned to this machine, ignoring the given prefix/subnet", cfg.Target)
		}
	}

	if cfg.HostsOnly {
		addressRange = addressRange.HostsOnly()
	}
	if addressRange.Size() > maxUnforcedSize && !cfg.Force {
		return scanerr.Newf(scanerr.CodeRangeTooLarge, "%s holds %d addresses, pass --force to scan more than a /16", addressRange, addressRange.Size())
	}

	target, err := scan.NewTarget(cfg.Target, addressRange, cfg.PoolSize, cfg.Timeout())
	if err != nil {
		return err
	}

	entry := a.logger.WithFields(log.Fields{
		"scan_id": xid.New().String(),
		"range":   addressRange.String(),
		"pool":    cfg.PoolSize,
		"method":  cfg.Method,
	})

	scheduler := scan.NewScheduler(scan.NewRunner(prober, entry), entry)
	scheduler.OnOutcome(func(outcome scan.Outcome) {
		if outcome.Status == scan.StatusError {
			entry.Debugf("%s", outcome.Err)
		}
	})

	entry.Debugf("Starting scan...")
	result, err := scheduler.Scan(ctx, target)
	if err != nil {
		return err
	}

	if cfg.Details {
		if err := writeDetails(a.stdout, a.describe(result)); err != nil {
			return err
		}
	} else {
		writeHosts(a.stdout, result)
	}

	if result.Errors > 0 {
		entry.Warnf("%d of %d probes could not be sent, those addresses were counted as unreachable", result.Errors, result.Probed)
	}
	entry.Infof("%s", result)
	return nil
}

func (a *app) usage(defaults config.Defaults) {
	var c config.Config
	fmt.Fprintf(a.stdout, "%s\n\nUsage:\n  %s\n\nFlags:\n%s", longHelp, usageLine, config.FlagSet(&c, defaults).FlagUsages())
}
