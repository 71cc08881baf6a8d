// Package config turns command line arguments into a validated, immutable scan
// configuration.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/liamg/netscan/scanerr"
	"github.com/spf13/cast"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	DefaultPool       = 256
	DefaultWaitMillis = 1000.0
	DefaultMethod     = "ping"
	DefaultPort       = 1

	// MaxWaitMillis caps --wait at one hour.
	MaxWaitMillis = 3600000.0
)

// ErrHelp is returned by Parse when help was requested.
var ErrHelp = pflag.ErrHelp

// Config is a fully parsed and validated invocation.
type Config struct {
	Target     net.IP
	PoolSize   int     `validate:"min=1"`
	WaitMillis float64 `validate:"gte=0,lte=3600000"`
	Prefix     *int    `validate:"omitempty,min=0,max=32"`
	Mask       net.IP
	Method     string `validate:"oneof=ping icmp icmp-udp connect"`
	Port       int    `validate:"min=1,max=65535"`
	HostsOnly  bool
	Force      bool
	Details    bool
	Verbose    bool
	Version    bool
}

// Timeout is the per-probe wait.
func (c Config) Timeout() time.Duration {
	return time.Duration(c.WaitMillis * float64(time.Millisecond))
}

// Defaults are the values used for flags that were not given.
type Defaults struct {
	Pool       int
	WaitMillis float64
	Method     string
}

// DefaultsFromEnv reads NETSCAN_POOL, NETSCAN_WAIT and NETSCAN_METHOD, falling
// back to the built-in defaults. Values that do not parse are an error.
func DefaultsFromEnv(v *viper.Viper) (Defaults, error) {
	v.SetEnvPrefix("netscan")
	v.AutomaticEnv()
	v.SetDefault("pool", DefaultPool)
	v.SetDefault("wait", DefaultWaitMillis)
	v.SetDefault("method", DefaultMethod)

	pool, err := cast.ToIntE(v.Get("pool"))
	if err != nil {
		return Defaults{}, scanerr.Newf(scanerr.CodeInvalidArgument, "NETSCAN_POOL needs to be a whole number, got '%v'", v.Get("pool"))
	}
	wait, err := cast.ToFloat64E(v.Get("wait"))
	if err != nil {
		return Defaults{}, scanerr.Newf(scanerr.CodeInvalidArgument, "NETSCAN_WAIT needs to be a number of milliseconds, got '%v'", v.Get("wait"))
	}

	return Defaults{
		Pool:       pool,
		WaitMillis: wait,
		Method:     v.GetString("method"),
	}, nil
}

// FlagSet returns the flags Parse understands, writing into c. It is exported
// so the command can print usage.
func FlagSet(c *Config, defaults Defaults) *pflag.FlagSet {
	fs := pflag.NewFlagSet("netscan", pflag.ContinueOnError)
	fs.SortFlags = false
	fs.IntVar(&c.PoolSize, "pool", defaults.Pool, "Number of probes to run in parallel")
	fs.Float64Var(&c.WaitMillis, "wait", defaults.WaitMillis, "Time to wait for each probe in milliseconds")
	fs.Var(newPrefixValue(&c.Prefix), "prefix", "Network prefix length [0, 32], used when the IP is not assigned to this machine")
	fs.Var(newMaskValue(&c.Mask), "subnet", "Subnet mask (e.g. 255.255.255.0), used when the IP is not assigned to this machine")
	fs.StringVar(&c.Method, "method", defaults.Method, "Probe method. Must be one of ping, icmp, icmp-udp, connect")
	fs.IntVar(&c.Port, "port", DefaultPort, "TCP port used by the connect method")
	fs.BoolVar(&c.HostsOnly, "hosts-only", false, "Skip the network and broadcast addresses")
	fs.BoolVar(&c.Force, "force", false, "Allow scanning ranges larger than a /16")
	fs.BoolVar(&c.Details, "details", false, "Show MAC address, vendor and name of reachable hosts")
	fs.BoolVarP(&c.Verbose, "verbose", "v", false, "Enable verbose logging")
	fs.BoolVar(&c.Version, "version", false, "Output version information and exit")

	fs.VisitAll(func(f *pflag.Flag) {
		f.Value = &onceValue{Value: f.Value, name: f.Name}
	})
	return fs
}

// Parse builds a Config from the arguments following the program name. The
// returned Config is only meaningful when err is nil.
func Parse(args []string, defaults Defaults) (Config, error) {
	if len(args) == 0 {
		return Config{}, scanerr.New(scanerr.CodeInvalidArgument, "requires an IP address")
	}

	var c Config
	fs := FlagSet(&c, defaults)
	fs.SetOutput(&bytes.Buffer{})

	if err := fs.Parse(normalize(args, fs)); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return Config{}, ErrHelp
		}
		return Config{}, scanerr.Wrap(scanerr.CodeInvalidArgument, "invalid arguments", err)
	}

	if c.Version {
		return c, nil
	}

	switch fs.NArg() {
	case 0:
		return Config{}, scanerr.New(scanerr.CodeInvalidArgument, "requires an IP address")
	case 1:
	default:
		return Config{}, scanerr.Newf(scanerr.CodeInvalidArgument, "can only accept one IP address, got %s", strings.Join(fs.Args(), " "))
	}

	c.Target = net.ParseIP(fs.Arg(0))
	if c.Target == nil {
		return Config{}, scanerr.NewWithTarget(scanerr.CodeInvalidAddress, "IP provided is not valid", fs.Arg(0))
	}
	c.Method = strings.ToLower(c.Method)

	if err := validate(c); err != nil {
		return Config{}, err
	}
	return c, nil
}

var validate = func() func(c Config) error {
	v := validator.New()
	return func(c Config) error {
		err := v.Struct(c)
		if err == nil {
			return nil
		}
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) || len(verrs) == 0 {
			return scanerr.Wrap(scanerr.CodeInvalidArgument, "invalid configuration", err)
		}
		return fieldError(c, verrs[0])
	}
}()

func fieldError(c Config, fe validator.FieldError) error {
	switch fe.StructField() {
	case "PoolSize":
		return scanerr.Newf(scanerr.CodeInvalidPoolSize, "pool size needs to be a positive whole number, got %d", c.PoolSize)
	case "WaitMillis":
		return scanerr.Newf(scanerr.CodeInvalidArgument, "wait time (ms) needs to be a number in [0, %v], got %v", MaxWaitMillis, c.WaitMillis)
	case "Prefix":
		return scanerr.Newf(scanerr.CodeInvalidPrefix, "prefix needs to be a number in [0, 32], got %d", *c.Prefix)
	case "Method":
		return scanerr.Newf(scanerr.CodeInvalidArgument, "unknown probe method '%s'", c.Method)
	case "Port":
		return scanerr.Newf(scanerr.CodeInvalidArgument, "port needs to be in [1, 65535], got %d", c.Port)
	}
	return scanerr.New(scanerr.CodeInvalidArgument, fmt.Sprintf("invalid value for %s", fe.Field()))
}

// normalize rewrites single-dash long flags such as -pool into --pool.
func normalize(args []string, fs *pflag.FlagSet) []string {
	out := make([]string, 0, len(args))
	for i, arg := range args {
		if arg == "--" {
			return append(out, args[i:]...)
		}
		if len(arg) > 2 && arg[0] == '-' && arg[1] != '-' {
			name := strings.SplitN(arg[1:], "=", 2)[0]
			if len(name) > 1 && fs.Lookup(name) != nil {
				arg = "-" + arg
			}
		}
		out = append(out, arg)
	}
	return out
}
