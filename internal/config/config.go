// Package config holds the command line configuration.
package config

import (
	"errors"
	"flag"
	"fmt"
	"natbwdash/internal/log"
	"natbwdash/internal/models"
	"natbwdash/internal/poller"
	"natbwdash/internal/reporting"
	"net/url"
	"os"
	"strings"
	"time"
)

// EnvPrefix is prepended to the upper cased flag name to form the
// environment variable that sets it, -link-base is NATBWDASH_LINK_BASE.
const EnvPrefix = "NATBWDASH_"

const (
	ModeTUI    = "tui"
	ModeServe  = "serve"
	ModeReport = "report"
)

// Config is the runtime configuration.
type Config struct {
	URL          string
	Mode         string
	Listen       string
	Interval     time.Duration
	Timeout      time.Duration
	OrderBy      string
	LinkBase     string
	VendorURL    string
	Manufacturer bool
	Report       string

	Log log.Flags
}

// Register registers the flags in a flag.FlagSet
func (c *Config) Register(fs *flag.FlagSet) {
	fs.StringVar(&c.URL, "url", "http://192.168.0.1:8833", "base url of the natbwmon instance")
	fs.StringVar(&c.Mode, "mode", ModeTUI, "one of tui, serve or report")
	fs.StringVar(&c.Listen, "listen", "127.0.0.1:8834", "listen address in serve mode")
	fs.DurationVar(&c.Interval, "interval", poller.DefaultInterval, "refresh interval")
	fs.DurationVar(&c.Timeout, "timeout", 0, "stats request timeout, 0 for none")
	fs.StringVar(&c.OrderBy, "order", string(models.DefaultOrderKey), "initial sort column")
	fs.StringVar(&c.LinkBase, "link-base", "", "base url for conntrack links (default: -url)")
	fs.StringVar(&c.VendorURL, "vendor-url", reporting.DefaultVendorURL, "vendor lookup url, the OUI is appended")
	fs.BoolVar(&c.Manufacturer, "manufacturer", true, "show the manufacturer column")
	fs.StringVar(&c.Report, "report", "", "output file in report mode (default: report_<time>.html)")
	c.Log.Register(fs)
}

// ApplyEnv sets every flag not given on the command line from its
// environment variable, if set.
func ApplyEnv(fs *flag.FlagSet, lookup func(string) (string, bool)) error {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	var errs []error
	fs.VisitAll(func(f *flag.Flag) {
		if set[f.Name] {
			return
		}
		v, ok := lookup(EnvName(f.Name))
		if !ok {
			return
		}
		if err := fs.Set(f.Name, v); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", EnvName(f.Name), err))
		}
	})
	return errors.Join(errs...)
}

// EnvName returns the environment variable for a flag name.
func EnvName(flagName string) string {
	r := strings.NewReplacer("-", "_", ".", "_")
	return EnvPrefix + strings.ToUpper(r.Replace(flagName))
}

// Validate checks the configuration and fills derived defaults.
func (c *Config) Validate() error {
	u, err := url.Parse(c.URL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("invalid -url %q", c.URL)
	}
	c.URL = strings.TrimRight(c.URL, "/")

	switch c.Mode {
	case ModeTUI, ModeServe, ModeReport:
	default:
		return fmt.Errorf("unknown -mode %q", c.Mode)
	}
	if c.Interval <= 0 {
		return fmt.Errorf("-interval must be positive, got %v", c.Interval)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("-timeout must not be negative, got %v", c.Timeout)
	}
	if c.OrderBy == "" {
		c.OrderBy = string(models.DefaultOrderKey)
	}
	if c.LinkBase == "" {
		c.LinkBase = c.URL
	}
	c.LinkBase = strings.TrimRight(c.LinkBase, "/")
	return nil
}

// Layout returns the table layout for the configuration.
func (c Config) Layout() reporting.Layout {
	l := reporting.DefaultLayout()
	l.Manufacturer = c.Manufacturer
	l.VendorFallback = c.Manufacturer
	l.LinkBase = c.LinkBase
	l.VendorURL = c.VendorURL
	l.VendorLinks = c.VendorURL != ""
	return l
}
