// Package app wires the posting bot: configuration, Telegram handlers, the
// photo sender and the routing watcher.
package app

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	coreconfig "github.com/m3rciful/postbot/core/config"
	coredatabase "github.com/m3rciful/postbot/core/database"
	"github.com/m3rciful/postbot/internal/fanout"
	"github.com/m3rciful/postbot/internal/post"
)

// Config is the full bot configuration file.
type Config struct {
	coreconfig.Config `yaml:",inline"`

	Database coredatabase.Config `yaml:"database"`
	Routing  RoutingConfig       `yaml:"routing" ignored:"true"`
}

// RoutingConfig is the YAML form of the destination table.
type RoutingConfig struct {
	// Watch reloads routing when the config file changes.
	Watch bool `yaml:"watch"`
	// Routes maps a selectable category to the channels receiving the full post.
	Routes map[string][]string `yaml:"routes"`
	// Fixed channels receive the addendum for every category.
	Fixed []string `yaml:"fixed"`
	// PromoLinks overrides the built-in promo links per category, DEFAULT included.
	PromoLinks map[string]string `yaml:"promo_links"`
}

// CoreConfig implements cmd.ConfigCarrier.
func (c *Config) CoreConfig() *coreconfig.Config {
	if c == nil {
		return nil
	}
	return &c.Config
}

// LoadConfig reads and validates the configuration at path.
func LoadConfig(path string) (*Config, error) {
	var cfg Config
	if err := coreconfig.Decode(path, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize validates every section and fills defaults.
func (c *Config) Normalize() error {
	if err := coreconfig.Normalize(&c.Config); err != nil {
		return err
	}
	if err := c.Database.Normalize(); err != nil {
		return err
	}
	if _, err := c.Routing.Build(); err != nil {
		return err
	}
	return nil
}

// LoadRouting reads only the routing table from the config file at path.
// It is used for hot reload, where the rest of the file is not re-applied.
func LoadRouting(path string) (fanout.Routing, error) {
	var cfg Config
	if err := coreconfig.Decode(path, &cfg); err != nil {
		return fanout.Routing{}, err
	}
	return cfg.Routing.Build()
}

// Build validates the table and converts it to the form used by the dispatcher.
func (r RoutingConfig) Build() (fanout.Routing, error) {
	var errs []error
	out := fanout.Routing{
		Routes: make(map[post.Category][]post.Destination, len(r.Routes)),
		Promo:  post.DefaultPromoLinks(),
	}

	for key, dests := range r.Routes {
		c := post.Category(strings.ToUpper(strings.TrimSpace(key)))
		if !c.Selectable() {
			errs = append(errs, fmt.Errorf("routing.routes: %q is not a selectable category", key))
			continue
		}
		list, err := destinations(dests)
		if err != nil {
			errs = append(errs, fmt.Errorf("routing.routes.%s: %w", key, err))
			continue
		}
		out.Routes[c] = append(out.Routes[c], list...)
	}

	fixed, err := destinations(r.Fixed)
	if err != nil {
		errs = append(errs, fmt.Errorf("routing.fixed: %w", err))
	}
	out.Fixed = fixed

	overrides := make(post.PromoLinks, len(r.PromoLinks))
	for key, link := range r.PromoLinks {
		c := post.Category(strings.ToUpper(strings.TrimSpace(key)))
		if c != post.CategoryDefault && !c.Selectable() {
			errs = append(errs, fmt.Errorf("routing.promo_links: unknown category %q", key))
			continue
		}
		if err := validateLink(link); err != nil {
			errs = append(errs, fmt.Errorf("routing.promo_links.%s: %w", key, err))
			continue
		}
		overrides[c] = strings.TrimSpace(link)
	}
	out.Promo = out.Promo.Merge(overrides)

	if len(errs) > 0 {
		return fanout.Routing{}, errors.Join(errs...)
	}
	return out, nil
}

func destinations(raw []string) ([]post.Destination, error) {
	out := make([]post.Destination, 0, len(raw))
	for i, d := range raw {
		d = strings.TrimSpace(d)
		if d == "" {
			return nil, fmt.Errorf("destination #%d is empty", i+1)
		}
		out = append(out, post.Destination(d))
	}
	return out, nil
}

func validateLink(raw string) error {
	u, err := url.ParseRequestURI(strings.TrimSpace(raw))
	if err != nil {
		return err
	}
	if (u.Scheme != "https" && u.Scheme != "http") || u.Host == "" {
		return fmt.Errorf("%q is not an http(s) link", raw)
	}
	return nil
}
