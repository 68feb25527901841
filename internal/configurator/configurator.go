// Package configurator is the single point that accepts a Config and
// fans it out to the Scheduler, Alerter, and Session. Grounded on spec
// §4.8 and the multi-error aggregation style of go-multierror (direct
// dependency of the jayjanssen-myq-tools example repo).
package configurator

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"

	"schnooty-agent/internal/shared"
)

var validate = validator.New()

const (
	sourceConfig = "config://monitors"
	sourceAPI    = "api://monitors"
)

// MonitorApplier is the subset of the Scheduler the Configurator needs.
type MonitorApplier interface {
	ApplyMonitors(sourceID string, monitors []shared.Monitor)
}

// AlertApplier is the subset of the Alerter the Configurator needs.
type AlertApplier interface {
	AlertUpdate(alerts []shared.Alert)
}

// SessionApplier is the subset of the Session the Configurator needs.
type SessionApplier interface {
	ApplyIdentity(name, agentID, groupID string)
}

// Configurator fans out configuration to its dependents.
type Configurator struct {
	scheduler MonitorApplier
	alerter   AlertApplier
	session   SessionApplier
	logger    *zap.SugaredLogger
}

// New builds a Configurator. session may be nil if no Session is wired.
func New(scheduler MonitorApplier, alerter AlertApplier, session SessionApplier, logger *zap.SugaredLogger) *Configurator {
	return &Configurator{scheduler: scheduler, alerter: alerter, session: session, logger: logger.With("component", "configurator")}
}

// ApplySessionConfig fans the session identity out to the Session, the
// third leg of spec §4.8's Config fan-out (ApplyMonitors->Scheduler,
// AlertUpdate->Alerter, CurrentConfig->Session).
func (c *Configurator) ApplySessionConfig(name, agentID, groupID string) {
	if c.session == nil {
		return
	}
	c.session.ApplyIdentity(name, agentID, groupID)
}

// ApplyFileConfig fans out monitors/alerts sourced from the config file.
// Invalid entries are skipped and aggregated into the returned error; the
// valid remainder is still applied (configuration errors at
// reconfiguration are transient per spec §7.1: log, keep applying what's
// good).
func (c *Configurator) ApplyFileConfig(monitors []shared.Monitor, alerts []shared.Alert) error {
	return c.apply(sourceConfig, monitors, alerts)
}

// ApplyAPIConfig fans out monitors/alerts sourced from the control-plane
// API, as an independent source_id per spec §4.2/§D.3 union semantics.
func (c *Configurator) ApplyAPIConfig(monitors []shared.Monitor, alerts []shared.Alert) error {
	return c.apply(sourceAPI, monitors, alerts)
}

func (c *Configurator) apply(sourceID string, monitors []shared.Monitor, alerts []shared.Alert) error {
	var errs *multierror.Error

	validMonitors := make([]shared.Monitor, 0, len(monitors))
	for _, m := range monitors {
		if err := validate.Struct(m); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("monitor %q invalid: %w", m.Name, err))
			continue
		}
		validMonitors = append(validMonitors, m)
	}

	validAlerts := make([]shared.Alert, 0, len(alerts))
	for _, a := range alerts {
		if err := validate.Struct(a); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("alert %q invalid: %w", a.Type, err))
			continue
		}
		validAlerts = append(validAlerts, a)
	}

	c.scheduler.ApplyMonitors(sourceID, validMonitors)
	c.alerter.AlertUpdate(validAlerts)

	if errs.ErrorOrNil() != nil {
		c.logger.Warnw("applied configuration with errors", "source", sourceID, "error", errs)
	}

	return errs.ErrorOrNil()
}
