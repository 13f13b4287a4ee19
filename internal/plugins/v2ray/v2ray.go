// Package v2ray provides the "v2ray" built-in plugin: a supervised v2ray
// process that is restarted whenever a health check finds it has exited.
package v2ray

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/alexisbeaulieu97/wgcm/internal/plugin"
)

const (
	// Name is the plugin name and the name of its config section.
	Name = "v2ray"
	// ServiceKind is the service type the plugin offers.
	ServiceKind = "v2ray"
	// PhaseStatus reports the supervised process state.
	PhaseStatus = "status"
	// PhaseCheck runs the health check immediately.
	PhaseCheck = "check"

	version  = "0.1.0"
	requires = ">=0.1.0"
)

func init() {
	plugin.MustRegisterBuiltin(Name, New)
}

// Plugin offers the v2ray service.
type Plugin struct {
	stdout io.Writer
	stderr io.Writer
}

// New returns the v2ray plugin. The supervised process inherits the host's
// standard output streams.
func New() plugin.Plugin {
	return &Plugin{stdout: os.Stdout, stderr: os.Stderr}
}

// PluginMetadata implements plugin.Plugin.
func (p *Plugin) PluginMetadata() plugin.PluginMetadata {
	return plugin.PluginMetadata{
		Name:        Name,
		Version:     version,
		Requires:    requires,
		Description: "Supervised v2ray proxy",
	}
}

// ServiceTypes implements plugin.ServiceProvider.
func (p *Plugin) ServiceTypes() map[string]*plugin.Capability {
	service := []plugin.Parameter{
		{Name: "service", Default: plugin.FromContext(plugin.ContextKeyService)},
	}

	return map[string]*plugin.Capability{
		ServiceKind: {
			Description: "runs `v2ray run -c <config>` and restarts it when it exits",
			Phases: map[string]plugin.Phase{
				plugin.PhaseNew: {
					Func: p.start,
					Params: []plugin.Parameter{
						{
							Name:    "v2ray_path",
							Default: plugin.Template("{v2ray.path}"),
							Helper:  "path to the v2ray executable",
						},
						{
							Name:    "config_path",
							Default: plugin.Template("{v2ray.config}"),
							Helper:  "v2ray JSON configuration",
						},
						{
							Name:       "health_check",
							Default:    plugin.Template("{v2ray.health_check}"),
							Helper:     "cron spec for the liveness check, e.g. @every 1m",
							BeforePass: parseSchedule,
						},
					},
				},
				PhaseStatus: {
					Params: service,
					Func: func(_ context.Context, args plugin.Args) (any, error) {
						svc, err := serviceArg(args)
						if err != nil {
							return nil, err
						}
						return svc.Status(), nil
					},
				},
				PhaseCheck: {
					Params: service,
					Func: func(_ context.Context, args plugin.Args) (any, error) {
						svc, err := serviceArg(args)
						if err != nil {
							return nil, err
						}
						if err := svc.HealthCheck(); err != nil {
							return nil, err
						}
						return svc.Status(), nil
					},
				},
				plugin.PhaseTeardown: {
					Params: service,
					Func: func(_ context.Context, args plugin.Args) (any, error) {
						svc, err := serviceArg(args)
						if err != nil {
							return nil, err
						}
						return nil, svc.Stop()
					},
				},
			},
		},
	}
}

func (p *Plugin) start(_ context.Context, args plugin.Args) (any, error) {
	schedule, ok := args["health_check"].(cron.Schedule)
	if !ok {
		return nil, fmt.Errorf("health_check resolved to %T", args["health_check"])
	}

	svc := &Service{
		path:   args.String("v2ray_path"),
		config: args.String("config_path"),
		stdout: p.stdout,
		stderr: p.stderr,
		cron:   cron.New(),
	}
	if svc.path == "" {
		return nil, errors.New("v2ray_path is empty")
	}

	svc.mu.Lock()
	err := svc.spawnLocked()
	svc.mu.Unlock()
	if err != nil {
		return nil, err
	}
	// HealthCheck records restart failures in Status; the next tick retries.
	svc.cron.Schedule(schedule, cron.FuncJob(func() { _ = svc.HealthCheck() }))
	svc.cron.Start()
	return svc, nil
}

func serviceArg(args plugin.Args) (*Service, error) {
	svc, ok := args["service"].(*Service)
	if !ok || svc == nil {
		return nil, fmt.Errorf("service object is %T, want *v2ray.Service", args["service"])
	}
	return svc, nil
}

func parseSchedule(v any) (any, error) {
	switch s := v.(type) {
	case cron.Schedule:
		return s, nil
	case string:
		expr := strings.TrimSpace(s)
		if expr == "" {
			expr = "@every 1m"
		}
		schedule, err := cron.ParseStandard(expr)
		if err != nil {
			return nil, fmt.Errorf("health_check %q: %w", expr, err)
		}
		return schedule, nil
	default:
		return nil, fmt.Errorf("health_check has unsupported type %T", v)
	}
}

// Status is a snapshot of the supervised process. LastError holds the most
// recent failed restart and is cleared by a successful one.
type Status struct {
	PID       int
	Running   bool
	Restarts  int
	LastError string
}

// Service supervises one v2ray process.
type Service struct {
	path   string
	config string
	stdout io.Writer
	stderr io.Writer
	cron   *cron.Cron

	mu       sync.Mutex
	cmd      *exec.Cmd
	exited   chan struct{}
	restarts int
	lastErr  error
	stopped  bool
}

// spawnLocked starts a new process. Callers hold mu.
func (s *Service) spawnLocked() error {
	cmd := exec.Command(s.path, "run", "-c", s.config)
	cmd.Stdout = s.stdout
	cmd.Stderr = s.stderr
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", s.path, err)
	}

	exited := make(chan struct{})
	go func() {
		_ = cmd.Wait()
		close(exited)
	}()

	s.cmd = cmd
	s.exited = exited
	return nil
}

// HealthCheck restarts the process if it has exited.
func (s *Service) HealthCheck() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped || isRunning(s.exited) {
		return nil
	}
	s.restarts++
	s.lastErr = s.spawnLocked()
	return s.lastErr
}

// Status reports the current process state.
func (s *Service) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Status{Restarts: s.restarts, Running: !s.stopped && isRunning(s.exited)}
	if s.lastErr != nil {
		st.LastError = s.lastErr.Error()
	}
	if s.cmd != nil && s.cmd.Process != nil {
		st.PID = s.cmd.Process.Pid
	}
	return st
}

// Stop halts the health check and kills the process. It is safe to call
// more than once.
func (s *Service) Stop() error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil
	}
	s.stopped = true
	s.mu.Unlock()

	<-s.cron.Stop().Done()

	s.mu.Lock()
	cmd, exited := s.cmd, s.exited
	s.mu.Unlock()

	if cmd == nil || cmd.Process == nil {
		return nil
	}
	if err := cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("kill v2ray: %w", err)
	}
	<-exited
	return nil
}

func isRunning(exited chan struct{}) bool {
	if exited == nil {
		return false
	}
	select {
	case <-exited:
		return false
	default:
		return true
	}
}
