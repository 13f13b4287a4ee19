package plugin

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
)

// ServiceInstance describes one live background service.
type ServiceInstance struct {
	ID          uuid.UUID
	ProcessName string
	Kind        string
	// Object is whatever the "new" phase returned; HasObject is false when
	// the service declares no constructor.
	Object    any
	HasObject bool
	StartedAt time.Time
}

type serviceEntry struct {
	ServiceInstance
	capability *Capability
	stopping   bool
}

// RunService starts a background service of the given kind under a
// caller-chosen process name, which must not already be running.
func (h *Handle) RunService(ctx context.Context, kind, processName string, overrides map[string]any) (ServiceInstance, error) {
	capability, err := h.ServiceCapability(kind)
	if err != nil {
		return ServiceInstance{}, err
	}
	if processName == "" {
		return ServiceInstance{}, fmt.Errorf("service process name is empty")
	}

	if err := h.reserve(processName); err != nil {
		return ServiceInstance{}, err
	}

	inst := ServiceInstance{
		ID:          uuid.New(),
		ProcessName: processName,
		Kind:        kind,
	}

	if phase, ok := capability.Phase(PhaseNew); ok {
		obj, err := h.runPhase(ctx, phase, kind+"."+PhaseNew, overrides, h.baseContext())
		if err != nil {
			h.release(processName)
			h.log.Warn("service failed to start", "service", kind, "process", processName, "error", err.Error())
			return ServiceInstance{}, err
		}
		inst.Object = obj
		inst.HasObject = true
	} else if _, err := Resolve(nil, overrides, nil); err != nil {
		h.release(processName)
		return ServiceInstance{}, err
	}

	inst.StartedAt = time.Now()

	h.mu.Lock()
	delete(h.starting, processName)
	h.running[processName] = &serviceEntry{ServiceInstance: inst, capability: capability}
	h.mu.Unlock()

	h.log.Info("service started", "service", kind, "process", processName, "id", inst.ID.String())
	return inst, nil
}

// CallService invokes a phase of a running service. The constructed object,
// when present, is available to the phase under the "service" context key.
func (h *Handle) CallService(ctx context.Context, phaseName, processName string, overrides map[string]any) (any, error) {
	entry, err := h.live(processName)
	if err != nil {
		return nil, err
	}
	if phaseName == PhaseNew || phaseName == PhaseTeardown {
		return nil, fmt.Errorf("phase '%s' is managed by the service lifecycle and cannot be called directly", phaseName)
	}

	phase, ok := entry.capability.Phase(phaseName)
	if !ok {
		return nil, &PhaseNotFoundError{Capability: entry.Kind, Phase: phaseName}
	}

	return h.runPhase(ctx, phase, entry.Kind+"."+phaseName, overrides, h.serviceContext(entry.ServiceInstance))
}

// StopService runs the service's teardown phase, if declared, and then
// removes the instance. The instance is removed even when teardown fails.
func (h *Handle) StopService(ctx context.Context, processName string, overrides map[string]any) error {
	h.mu.Lock()
	entry, ok := h.running[processName]
	if !ok || entry.stopping {
		h.mu.Unlock()
		return &ServiceNotFoundError{ProcessName: processName}
	}
	entry.stopping = true
	inst := entry.ServiceInstance
	h.mu.Unlock()

	var err error
	if phase, ok := entry.capability.Phase(PhaseTeardown); ok {
		_, err = h.runPhase(ctx, phase, inst.Kind+"."+PhaseTeardown, overrides, h.serviceContext(inst))
	} else {
		_, err = Resolve(nil, overrides, nil)
	}

	h.mu.Lock()
	delete(h.running, processName)
	h.mu.Unlock()

	if err != nil {
		h.log.Error(err, "service teardown failed", "service", inst.Kind, "process", processName)
		return err
	}
	h.log.Info("service stopped", "service", inst.Kind, "process", processName)
	return nil
}

// Services lists the running services ordered by process name.
func (h *Handle) Services() []ServiceInstance {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]ServiceInstance, 0, len(h.running))
	for _, entry := range h.running {
		if entry.stopping {
			continue
		}
		out = append(out, entry.ServiceInstance)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ProcessName < out[j].ProcessName
	})
	return out
}

// Service returns a running service by process name.
func (h *Handle) Service(processName string) (ServiceInstance, error) {
	entry, err := h.live(processName)
	if err != nil {
		return ServiceInstance{}, err
	}
	return entry.ServiceInstance, nil
}

// StopAll stops every running service, collecting teardown failures.
func (h *Handle) StopAll(ctx context.Context) error {
	var errs []error
	for _, inst := range h.Services() {
		err := h.StopService(ctx, inst.ProcessName, nil)
		var notFound *ServiceNotFoundError
		if err != nil && !errors.As(err, &notFound) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (h *Handle) reserve(processName string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.running[processName]; ok {
		return &ServiceExistsError{ProcessName: processName}
	}
	if _, ok := h.starting[processName]; ok {
		return &ServiceExistsError{ProcessName: processName}
	}
	h.starting[processName] = struct{}{}
	return nil
}

func (h *Handle) release(processName string) {
	h.mu.Lock()
	delete(h.starting, processName)
	h.mu.Unlock()
}

func (h *Handle) live(processName string) (*serviceEntry, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	entry, ok := h.running[processName]
	if !ok || entry.stopping {
		return nil, &ServiceNotFoundError{ProcessName: processName}
	}
	return entry, nil
}

func (h *Handle) serviceContext(inst ServiceInstance) Context {
	c := h.baseContext()
	if inst.HasObject {
		c[ContextKeyService] = inst.Object
	}
	return c
}
