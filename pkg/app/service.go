package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/kardianos/service"

	"github.com/flemzord/fgbio-mcp/internal/config"
)

// ServiceName is the OS service identifier.
const ServiceName = "fgbio-mcp"

// serviceStopTimeout bounds how long Stop waits for the server to drain.
const serviceStopTimeout = 30 * time.Second

// ServiceActions lists the verbs accepted by ControlService.
var ServiceActions = service.ControlAction[:]

// program adapts RunContext to the kardianos/service lifecycle. Services
// always use the HTTP transport since there is no stdio peer.
type program struct {
	params RunParams
	cancel context.CancelFunc
	done   chan error
}

// Start implements service.Interface. It must not block.
func (p *program) Start(service.Service) error {
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.done = make(chan error, 1)
	go func() { p.done <- RunContext(ctx, p.params) }()
	return nil
}

// Stop implements service.Interface.
func (p *program) Stop(service.Service) error {
	if p.cancel == nil {
		return nil
	}
	p.cancel()
	select {
	case err := <-p.done:
		return err
	case <-time.After(serviceStopTimeout):
		return errors.New("app: service did not stop in time")
	}
}

// NewService describes fgbio-mcp as an OS service. configPath is passed
// to the installed service's "service run" command line.
func NewService(params RunParams) (service.Service, error) {
	params.Transport = config.TransportHTTP

	args := []string{"service", "run"}
	if params.ConfigPath != "" {
		abs, err := filepath.Abs(params.ConfigPath)
		if err != nil {
			return nil, fmt.Errorf("app: service: %w", err)
		}
		params.ConfigPath = abs
		args = append(args, "--config", abs)
	}

	svc, err := service.New(&program{params: params}, &service.Config{
		Name:        ServiceName,
		DisplayName: "fgbio MCP server",
		Description: "Serves fgbio SortBam and FilterBam as MCP tools over HTTP.",
		Arguments:   args,
	})
	if err != nil {
		return nil, fmt.Errorf("app: service: %w", err)
	}
	return svc, nil
}

// ControlService runs one of ServiceActions against svc.
func ControlService(svc service.Service, action string) error {
	if err := service.Control(svc, action); err != nil {
		return fmt.Errorf("app: service %s: %w", action, err)
	}
	return nil
}
