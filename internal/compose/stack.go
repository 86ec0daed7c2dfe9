// Package compose drives a docker compose deployment on behalf of the
// scenario sequencer: lifecycle commands, log retrieval, port resolution
// and named-volume removal.
package compose

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/compose-spec/compose-go/v2/loader"
	types "github.com/compose-spec/compose-go/v2/types"
	"github.com/google/shlex"
	"github.com/schmitthub/rdsharness/internal/logger"
)

const defaultBinary = "docker"

// Engine removes named volumes. *docker.Engine satisfies it.
type Engine interface {
	RemoveVolume(ctx context.Context, name string) error
}

// Options configures Open.
type Options struct {
	// File is the compose file path. Required.
	File string
	// ProjectName overrides the project name derived from the file's directory.
	ProjectName string
	// Runner executes the compose CLI. Defaults to ExecRunner.
	Runner CommandRunner
	// Engine removes volumes. Required for RemoveVolume.
	Engine Engine
	// Binary is the docker CLI executable. Defaults to "docker".
	Binary string
}

// UpOptions configures Up.
type UpOptions struct {
	Detach bool
}

// ExecResult is the outcome of a command run inside a service container.
type ExecResult struct {
	ExitCode int
	Output   string
}

// Stack is a loaded compose deployment. Each Stack call maps to one compose
// CLI or engine invocation and nothing is cached between calls.
type Stack struct {
	file    string
	dir     string
	binary  string
	project *types.Project
	runner  CommandRunner
	engine  Engine
}

// Open loads and validates the compose file.
func Open(ctx context.Context, opts Options) (*Stack, error) {
	if opts.File == "" {
		return nil, fmt.Errorf("compose file is required")
	}
	abs, err := filepath.Abs(opts.File)
	if err != nil {
		return nil, fmt.Errorf("resolving compose file path: %w", err)
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("reading compose file: %w", err)
	}

	dir := filepath.Dir(abs)
	name := strings.TrimSpace(opts.ProjectName)
	if name == "" {
		name = loader.NormalizeProjectName(filepath.Base(dir))
	}

	details := types.ConfigDetails{
		WorkingDir:  dir,
		ConfigFiles: []types.ConfigFile{{Filename: abs, Content: data}},
		Environment: types.NewMapping(os.Environ()),
	}
	project, err := loader.LoadWithContext(ctx, details, func(o *loader.Options) {
		o.SetProjectName(name, true)
	})
	if err != nil {
		return nil, fmt.Errorf("parse compose file %s: %w", opts.File, err)
	}
	if len(project.Services) == 0 {
		return nil, fmt.Errorf("compose file %s has no services", opts.File)
	}

	s := &Stack{
		file:    abs,
		dir:     dir,
		binary:  opts.Binary,
		project: project,
		runner:  opts.Runner,
		engine:  opts.Engine,
	}
	if s.binary == "" {
		s.binary = defaultBinary
	}
	if s.runner == nil {
		s.runner = ExecRunner{}
	}

	logger.Debug().
		Str("file", abs).
		Str("project", project.Name).
		Strs("services", s.Services()).
		Msg("loaded compose project")
	return s, nil
}

// Project returns the compose project name.
func (s *Stack) Project() string {
	return s.project.Name
}

// File returns the absolute compose file path.
func (s *Stack) File() string {
	return s.file
}

// Services returns the declared service names, sorted.
func (s *Stack) Services() []string {
	names := make([]string, 0, len(s.project.Services))
	for name := range s.project.Services {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Service returns a handle for a declared service.
func (s *Stack) Service(name string) (*Service, error) {
	if _, ok := s.project.Services[name]; !ok {
		return nil, fmt.Errorf("%w %q in project %s", ErrUnknownService, name, s.project.Name)
	}
	return &Service{Name: name, stack: s}, nil
}

// Environment returns the environment declared for a service. Variables
// declared without a value are omitted.
func (s *Stack) Environment(service string) (map[string]string, error) {
	svc, ok := s.project.Services[service]
	if !ok {
		return nil, fmt.Errorf("%w %q in project %s", ErrUnknownService, service, s.project.Name)
	}
	env := make(map[string]string, len(svc.Environment))
	for k, v := range svc.Environment {
		if v != nil {
			env[k] = *v
		}
	}
	return env, nil
}

// PublishesPort reports whether the service declares a published mapping
// for containerPort.
func (s *Stack) PublishesPort(service string, containerPort int) bool {
	svc, ok := s.project.Services[service]
	if !ok {
		return false
	}
	for _, p := range svc.Ports {
		if int(p.Target) == containerPort {
			return true
		}
	}
	return false
}

// VolumeName resolves a declared volume key to its engine name.
func (s *Stack) VolumeName(key string) string {
	if v, ok := s.project.Volumes[key]; ok && v.Name != "" {
		return v.Name
	}
	return s.project.Name + "_" + key
}

// Up creates and starts a service.
func (s *Stack) Up(ctx context.Context, service string, opts UpOptions) error {
	args := []string{"up"}
	if opts.Detach {
		args = append(args, "-d")
	}
	_, err := s.run(ctx, "up", service, append(args, service)...)
	return err
}

// Kill sends SIGKILL to a service's containers.
func (s *Stack) Kill(ctx context.Context, service string) error {
	_, err := s.run(ctx, "kill", service, "kill", service)
	return err
}

// Rm removes a service's stopped containers. force skips confirmation and
// stops running containers first.
func (s *Stack) Rm(ctx context.Context, service string, force bool) error {
	args := []string{"rm"}
	if force {
		args = append(args, "-f", "-s")
	}
	_, err := s.run(ctx, "rm", service, append(args, service)...)
	return err
}

// ForceShutdown tears down every container of the project immediately.
// Volumes are kept.
func (s *Stack) ForceShutdown(ctx context.Context) error {
	_, err := s.run(ctx, "down", "", "down", "--remove-orphans", "--timeout", "0")
	return err
}

// Exec runs command inside a running service container and blocks until it
// exits. A non-zero exit is an *OrchestrationError carrying the exit code.
func (s *Stack) Exec(ctx context.Context, service, command string) (ExecResult, error) {
	argv, err := shlex.Split(command)
	if err != nil {
		return ExecResult{}, &OrchestrationError{Op: "exec", Service: service, ExitCode: -1, Err: fmt.Errorf("parsing command %q: %w", command, err)}
	}
	if len(argv) == 0 {
		return ExecResult{}, &OrchestrationError{Op: "exec", Service: service, ExitCode: -1, Err: fmt.Errorf("empty command")}
	}

	out, err := s.run(ctx, "exec", service, append([]string{"exec", "-T", service}, argv...)...)
	if err != nil {
		return ExecResult{ExitCode: exitCode(err), Output: out}, err
	}
	return ExecResult{Output: out}, nil
}

// Logs returns the full stdout and stderr log output of the service's
// current container.
func (s *Stack) Logs(ctx context.Context, service string) (string, error) {
	return s.runWith(ctx, s.runner.RunCombined, "logs", service, "logs", "--no-color", "--no-log-prefix", service)
}

// Address resolves the host endpoint publishing containerPort.
func (s *Stack) Address(ctx context.Context, service string, containerPort int) (Endpoint, error) {
	args := []string{"port", service, strconv.Itoa(containerPort)}
	out, err := s.run(ctx, "port", service, args...)
	if err != nil {
		return Endpoint{}, err
	}
	ep, err := parseEndpoint(out)
	if err != nil {
		return Endpoint{}, &OrchestrationError{
			Op:      "port",
			Service: service,
			Args:    s.composeArgs(args...),
			Output:  out,
			Err:     err,
		}
	}
	return ep, nil
}

// Running reports whether the service has a running container.
func (s *Stack) Running(ctx context.Context, service string) (bool, error) {
	out, err := s.run(ctx, "ps", service, "ps", "-q", service)
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(out) != "", nil
}

// RemoveVolume force-removes a declared volume. A missing volume is not an
// error.
func (s *Stack) RemoveVolume(ctx context.Context, key string) error {
	name := s.VolumeName(key)
	if s.engine == nil {
		return &OrchestrationError{Op: "volume rm", ExitCode: -1, Err: fmt.Errorf("no docker engine configured to remove volume %s", name)}
	}
	if err := s.engine.RemoveVolume(ctx, name); err != nil {
		return &OrchestrationError{Op: "volume rm", Args: []string{name}, ExitCode: -1, Err: err}
	}
	return nil
}

func (s *Stack) composeArgs(args ...string) []string {
	full := []string{"compose", "-f", s.file, "-p", s.project.Name}
	return append(full, args...)
}

func (s *Stack) run(ctx context.Context, op, service string, args ...string) (string, error) {
	return s.runWith(ctx, s.runner.RunOutput, op, service, args...)
}

type runFunc func(ctx context.Context, dir, name string, args ...string) ([]byte, error)

func (s *Stack) runWith(ctx context.Context, runFn runFunc, op, service string, args ...string) (string, error) {
	if service != "" {
		if _, ok := s.project.Services[service]; !ok {
			return "", fmt.Errorf("%w %q in project %s", ErrUnknownService, service, s.project.Name)
		}
	}

	full := s.composeArgs(args...)
	logger.Debug().Str("op", op).Str("service", service).Strs("args", full).Msg("docker compose")

	out, err := runFn(ctx, s.dir, s.binary, full...)
	if err != nil {
		return string(out), &OrchestrationError{
			Op:       op,
			Service:  service,
			Args:     full,
			ExitCode: exitCode(err),
			Output:   string(out),
			Err:      err,
		}
	}
	return string(out), nil
}
