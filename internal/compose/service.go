package compose

import "context"

// Service is a handle to one declared service. It holds no runtime state;
// every call queries the engine.
type Service struct {
	Name  string
	stack *Stack
}

func (s *Service) Up(ctx context.Context, opts UpOptions) error {
	return s.stack.Up(ctx, s.Name, opts)
}

func (s *Service) Kill(ctx context.Context) error {
	return s.stack.Kill(ctx, s.Name)
}

func (s *Service) Rm(ctx context.Context, force bool) error {
	return s.stack.Rm(ctx, s.Name, force)
}

func (s *Service) Exec(ctx context.Context, command string) (ExecResult, error) {
	return s.stack.Exec(ctx, s.Name, command)
}

// Logs returns everything the current container has written since it started.
func (s *Service) Logs(ctx context.Context) (string, error) {
	return s.stack.Logs(ctx, s.Name)
}

func (s *Service) Address(ctx context.Context, containerPort int) (Endpoint, error) {
	return s.stack.Address(ctx, s.Name, containerPort)
}
