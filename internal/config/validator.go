package config

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	gatecel "github.com/hostgate/hostgate/internal/adapter/outbound/cel"
)

// RegisterCustomValidators registers hostgate-specific validation rules.
// Must be called before validating Config.
func RegisterCustomValidators(v *validator.Validate) error {
	if err := v.RegisterValidation("duration", validateDuration); err != nil {
		return fmt.Errorf("failed to register duration validator: %w", err)
	}
	return nil
}

// validateDuration checks a field parses with time.ParseDuration.
func validateDuration(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if s == "" {
		return true
	}
	_, err := time.ParseDuration(s)
	return err == nil
}

// Validate validates the Config using struct tags and custom cross-field
// rules. Returns an error if validation fails, with actionable messages.
func (c *Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())

	if err := RegisterCustomValidators(v); err != nil {
		return err
	}

	if err := c.validateBackends(); err != nil {
		return err
	}

	if err := v.Struct(c); err != nil {
		return formatValidationErrors(err)
	}

	if err := c.validateConditionExpressions(); err != nil {
		return err
	}
	if err := c.validateAdminBinding(); err != nil {
		return err
	}

	return nil
}

// validateBackends ensures each backend specifies exactly one of
// {Address, Path} and that any per-backend dial timeout parses.
func (c *Config) validateBackends() error {
	check := func(where string, b BackendConfig) error {
		hasAddr := b.Address != ""
		hasPath := b.Path != ""
		if hasAddr == hasPath {
			return fmt.Errorf("%s: backend must specify exactly one of address or path", where)
		}
		if b.DialTimeout != "" {
			if _, err := time.ParseDuration(b.DialTimeout); err != nil {
				return fmt.Errorf("%s: backend.dial_timeout: %w", where, err)
			}
		}
		return nil
	}

	for i, r := range c.Routes {
		if err := check(fmt.Sprintf("routes[%d] (%s)", i, r.Host), r.Backend); err != nil {
			return err
		}
	}
	for i, r := range c.ConditionRoutes {
		if err := check(fmt.Sprintf("condition_routes[%d] (%s)", i, r.Name), r.Backend); err != nil {
			return err
		}
	}
	if c.Server.DialTimeout != "" {
		if _, err := time.ParseDuration(c.Server.DialTimeout); err != nil {
			return fmt.Errorf("server.dial_timeout: %w", err)
		}
	}
	return nil
}

// validateConditionExpressions compiles each condition route's CEL
// expression so a misconfigured route is rejected at load time instead of
// silently skipped at request time.
func (c *Config) validateConditionExpressions() error {
	if len(c.ConditionRoutes) == 0 {
		return nil
	}
	evaluator, err := gatecel.NewEvaluator()
	if err != nil {
		return fmt.Errorf("condition_routes: %w", err)
	}
	for _, r := range c.ConditionRoutes {
		if err := evaluator.ValidateExpression(r.Condition); err != nil {
			return fmt.Errorf("condition_routes[%s]: condition: %w", r.Name, err)
		}
	}
	return nil
}

// validateAdminBinding rejects a non-loopback admin listener with no token,
// since that would expose disconnect/status control to the network.
func (c *Config) validateAdminBinding() error {
	if !c.Admin.Enabled || c.Admin.TokenHash != "" {
		return nil
	}
	host, _, err := net.SplitHostPort(c.Admin.ListenAddr)
	if err != nil {
		return fmt.Errorf("admin.listen_addr: %w", err)
	}
	if host == "localhost" {
		return nil
	}
	if ip := net.ParseIP(host); ip != nil && ip.IsLoopback() {
		return nil
	}
	return errors.New("admin.listen_addr: binding to a non-loopback address requires admin.token_hash to be set")
}

// formatValidationErrors converts validator.ValidationErrors to
// user-friendly messages.
func formatValidationErrors(err error) error {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		var messages []string
		for _, e := range validationErrors {
			messages = append(messages, formatSingleValidationError(e))
		}
		return errors.New(strings.Join(messages, "; "))
	}
	return err
}

func formatSingleValidationError(e validator.FieldError) string {
	field := e.Namespace()
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, e.Param())
	case "hostname_port":
		return fmt.Sprintf("%s must be a valid host:port", field)
	case "duration":
		return fmt.Sprintf("%s must be a valid duration (e.g. \"10s\")", field)
	default:
		return fmt.Sprintf("%s failed validation: %s", field, e.Tag())
	}
}
