package config

import (
	"errors"
	"fmt"
	"net/netip"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// LookupFunc resolves one variable. os.LookupEnv satisfies it.
type LookupFunc func(key string) (string, bool)

// FieldError is a problem with a single variable.
type FieldError struct {
	Var string
	Msg string
}

func (e *FieldError) Error() string {
	return e.Var + ": " + e.Msg
}

// Load reads configuration from the process environment, applies defaults
// and validates the result.
func Load() (*Config, error) {
	return LoadFrom(os.LookupEnv)
}

// LoadFrom reads configuration through lookup. Every bad value is reported,
// not just the first one.
func LoadFrom(lookup LookupFunc) (*Config, error) {
	cfg := &Config{}

	if err := loadStruct(reflect.ValueOf(cfg).Elem(), lookup); err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

// fieldTags are the struct tags the loader understands.
type fieldTags struct {
	env      string
	envAlt   string
	fallback string
	required bool
}

func tagsOf(f reflect.StructField) fieldTags {
	return fieldTags{
		env:      f.Tag.Get("env"),
		envAlt:   f.Tag.Get("envAlt"),
		fallback: f.Tag.Get("default"),
		required: f.Tag.Get("required") == "true",
	}
}

// resolve returns the raw value for a field: primary variable, then the
// alternate, then the default. Empty variables count as unset.
func (ft fieldTags) resolve(lookup LookupFunc) (string, error) {
	for _, key := range []string{ft.env, ft.envAlt} {
		if key == "" {
			continue
		}
		if v, ok := lookup(key); ok && v != "" {
			return v, nil
		}
	}
	if ft.required {
		return "", &FieldError{Var: ft.env, Msg: "required but not set"}
	}
	return ft.fallback, nil
}

var durationType = reflect.TypeOf(time.Duration(0))

// loadStruct walks nested config sections and sets every tagged field.
func loadStruct(v reflect.Value, lookup LookupFunc) error {
	var errs []error
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		field, fv := t.Field(i), v.Field(i)
		if !fv.CanSet() {
			continue
		}
		if field.Type.Kind() == reflect.Struct {
			errs = append(errs, loadStruct(fv, lookup))
			continue
		}

		tags := tagsOf(field)
		if tags.env == "" {
			continue
		}
		raw, err := tags.resolve(lookup)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if raw == "" {
			continue
		}
		if err := setField(fv, raw); err != nil {
			errs = append(errs, &FieldError{Var: tags.env, Msg: fmt.Sprintf("%q: %v", raw, err)})
		}
	}
	return errors.Join(errs...)
}

// setField converts raw into the field's type.
func setField(field reflect.Value, raw string) error {
	if field.Type() == durationType {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return errors.New("not a duration")
		}
		field.SetInt(int64(d))
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(raw)
	case reflect.Int, reflect.Int64:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return errors.New("not an integer")
		}
		field.SetInt(n)
	case reflect.Float64:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return errors.New("not a number")
		}
		field.SetFloat(f)
	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return errors.New("not a boolean")
		}
		field.SetBool(b)
	case reflect.Slice:
		if field.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("unsupported slice of %s", field.Type().Elem().Kind())
		}
		field.Set(reflect.ValueOf(splitList(raw)))
	default:
		return fmt.Errorf("unsupported field type %s", field.Kind())
	}
	return nil
}

// splitList splits a comma-separated list, dropping blanks.
func splitList(raw string) []string {
	out := []string{}
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// validator accumulates FieldErrors.
type validator []error

func (v *validator) check(ok bool, name, format string, args ...any) {
	if !ok {
		*v = append(*v, &FieldError{Var: name, Msg: fmt.Sprintf(format, args...)})
	}
}

// Validate checks cross-field constraints and returns every failure joined.
func (c *Config) Validate() error {
	var v validator

	switch c.Store.Driver {
	case "pebble":
		v.check(c.Store.Path != "", "STORE_PATH", "required for the pebble driver")
	case "postgres":
		v.check(c.Store.URL != "", "DATABASE_URL", "required for the postgres driver")
		v.check(c.Store.MaxConns > 0, "DB_MAX_CONNS", "must be positive")
		v.check(c.Store.MinConns >= 0, "DB_MIN_CONNS", "must be non-negative")
		v.check(c.Store.MaxConns >= c.Store.MinConns, "DB_MAX_CONNS",
			"(%d) must be >= DB_MIN_CONNS (%d)", c.Store.MaxConns, c.Store.MinConns)
	case "memory":
	default:
		v.check(false, "STORE_DRIVER", "%q must be one of: pebble, postgres, memory", c.Store.Driver)
	}

	v.check(c.Server.Port > 0 && c.Server.Port <= 65535, "SERVER_PORT", "%d must be 1-65535", c.Server.Port)
	v.check(c.Server.ReadTimeout >= 0, "SERVER_READ_TIMEOUT", "must be non-negative")
	v.check(c.Server.ShutdownTimeout > 0, "SERVER_SHUTDOWN_TIMEOUT", "must be positive")

	v.check(c.Upload.MaxFileSize > 0, "UPLOAD_MAX_FILE_SIZE", "must be positive")
	v.check(len(c.Upload.AllowedExtensions) > 0, "UPLOAD_ALLOWED_EXTENSIONS", "must list at least one extension")
	v.check(c.Upload.OperationWait > 0, "UPLOAD_OPERATION_WAIT", "must be positive")
	v.check(c.Upload.HistoryLimit > 0, "UPLOAD_HISTORY_LIMIT", "must be positive")

	v.check(c.Validation.CostMargin > 0, "VALIDATION_COST_MARGIN", "must be positive")

	v.check(!c.Rate.Enabled || c.Rate.RequestsPerMinute > 0, "RATE_LIMIT_REQUESTS_PER_MINUTE",
		"must be positive when rate limiting is enabled")

	v.check(!c.Security.RequireAPIKey || len(c.Security.APIKeys) > 0, "API_KEYS",
		"REQUIRE_API_KEY is set but no keys are configured")
	for _, p := range c.Security.TrustedProxies {
		v.check(validProxy(p), "TRUSTED_PROXIES", "%q is not an address or CIDR", p)
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		v.check(false, "LOG_LEVEL", "%q must be one of: debug, info, warn, error", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		v.check(false, "LOG_FORMAT", "%q must be one of: text, json", c.Logging.Format)
	}

	return errors.Join(v...)
}

func validProxy(s string) bool {
	s = strings.TrimSpace(s)
	if _, err := netip.ParsePrefix(s); err == nil {
		return true
	}
	_, err := netip.ParseAddr(s)
	return err == nil
}

// String renders the config for startup logs. The database URL and API keys
// are masked.
func (c *Config) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Config{Server: {Host: %q, Port: %d}, ", c.Server.Host, c.Server.Port)
	fmt.Fprintf(&b, "Store: {Driver: %q, Path: %q, URL: %s, MaxConns: %d}, ",
		c.Store.Driver, c.Store.Path, mask(c.Store.URL != ""), c.Store.MaxConns)
	fmt.Fprintf(&b, "Upload: {MaxFileSize: %d, AllowedExtensions: %v, OperationWait: %s, HistoryLimit: %d}, ",
		c.Upload.MaxFileSize, c.Upload.AllowedExtensions, c.Upload.OperationWait, c.Upload.HistoryLimit)
	fmt.Fprintf(&b, "Validation: {CostMargin: %g}, ", c.Validation.CostMargin)
	fmt.Fprintf(&b, "Rate: {Enabled: %v, RequestsPerMinute: %d, UploadLimit: %d}, ",
		c.Rate.Enabled, c.Rate.RequestsPerMinute, c.Rate.UploadLimit)
	fmt.Fprintf(&b, "Security: {RequireAPIKey: %v, APIKeys: [%d MASKED], TrustedProxies: %v}, ",
		c.Security.RequireAPIKey, len(c.Security.APIKeys), c.Security.TrustedProxies)
	fmt.Fprintf(&b, "Logging: {Level: %q, Format: %q}}", c.Logging.Level, c.Logging.Format)
	return b.String()
}

func mask(set bool) string {
	if set {
		return "[MASKED]"
	}
	return "[unset]"
}
