package errors

import "fmt"

// ConfigInvalidError is returned when the configuration file fails to decode
// or validate.
type ConfigInvalidError struct {
	Path string
	Err  error
}

func (err *ConfigInvalidError) Error() string {
	return fmt.Sprintf("config %q is invalid: %v", err.Path, err.Err)
}

func (err *ConfigInvalidError) Code() int {
	return CodeConfigInvalid
}

func (err *ConfigInvalidError) Unwrap() error {
	return err.Err
}
