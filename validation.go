package sinklog

import (
	stderrs "errors"
	"fmt"
	"sync"

	"github.com/Station-Manager/errors"
	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate
var once sync.Once

func validatorInstance() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

type remoteTarget struct {
	Destination string `validate:"required,url"`
}

func validateSinks(sinks map[Severity]*sinkConfig) error {
	const op errors.Op = "sinklog.validateSinks"
	v := validatorInstance()
	for _, sev := range sortedSeverities(sinks) {
		if !sev.Valid() {
			return errors.New(op).Err(fmt.Errorf("%w: %d", ErrUnknownSeverity, uint32(sev))).Msg(errMsgUnknownSeverity)
		}
		if err := v.Struct(sinks[sev]); err != nil {
			return errors.New(op).Err(wrapConfiguration(fmt.Errorf("%s: %w", sev, err))).Msg(errMsgConfigInvalid)
		}
	}
	return nil
}

func validateDestination(destination string) error {
	const op errors.Op = "sinklog.validateDestination"
	if err := validatorInstance().Struct(remoteTarget{Destination: destination}); err != nil {
		return errors.New(op).Err(wrapConfiguration(err)).Msg(errMsgRemoteDestination)
	}
	return nil
}

// wrapConfiguration tags err as a configuration error unless it already is.
func wrapConfiguration(err error) error {
	if stderrs.Is(err, ErrConfiguration) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrConfiguration, err)
}
