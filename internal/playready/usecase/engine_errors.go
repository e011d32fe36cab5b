package usecase

import (
	apperrors "github.com/allisson/playready-proxy/internal/errors"
	"github.com/allisson/playready-proxy/internal/playready/domain"
)

// classifyEngineError keeps the engine error kinds and folds everything else
// into ErrEngineGeneric.
func classifyEngineError(err error) error {
	switch {
	case err == nil:
		return nil
	case apperrors.Is(err, domain.ErrEngineInvalidSession),
		apperrors.Is(err, domain.ErrEngineInvalidLicense),
		apperrors.Is(err, domain.ErrEngineGeneric):
		return err
	default:
		return apperrors.Wrap(domain.ErrEngineGeneric, err.Error())
	}
}
