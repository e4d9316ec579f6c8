package bootstrap

import "go.uber.org/zap"

// NewLogger builds the process logger. Production gets the JSON encoder at
// info level, everything else the human-readable development encoder.
func NewLogger(env string) (*zap.Logger, error) {
	var (
		logger *zap.Logger
		err    error
	)
	if env == "production" {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		return nil, err
	}
	return logger, nil
}
