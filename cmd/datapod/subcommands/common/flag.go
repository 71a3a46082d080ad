package common

import "os"

const (
	// EnvConfig is the environment variable naming the pod configuration file.
	EnvConfig = "DATAPOD_CONFIG"

	DefaultConfig = "./datapod.yaml"
)

type CommonFlags struct {
	Config string `flag:"config" help:"path to datapod configuration file. Defaults to $DATAPOD_CONFIG or ./datapod.yaml"`
}

type commonFlagDetection struct {
	getenv func(string) string
}

type CommonFlagDetectionOption func(*commonFlagDetection) *commonFlagDetection

// WithGetenv replaces the lookup of environment variables.
func WithGetenv(getenv func(string) string) CommonFlagDetectionOption {
	return func(opt *commonFlagDetection) *commonFlagDetection {
		opt.getenv = getenv
		return opt
	}
}

// Flags returns default values of common flags.
func Flags(opt ...CommonFlagDetectionOption) CommonFlags {
	det := commonFlagDetection{getenv: os.Getenv}
	for _, o := range opt {
		det = *o(&det)
	}

	config := det.getenv(EnvConfig)
	if config == "" {
		config = DefaultConfig
	}
	return CommonFlags{Config: config}
}
