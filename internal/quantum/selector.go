package quantum

import (
	"context"
	"time"

	"QCast/pkg/logger"
)

// Preferences drives backend resolution. It is built once from
// configuration and never read from ambient globals.
type Preferences struct {
	Enabled bool
	Token   string
	APIURL  string
	Device  string
	Timeout time.Duration
}

// Resolve picks the execution substrate at construction time:
// remote hardware when credentials are configured and reachable, else the
// local simulator, else the classical fallback. It never fails; the worst
// case resolves to ClassicalFallback.
func Resolve(prefs Preferences, log *logger.Logger) (Descriptor, Executor) {
	if log == nil {
		log = logger.Nop()
	}

	if !prefs.Enabled {
		log.Info("quantum disabled by configuration, using classical fallback")
		return Descriptor{Kind: ClassicalFallback, Name: "classical"}, nil
	}

	if prefs.Token != "" {
		remote := NewRemoteBackend(RemoteConfig{
			Token:   prefs.Token,
			BaseURL: prefs.APIURL,
			Device:  prefs.Device,
			Timeout: prefs.Timeout,
		})

		device := prefs.Device
		if device == "" {
			ctx, cancel := context.WithTimeout(context.Background(), prefs.Timeout)
			d, err := remote.LeastBusyDevice(ctx)
			cancel()
			if err != nil {
				log.Warn("quantum hardware unreachable, using local simulator", logger.Error(err))
				return Descriptor{Kind: LocalSimulator, Name: "statevector_simulator"}, NewSimulator()
			}
			device = d
		}

		remote.BindDevice(device)
		log.Info("using remote quantum backend", logger.String("device", device))
		return Descriptor{Kind: RemoteHardware, Name: device}, remote
	}

	log.Info("quantum token not configured, using local simulator")
	return Descriptor{Kind: LocalSimulator, Name: "statevector_simulator"}, NewSimulator()
}
