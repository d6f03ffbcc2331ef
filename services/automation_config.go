package services

import "formfill/config"

// NewManagerConfig maps the environment driven automation settings onto the
// session manager policy
func NewManagerConfig(cfg config.AutomationConfig) ManagerConfig {
	return ManagerConfig{
		Navigator: NavigatorConfig{
			MaxPages:             cfg.MaxPages,
			PollInterval:         cfg.PollInterval,
			PollAttempts:         cfg.PollAttempts,
			GracePeriod:          cfg.GracePeriod,
			FingerprintQuestions: cfg.FingerprintQuestions,
		},
		NavigationRetries: cfg.NavigationRetries,
		SubmitWait:        cfg.SubmitWait,
		IdleTimeout:       cfg.IdleTimeout,
	}
}

func NewMapperConfig(cfg config.AutomationConfig) MapperConfig {
	return MapperConfig{
		FuzzyThreshold: cfg.FuzzyThreshold,
		CandidateFloor: cfg.CandidateFloor,
	}
}

func NewLauncherOptions(cfg config.AutomationConfig) PlaywrightLauncherOptions {
	return PlaywrightLauncherOptions{
		ProfileDir:        cfg.ProfileDir,
		NavigationTimeout: cfg.NavigationTimeout,
		Install:           cfg.InstallBrowsers,
	}
}
