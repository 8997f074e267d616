package compare

import (
	"dishprice-workers/internal/common/config"
	"dishprice-workers/internal/common/logger"
	"dishprice-workers/internal/common/observability"
	"dishprice-workers/internal/sources"
	"dishprice-workers/internal/sources/swiggy"
	"dishprice-workers/internal/sources/zomato"
)

// NewServiceFromConfig builds the Swiggy and Zomato clients from cfg and
// wires them as sources A and B. The Zomato browser fallback is attached
// unless sources.zomato.fallback.enabled is false.
func NewServiceFromConfig(cfg *config.Config, obs *observability.Observability, log logger.Logger) *Service {
	swiggySettings := sources.SettingsFromConfig(cfg.Sources.Swiggy)
	zomatoSettings := sources.SettingsFromConfig(cfg.Sources.Zomato)

	return NewService(
		swiggy.NewClient(swiggySettings, log),
		zomato.NewClient(zomatoSettings, zomatoFallback(cfg.Sources.Zomato, zomatoSettings, log), log),
		OptionsFromConfig(cfg.Compare),
		obs,
		log,
	)
}

func zomatoFallback(src config.SourceConfig, settings sources.Settings, log logger.Logger) *zomato.Fallback {
	fb := src.Fallback
	if !fb.IsEnabled() {
		return nil
	}
	renderer := &zomato.BrowserRenderer{
		ControlURL:  fb.ControlURL,
		Bin:         fb.BrowserBin,
		UserAgent:   src.UserAgent,
		Timeout:     config.GetDuration(fb.Timeout),
		SettleDelay: config.GetDuration(fb.SettleDelay),
	}
	return zomato.NewFallback(settings.Name, settings.BaseURL, renderer, log)
}
