// Package preference decides whether a user's notification settings permit
// a push. The policy is default-open: only an explicit false blocks.
package preference

import "github.com/go-market-triggers/internal/domain"

// specific maps a kind to its dedicated capability. Likes have none and are
// governed by the generic push capability alone.
var specific = map[domain.NotificationKind]string{
	domain.KindChat:      domain.CapabilityChat,
	domain.KindPriceDrop: domain.CapabilityPriceDrop,
}

// Allowed reports whether capability is enabled in settings.
func Allowed(settings map[string]bool, capability string) bool {
	if settings == nil {
		return true
	}
	enabled, ok := settings[capability]
	return !ok || enabled
}

// Permits reports whether a push of the given kind may be sent.
func Permits(settings map[string]bool, kind domain.NotificationKind) bool {
	if !Allowed(settings, domain.CapabilityPush) {
		return false
	}
	if capability, ok := specific[kind]; ok {
		return Allowed(settings, capability)
	}
	return true
}
