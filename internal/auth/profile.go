package auth

// Profile is a normalized external authentication identity returned by
// an OAuth provider. It contains facts only, no decisions. Email is
// empty when the provider exposes none; DisplayName is never empty
// after normalization.
type Profile struct {
	Provider       string // e.g. "github", "google", "microsoft"
	ProviderUserID string // provider-scoped unique user identifier
	DisplayName    string
	Email          string
}
