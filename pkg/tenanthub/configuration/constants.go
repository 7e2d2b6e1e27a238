package configuration

// Name is the extension name.
const Name = "com.tenanthub.configuration"

// Event names.
const (
	EventConfigureWithAppID        = "Configure with App ID"
	EventConfigureWithFilePath     = "Configure with File Path"
	EventConfigurationUpdate       = "Configuration Update"
	EventClearUpdatedConfiguration = "Clear Updated Configuration"
	EventPrivacyStatusRequest      = "Privacy Status Request"
	EventConfigurationResponse     = "Configuration Response Event"
)

// Event data keys.
const (
	KeyAppID              = "config.appId"
	KeyFilePath           = "config.filePath"
	KeyUpdateConfig       = "config.update"
	KeyClearUpdatedConfig = "config.clearUpdates"
	KeyRetrieveConfig     = "config.getData"
	KeyPrivacy            = "global.privacy"
)

// PrivacyStatus is the tenant's consent state.
type PrivacyStatus string

const (
	OptedIn  PrivacyStatus = "optedin"
	OptedOut PrivacyStatus = "optedout"
	Unknown  PrivacyStatus = "unknown"
)

// ParsePrivacyStatus maps a raw value to a PrivacyStatus. Anything that is
// not a known status string is Unknown.
func ParsePrivacyStatus(v any) PrivacyStatus {
	s, _ := v.(string)
	switch PrivacyStatus(s) {
	case OptedIn, OptedOut, Unknown:
		return PrivacyStatus(s)
	default:
		return Unknown
	}
}
