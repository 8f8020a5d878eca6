package domain

// Notification capability keys stored in User.NotificationSettings.
// A missing key means the capability is enabled.
const (
	CapabilityPush      = "pushEnabled"
	CapabilityChat      = "chatEnabled"
	CapabilityPriceDrop = "priceDropEnabled"
)

// User is the recipient profile read by the dispatcher. It is written by the
// client app; the backend only reads it.
type User struct {
	UserID               string          `json:"id" dynamodbav:"user_id"`
	DisplayName          string          `json:"display_name,omitempty" dynamodbav:"display_name,omitempty"`
	PushToken            *string         `json:"push_token,omitempty" dynamodbav:"push_token,omitempty"`
	Language             Language        `json:"language,omitempty" dynamodbav:"language,omitempty"`
	NotificationSettings map[string]bool `json:"notification_settings,omitempty" dynamodbav:"notification_settings,omitempty"`
	Role                 string          `json:"role,omitempty" dynamodbav:"role,omitempty"`
}

// HasPushToken reports whether the user registered a device for push.
func (u *User) HasPushToken() bool {
	return u != nil && u.PushToken != nil && *u.PushToken != ""
}

// PreferredLanguage returns the user's language, falling back to DefaultLanguage.
func (u *User) PreferredLanguage() Language {
	if u == nil {
		return DefaultLanguage
	}
	if l, ok := ParseLanguage(string(u.Language)); ok {
		return l
	}
	return DefaultLanguage
}
