package messaging

// Profile is the public identity of a user as stored in the profiles table.
// Profiles are owned by the accounts context; the messaging context only
// reads them. Username and AvatarURL are nullable in the schema, so both are
// pointers here.
type Profile struct {
	ID        string  `json:"id" db:"id"`
	Username  *string `json:"username" db:"username"`
	AvatarURL *string `json:"avatar_url" db:"avatar_url"`
}

// DisplayName returns the username or a placeholder when the profile has
// none (or was deleted entirely and the caller holds a nil Profile).
func (p *Profile) DisplayName() string {
	if p == nil || p.Username == nil || *p.Username == "" {
		return "unknown artist"
	}
	return *p.Username
}

// Avatar returns the stored avatar URL or a deterministic identicon derived
// from the seed id, so a user without an avatar (or a deleted user) always
// renders the same placeholder.
func (p *Profile) Avatar(seedID string) string {
	if p != nil && p.AvatarURL != nil && *p.AvatarURL != "" {
		return *p.AvatarURL
	}
	if p != nil && p.ID != "" {
		seedID = p.ID
	}
	return PlaceholderAvatarURL(seedID)
}

// PlaceholderAvatarURL builds the fallback identicon URL for a user id.
func PlaceholderAvatarURL(userID string) string {
	return "https://api.dicebear.com/7.x/identicon/svg?seed=" + userID
}
