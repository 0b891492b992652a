package tsengine

import (
	"context"
	"slices"
)

// Recognized setting keys.
const (
	KeyWebhookURL      = "WEBHOOK_URL"
	KeySEOTitle        = "SEO_TITLE"
	KeySEODescription  = "SEO_DESCRIPTION"
	KeySEOKeywords     = "SEO_KEYWORDS"
	KeySocialFacebook  = "SOCIAL_MEDIA_FACEBOOK"
	KeySocialTwitter   = "SOCIAL_MEDIA_TWITTER"
	KeySocialInstagram = "SOCIAL_MEDIA_INSTAGRAM"
	KeySocialLinkedIn  = "SOCIAL_MEDIA_LINKEDIN"
	KeySiteIcon        = "SITE_ICON"
)

// SettingKeys lists every key the settings endpoints accept.
var SettingKeys = []string{
	KeyWebhookURL,
	KeySEOTitle, KeySEODescription, KeySEOKeywords,
	KeySocialFacebook, KeySocialTwitter, KeySocialInstagram, KeySocialLinkedIn,
	KeySiteIcon,
}

// settingRules are the validator tags a value must satisfy when written
// through the single-key endpoint. They match the group structs below.
var settingRules = map[string]string{
	KeyWebhookURL:      "omitempty,http_url",
	KeySEOTitle:        "max=200",
	KeySEODescription:  "max=500",
	KeySEOKeywords:     "max=500",
	KeySocialFacebook:  "omitempty,http_url",
	KeySocialTwitter:   "omitempty,http_url",
	KeySocialInstagram: "omitempty,http_url",
	KeySocialLinkedIn:  "omitempty,http_url",
	KeySiteIcon:        "omitempty,iconurl",
}

// IsSettingKey reports whether key is recognized.
func IsSettingKey(key string) bool {
	return slices.Contains(SettingKeys, key)
}

// SEOSettings is the SEO group. All three fields must be present; empty
// strings are allowed and mean "use the page default".
type SEOSettings struct {
	Title       *string `json:"title" validate:"required,max=200"`
	Description *string `json:"description" validate:"required,max=500"`
	Keywords    *string `json:"keywords" validate:"required,max=500"`
}

func (s SEOSettings) values() map[string]string {
	return map[string]string{
		KeySEOTitle:       deref(s.Title),
		KeySEODescription: deref(s.Description),
		KeySEOKeywords:    deref(s.Keywords),
	}
}

// SocialSettings is the social links group. Empty hides a link.
type SocialSettings struct {
	Facebook  string `json:"facebook" validate:"omitempty,http_url"`
	Twitter   string `json:"twitter" validate:"omitempty,http_url"`
	Instagram string `json:"instagram" validate:"omitempty,http_url"`
	LinkedIn  string `json:"linkedin" validate:"omitempty,http_url"`
}

func (s SocialSettings) values() map[string]string {
	return map[string]string{
		KeySocialFacebook:  s.Facebook,
		KeySocialTwitter:   s.Twitter,
		KeySocialInstagram: s.Instagram,
		KeySocialLinkedIn:  s.LinkedIn,
	}
}

// WebhookSettings holds the lead webhook target. Empty disables it.
type WebhookSettings struct {
	URL string `json:"url" validate:"omitempty,http_url"`
}

// SEOView is the SEO group as returned to clients.
type SEOView struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Keywords    string `json:"keywords"`
}

// SiteSettings is the typed view of the settings table. Keys that were
// never set read as "".
type SiteSettings struct {
	WebhookURL string         `json:"webhookUrl"`
	SEO        SEOView        `json:"seo"`
	Social     SocialSettings `json:"social"`
	IconURL    string         `json:"iconUrl"`
}

// PublicSite is what anonymous clients may see. The webhook is never exposed.
type PublicSite struct {
	Name    string         `json:"name"`
	URL     string         `json:"url"`
	SEO     SEOView        `json:"seo"`
	Social  SocialSettings `json:"social"`
	IconURL string         `json:"iconUrl"`
}

func settingsFromRows(rows []Setting) SiteSettings {
	var s SiteSettings
	for _, r := range rows {
		switch r.Key {
		case KeyWebhookURL:
			s.WebhookURL = r.Value
		case KeySEOTitle:
			s.SEO.Title = r.Value
		case KeySEODescription:
			s.SEO.Description = r.Value
		case KeySEOKeywords:
			s.SEO.Keywords = r.Value
		case KeySocialFacebook:
			s.Social.Facebook = r.Value
		case KeySocialTwitter:
			s.Social.Twitter = r.Value
		case KeySocialInstagram:
			s.Social.Instagram = r.Value
		case KeySocialLinkedIn:
			s.Social.LinkedIn = r.Value
		case KeySiteIcon:
			s.IconURL = r.Value
		}
	}
	return s
}

// LoadSiteSettings reads every setting into a SiteSettings.
func (a *App) LoadSiteSettings(ctx context.Context) (SiteSettings, error) {
	rows, err := a.Store.ListSettings(ctx)
	if err != nil {
		return SiteSettings{}, err
	}
	return settingsFromRows(rows), nil
}

// Public returns the subset of s that anonymous clients may read, with
// the site name standing in for an unset SEO title.
func (s SiteSettings) Public(cfg SiteConfig) PublicSite {
	seo := s.SEO
	if seo.Title == "" {
		seo.Title = cfg.Name
	}
	if seo.Description == "" {
		seo.Description = cfg.Description
	}
	return PublicSite{
		Name:    cfg.Name,
		URL:     cfg.URL,
		SEO:     seo,
		Social:  s.Social,
		IconURL: s.IconURL,
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
