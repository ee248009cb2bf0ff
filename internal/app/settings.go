package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/sloppy/threatone/internal/db"
	"github.com/sloppy/threatone/internal/secret"
	"github.com/sloppy/threatone/internal/store"
)

// APIKeySetting is the setting that holds the Gemini API key when none is
// configured.
const APIKeySetting = "gemini_api_key"

const maskedPassword = "********"

// SettingView is the display form of a setting. Sealed values are redacted.
type SettingView struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	Sealed    bool      `json:"sealed"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// AuthSiteView is the display form of a monitored site.
type AuthSiteView struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	URL       string    `json:"url"`
	Username  string    `json:"username"`
	Password  string    `json:"password"`
	CreatedAt time.Time `json:"createdAt"`
}

func (d *Dashboard) Settings() ([]SettingView, error) {
	settings, err := d.db.ListSettings()
	if err != nil {
		return nil, err
	}
	out := make([]SettingView, 0, len(settings))
	for _, s := range settings {
		out = append(out, d.settingView(s))
	}
	return out, nil
}

// SaveSetting inserts or replaces a setting. Keys that name a secret are
// sealed before they reach the store.
func (d *Dashboard) SaveSetting(key, value string) (SettingView, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return SettingView{}, fmt.Errorf("setting: %w: key is required", store.ErrValidation)
	}
	s := db.Setting{Key: key, Value: value}
	if secret.SealedKey(key) {
		sealed, err := d.sealer.Seal(value)
		if err != nil {
			return SettingView{}, err
		}
		s.Value, s.Sealed = sealed, true
	}
	saved, err := d.db.UpsertSetting(s)
	if err != nil {
		return SettingView{}, err
	}
	return d.settingView(saved), nil
}

func (d *Dashboard) settingView(s db.Setting) SettingView {
	view := SettingView{Key: s.Key, Value: s.Value, Sealed: s.Sealed, UpdatedAt: s.UpdatedAt}
	if s.Sealed {
		plain, err := d.sealer.Open(s.Value)
		if err != nil {
			view.Value = maskedPassword
		} else {
			view.Value = secret.Redact(plain)
		}
	}
	return view
}

// apiKey returns the configured key, or the sealed key stored in settings.
func (d *Dashboard) apiKey(configured string) func() (string, error) {
	return func() (string, error) {
		if configured != "" {
			return configured, nil
		}
		settings, err := d.db.ListSettings()
		if err != nil {
			return "", err
		}
		for _, s := range settings {
			if s.Key != APIKeySetting {
				continue
			}
			if !s.Sealed {
				return s.Value, nil
			}
			return d.sealer.Open(s.Value)
		}
		return "", nil
	}
}

func (d *Dashboard) AuthSites() ([]AuthSiteView, error) {
	sites, err := d.db.ListAuthSites()
	if err != nil {
		return nil, err
	}
	out := make([]AuthSiteView, 0, len(sites))
	for _, s := range sites {
		out = append(out, authSiteView(s))
	}
	return out, nil
}

// AuthSiteDraft is the input for a monitored site. Password is plaintext and
// is sealed before storage.
type AuthSiteDraft struct {
	Name     string `json:"name"`
	URL      string `json:"url"`
	Username string `json:"username"`
	Password string `json:"password"`
}

func (d *Dashboard) AddAuthSite(draft AuthSiteDraft) (AuthSiteView, error) {
	if strings.TrimSpace(draft.Name) == "" || strings.TrimSpace(draft.URL) == "" {
		return AuthSiteView{}, fmt.Errorf("auth site: %w: name and url are required", store.ErrValidation)
	}
	site := db.AuthSite{Name: strings.TrimSpace(draft.Name), URL: strings.TrimSpace(draft.URL), Username: draft.Username}
	if draft.Password != "" {
		sealed, err := d.sealer.Seal(draft.Password)
		if err != nil {
			return AuthSiteView{}, err
		}
		site.Password = sealed
	}
	saved, err := d.db.CreateAuthSite(site)
	if err != nil {
		return AuthSiteView{}, err
	}
	return authSiteView(saved), nil
}

func authSiteView(s db.AuthSite) AuthSiteView {
	view := AuthSiteView{ID: s.ID, Name: s.Name, URL: s.URL, Username: s.Username, CreatedAt: s.CreatedAt}
	if s.Password != "" {
		view.Password = maskedPassword
	}
	return view
}
