package model //import "github.com/Xunop/e-shelf/internal/model"

import "encoding/json"

const (
	SettingTheme   = "SETTINGS_THEME"
	SettingGeneral = "SETTINGS_GENERAL"
)

type SystemSetting struct {
	Name        string `json:"name,omitempty"`
	Value       string `json:"value,omitempty"`
	Description string `json:"description,omitempty"`
}

// SystemSettingGeneral is informational state written by the server.
type SystemSettingGeneral struct {
	LastOpenedBook string `json:"last_opened_book"`
}

func (s *SystemSettingGeneral) ToJSON() string {
	b, _ := json.Marshal(s)
	return string(b)
}

func (s *SystemSetting) GetGeneral() (*SystemSettingGeneral, error) {
	var general SystemSettingGeneral
	err := json.Unmarshal([]byte(s.Value), &general)
	if err != nil {
		return nil, err
	}
	return &general, nil
}
