package store

import (
	"context"
	"database/sql"

	"github.com/Xunop/e-shelf/internal/model"
	"github.com/pkg/errors"
)

func (s *Store) GetSystemSetting(ctx context.Context, name string) (*model.SystemSetting, error) {
	if cache, ok := s.SystemSettingCache.Load(name); ok {
		return cache.(*model.SystemSetting), nil
	}

	setting := &model.SystemSetting{}
	stmt := `
	SELECT name, value, description FROM system_setting WHERE name = ?
	`
	if err := s.db.QueryRowContext(ctx, stmt, name).Scan(&setting.Name, &setting.Value, &setting.Description); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errors.Wrapf(ErrNotFound, "setting %s", name)
		}
		return nil, errors.Wrap(err, "failed to get system setting")
	}

	s.SystemSettingCache.Store(name, setting)
	return setting, nil
}

func (s *Store) UpsertSystemSetting(ctx context.Context, setting *model.SystemSetting) (*model.SystemSetting, error) {
	stmt := `
	INSERT INTO system_setting (name, value, description)
	VALUES (?, ?, ?)
	ON CONFLICT(name) DO UPDATE
	SET
		value = EXCLUDED.value,
		description = EXCLUDED.description
	`
	s.dbLock.Lock()
	defer s.dbLock.Unlock()
	if _, err := s.db.ExecContext(ctx, stmt, setting.Name, setting.Value, setting.Description); err != nil {
		return nil, errors.Wrapf(err, "failed to upsert system setting %s", setting.Name)
	}

	newSetting := &model.SystemSetting{
		Name:        setting.Name,
		Value:       setting.Value,
		Description: setting.Description,
	}
	s.SystemSettingCache.Store(newSetting.Name, newSetting)
	return newSetting, nil
}

// GetTheme returns the stored theme, or fallback when none was saved yet.
func (s *Store) GetTheme(ctx context.Context, fallback string) (string, error) {
	setting, err := s.GetSystemSetting(ctx, model.SettingTheme)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return fallback, nil
		}
		return "", err
	}
	return setting.Value, nil
}

func (s *Store) SetTheme(ctx context.Context, theme string) error {
	_, err := s.UpsertSystemSetting(ctx, &model.SystemSetting{
		Name:        model.SettingTheme,
		Value:       theme,
		Description: "UI theme",
	})
	return err
}

// GetGeneralSetting returns the general setting, empty when none was saved.
func (s *Store) GetGeneralSetting(ctx context.Context) (*model.SystemSettingGeneral, error) {
	setting, err := s.GetSystemSetting(ctx, model.SettingGeneral)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return &model.SystemSettingGeneral{}, nil
		}
		return nil, err
	}
	general, err := setting.GetGeneral()
	if err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal system general setting")
	}
	return general, nil
}

func (s *Store) SetGeneralSetting(ctx context.Context, general *model.SystemSettingGeneral) error {
	_, err := s.UpsertSystemSetting(ctx, &model.SystemSetting{
		Name:  model.SettingGeneral,
		Value: general.ToJSON(),
	})
	return err
}
