package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/google/uuid"

	"github.com/Dosada05/tournament-bot/models"
	"github.com/Dosada05/tournament-bot/storage"
)

// ExportService выгружает составы команд турнира в CSV и кладёт файл в объектное хранилище.
type ExportService struct {
	teams    *TeamService
	uploader storage.FileUploader
	logger   *slog.Logger
}

// NewExportService - uploader может быть nil, тогда выгрузка отключена.
func NewExportService(teams *TeamService, uploader storage.FileUploader, logger *slog.Logger) *ExportService {
	return &ExportService{teams: teams, uploader: uploader, logger: logger}
}

func (s *ExportService) Enabled() bool {
	return s.uploader != nil
}

// ExportRosters возвращает публичную ссылку на CSV.
func (s *ExportService) ExportRosters(ctx context.Context, tournamentID int) (string, error) {
	if !s.Enabled() {
		return "", ErrExportDisabled
	}
	rosters, err := s.teams.ListRosters(ctx, tournamentID)
	if err != nil {
		return "", err
	}

	body, err := RostersCSV(rosters)
	if err != nil {
		return "", err
	}

	key := fmt.Sprintf("rosters/tournament_%d/%s.csv", tournamentID, uuid.NewString())
	result, err := s.uploader.Upload(ctx, key, "text/csv; charset=utf-8", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to upload roster export: %w", err)
	}
	s.logger.InfoContext(ctx, "roster export uploaded",
		slog.Int("tournament_id", tournamentID), slog.String("key", result.Key))
	return result.Location, nil
}

// RostersCSV - одна строка на участника.
func RostersCSV(rosters []models.Roster) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write([]string{"team_id", "team", "status", "user_id", "full_name", "phone_number", "captain"})
	for _, r := range rosters {
		for _, m := range r.Members {
			name, phone := "", ""
			if m.User != nil {
				name, phone = m.User.FullName, m.User.PhoneNumber
			}
			_ = w.Write([]string{
				strconv.Itoa(r.Team.ID),
				r.Team.Name,
				r.Team.Status.String(),
				strconv.FormatInt(m.UserID, 10),
				name,
				phone,
				strconv.FormatBool(r.IsCaptain(m.UserID)),
			})
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to write roster csv: %w", err)
	}
	return buf.Bytes(), nil
}
