package postgres

import (
	"fmt"
	"time"

	"github.com/bytedance/sonic"

	"github.com/mkowalczk/footsync/internal/domain/batchreport"
	"github.com/mkowalczk/footsync/internal/domain/trackedplayer"
)

type batchReportTableModel struct {
	ID         string    `db:"id"`
	Tier       int       `db:"tier"`
	StartedAt  time.Time `db:"started_at"`
	FinishedAt time.Time `db:"finished_at"`
	Attempted  int       `db:"attempted"`
	Succeeded  int       `db:"succeeded"`
	Failed     int       `db:"failed"`
	// Stored as jsonb; kept as string so the driver binds it as text.
	Failures string `db:"failures"`
}

var batchReportSelectColumns = []string{
	"id",
	"tier",
	"started_at",
	"finished_at",
	"attempted",
	"succeeded",
	"failed",
	"failures",
}

type batchFailurePayload struct {
	PlayerID string `json:"player_id"`
	Reason   string `json:"reason"`
}

func batchReportToModel(report batchreport.Report) (batchReportTableModel, error) {
	payload := make([]batchFailurePayload, 0, len(report.Failures))
	for _, failure := range report.Failures {
		payload = append(payload, batchFailurePayload{PlayerID: failure.PlayerID, Reason: failure.Reason})
	}

	raw, err := sonic.Marshal(payload)
	if err != nil {
		return batchReportTableModel{}, fmt.Errorf("marshal batch failures: %w", err)
	}

	return batchReportTableModel{
		ID:         report.ID,
		Tier:       int(report.Tier),
		StartedAt:  report.StartedAt.UTC(),
		FinishedAt: report.FinishedAt.UTC(),
		Attempted:  report.Attempted,
		Succeeded:  report.Succeeded,
		Failed:     report.Failed,
		Failures:   string(raw),
	}, nil
}

func (m batchReportTableModel) toDomain() (batchreport.Report, error) {
	var payload []batchFailurePayload
	if len(m.Failures) > 0 {
		if err := sonic.UnmarshalString(m.Failures, &payload); err != nil {
			return batchreport.Report{}, fmt.Errorf("unmarshal batch failures id=%s: %w", m.ID, err)
		}
	}

	failures := make([]batchreport.Failure, 0, len(payload))
	for _, item := range payload {
		failures = append(failures, batchreport.Failure{PlayerID: item.PlayerID, Reason: item.Reason})
	}

	return batchreport.Report{
		ID:         m.ID,
		Tier:       trackedplayer.Tier(m.Tier),
		StartedAt:  m.StartedAt,
		FinishedAt: m.FinishedAt,
		Attempted:  m.Attempted,
		Succeeded:  m.Succeeded,
		Failed:     m.Failed,
		Failures:   failures,
	}, nil
}
