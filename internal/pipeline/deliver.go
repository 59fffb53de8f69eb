package pipeline

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/meeting-tracker/internal/model"
	"github.com/sells-group/meeting-tracker/internal/report"
	"github.com/sells-group/meeting-tracker/internal/resilience"
	"github.com/sells-group/meeting-tracker/pkg/sendgrid"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// deliver writes the workbook every run and mails the report when there is
// something new. Without recipients the email body goes to the preview file.
func (t *Tracker) deliver(ctx context.Context, r model.Report, noEmail bool) (Delivery, error) {
	var book bytes.Buffer
	if err := report.WriteWorkbook(&book, r); err != nil {
		return "", err
	}
	if t.opts.XLSXPath != "" {
		if err := writeFile(t.opts.XLSXPath, book.Bytes()); err != nil {
			return "", eris.Wrap(err, "pipeline: write workbook")
		}
		zap.L().Info("pipeline: workbook written", zap.String("path", t.opts.XLSXPath))
	}

	if len(r.NewMeetings) == 0 {
		zap.L().Info("pipeline: 0 meetings found")
		return DeliverySkipped, nil
	}
	if noEmail {
		return DeliverySkipped, nil
	}

	html, err := report.RenderHTML(r)
	if err != nil {
		return "", err
	}

	if t.deps.Mailer == nil || len(t.opts.Recipients) == 0 {
		if t.opts.HTMLPreviewPath == "" {
			return DeliverySkipped, nil
		}
		if err := writeFile(t.opts.HTMLPreviewPath, []byte(html)); err != nil {
			return "", eris.Wrap(err, "pipeline: write email preview")
		}
		zap.L().Info("pipeline: no recipients configured, wrote email preview",
			zap.String("path", t.opts.HTMLPreviewPath))
		return DeliveryPreview, nil
	}

	msg := sendgrid.Message{
		From:    t.opts.Sender,
		To:      t.opts.Recipients,
		Subject: report.Subject(r),
		HTML:    html,
		Attachments: []sendgrid.Attachment{{
			Filename: "meetings_" + r.GeneratedAt.UTC().Format("20060102") + ".xlsx",
			Type:     xlsxContentType,
			Content:  book.Bytes(),
		}},
	}

	err = resilience.Do(ctx, t.mailRetry, func(ctx context.Context) error {
		return mailStatusError(t.deps.Mailer.Send(ctx, msg))
	})
	if err != nil {
		return "", eris.Wrap(err, "pipeline: send email")
	}
	zap.L().Info("pipeline: email sent",
		zap.Int("recipients", len(t.opts.Recipients)),
		zap.Int("new_meetings", len(r.NewMeetings)),
	)
	return DeliveryEmailed, nil
}

// mailStatusError maps SendGrid errors onto the retry vocabulary.
func mailStatusError(err error) error {
	var apiErr *sendgrid.Error
	if errors.As(err, &apiErr) {
		return &resilience.StatusError{Service: "sendgrid", StatusCode: apiErr.StatusCode, Body: strings.Join(apiErr.Messages, "; ")}
	}
	return err
}

func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}
