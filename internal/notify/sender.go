package notify

import (
	"context"
	"fmt"
	"net/smtp"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"boardshop/internal/mylogger"
)

type SMTPConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	From     string
}

// SMTPSender отправляет код восстановления пароля по почте
type SMTPSender struct {
	cfg    SMTPConfig
	logger *zap.Logger
	tracer trace.Tracer
	send   func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTPSender(cfg SMTPConfig, logger *zap.Logger) *SMTPSender {
	if cfg.From == "" {
		cfg.From = cfg.User
	}
	return &SMTPSender{
		cfg:    cfg,
		logger: logger,
		tracer: otel.Tracer("boardshop/notify"),
		send:   smtp.SendMail,
	}
}

func recoveryMessage(from, to, code string) []byte {
	subject := "Subject: Código de recuperación de contraseña\n"
	headers := fmt.Sprintf("From: %s\nTo: %s\n", from, to)
	mime := "MIME-version: 1.0;\nContent-Type: text/html; charset=\"UTF-8\";\n\n"
	body := fmt.Sprintf(`
		<h1>Recupera tu contraseña</h1>
		<p>Tu código es <b>%s</b>. Vence en 10 minutos.</p>
		<p>Si no lo solicitaste, ignora este mensaje.</p>
	`, code)
	return []byte(headers + subject + mime + body)
}

func (s *SMTPSender) SendRecoveryCode(ctx context.Context, to, code string) error {
	ctx, span := s.tracer.Start(ctx, "smtp.SendRecoveryCode")
	defer span.End()

	span.SetAttributes(attribute.String("to.email", to))

	addr := fmt.Sprintf("%s:%s", s.cfg.Host, s.cfg.Port)
	var auth smtp.Auth
	if s.cfg.User != "" {
		auth = smtp.PlainAuth("", s.cfg.User, s.cfg.Password, s.cfg.Host)
	}

	mylogger.Info(ctx, s.logger, "Sending recovery code email", zap.String("to", to))

	if err := s.send(addr, auth, s.cfg.From, []string{to}, recoveryMessage(s.cfg.From, to, code)); err != nil {
		span.RecordError(err)
		mylogger.Error(
			ctx,
			s.logger,
			"Error sending recovery code email",
			zap.String("to", to),
			zap.Error(err),
		)
		return fmt.Errorf("failed to send mail: %w", err)
	}

	mylogger.Info(ctx, s.logger, "Recovery code email sent", zap.String("to", to))
	return nil
}

// LogSender only logs that a code was issued. Used when no SMTP host is configured.
type LogSender struct {
	logger *zap.Logger
}

func NewLogSender(logger *zap.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) SendRecoveryCode(ctx context.Context, to, _ string) error {
	mylogger.Info(ctx, s.logger, "Recovery code issued, no mail transport configured", zap.String("to", to))
	return nil
}
