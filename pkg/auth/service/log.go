package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/goalstake/goalstake/pkg/auth"
)

const serviceName = "AuthService"

const signatureDisplaySize = 16

// logService wraps Service with automatic logging of all method calls
type logService struct {
	svc    Service
	logger *zap.Logger
}

// NewLog creates a logging decorator for the auth Service.
// It logs method entry/exit, duration, errors, and sanitized request data.
func NewLog(svc Service, logger *zap.Logger) Service {
	return &logService{
		svc:    svc,
		logger: logger,
	}
}

func (ls *logService) IssueNonce(ctx context.Context, req *auth.NonceRequest) (resp *auth.NonceResponse, err error) {
	start := time.Now()

	ls.logger.Info("IssueNonce started",
		zap.String("service", serviceName),
		zap.String("address", req.Address),
	)

	defer func() {
		duration := time.Since(start)
		if err != nil {
			ls.logger.Error("IssueNonce failed",
				zap.String("service", serviceName),
				zap.String("address", req.Address),
				zap.Duration("duration", duration),
				zap.Error(err),
			)
		} else {
			ls.logger.Info("IssueNonce completed",
				zap.String("service", serviceName),
				zap.String("address", req.Address),
				zap.Time("expires_at", resp.ExpiresAt),
				zap.Duration("duration", duration),
			)
		}
	}()

	return ls.svc.IssueNonce(ctx, req)
}

func (ls *logService) Verify(ctx context.Context, req *auth.VerifyRequest) (resp *auth.VerifyResponse, err error) {
	start := time.Now()

	ls.logger.Info("Verify started",
		zap.String("service", serviceName),
		zap.String("address", req.Address),
		zap.String("signature", redactSignature(req.Signature)),
	)

	defer func() {
		duration := time.Since(start)
		if err != nil {
			ls.logger.Warn("Verify failed",
				zap.String("service", serviceName),
				zap.String("address", req.Address),
				zap.Duration("duration", duration),
				zap.Error(err),
			)
		} else {
			ls.logger.Info("Verify completed",
				zap.String("service", serviceName),
				zap.String("address", req.Address),
				zap.Duration("duration", duration),
			)
		}
	}()

	return ls.svc.Verify(ctx, req)
}

func (ls *logService) Validate(ctx context.Context, token string) (resp *auth.ValidateResponse, err error) {
	// Validation runs on every authenticated request, keep it quiet on success
	resp, err = ls.svc.Validate(ctx, token)
	if err != nil {
		ls.logger.Debug("Validate failed",
			zap.String("service", serviceName),
			zap.Error(err),
		)
	}
	return resp, err
}

// redactSignature redacts signature data to show only metadata.
// Signatures are one-time proofs but still should not be logged in full.
func redactSignature(sig string) string {
	if sig == "" {
		return "<empty>"
	}
	sigLen := len(sig)
	if sigLen > signatureDisplaySize {
		return fmt.Sprintf("%s...%s (%d bytes)", sig[:8], sig[sigLen-4:], sigLen)
	}
	return fmt.Sprintf("<%d bytes>", sigLen)
}
