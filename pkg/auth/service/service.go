package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/goalstake/goalstake/internal/metrics"
	apperrors "github.com/goalstake/goalstake/pkg/app/errors"
	"github.com/goalstake/goalstake/pkg/auth"
	"github.com/goalstake/goalstake/pkg/noncestore"
)

var (
	ErrInvalidAddress    = errors.New("invalid wallet address")
	ErrNonceInvalid      = errors.New("invalid or expired nonce")
	ErrSignatureMismatch = errors.New("signature does not match address")
)

// NonceStore is the narrow challenge-store interface for the auth service.
// Defined here to keep the service decoupled from noncestore implementation details.
type NonceStore interface {
	Issue(ctx context.Context, address string) (*noncestore.Nonce, error)
	Consume(ctx context.Context, address, value string) error
}

// Service defines the interface for the wallet sign-in business logic
type Service interface {
	IssueNonce(ctx context.Context, req *auth.NonceRequest) (*auth.NonceResponse, error)
	Verify(ctx context.Context, req *auth.VerifyRequest) (*auth.VerifyResponse, error)
	Validate(ctx context.Context, token string) (*auth.ValidateResponse, error)
}

type authService struct {
	nonces NonceStore
	issuer *auth.SessionIssuer
	logger *zap.Logger
}

// NewService creates a new wallet sign-in service
func NewService(nonces NonceStore, issuer *auth.SessionIssuer, logger *zap.Logger) Service {
	return &authService{
		nonces: nonces,
		issuer: issuer,
		logger: logger,
	}
}

// IssueNonce creates a single-use challenge bound to the requesting wallet.
// The wallet must sign the raw nonce string with personal_sign and present
// the signature to Verify before the challenge expires.
func (s *authService) IssueNonce(ctx context.Context, req *auth.NonceRequest) (*auth.NonceResponse, error) {
	if !auth.ValidAddress(req.Address) {
		return nil, apperrors.BadRequestError(ErrInvalidAddress, "invalid wallet address")
	}

	nonce, err := s.nonces.Issue(ctx, req.Address)
	if err != nil {
		return nil, fmt.Errorf("failed to issue nonce: %w", err)
	}
	metrics.NoncesIssued.Inc()

	return &auth.NonceResponse{
		Nonce:     nonce.Value,
		ExpiresAt: nonce.ExpiresAt,
	}, nil
}

// Verify checks a personal_sign signature against an outstanding nonce and,
// on success, issues a session token for the wallet.
//
// The verification process:
//  1. Consumes the nonce atomically, so a replayed nonce fails here
//  2. Recovers the signer address from the EIP-191 signature over the nonce
//  3. Compares the recovered address with the claimed one
//  4. Issues a signed session token bound to the wallet address
//
// The nonce is burned before signature recovery. A request with a valid
// nonce but a bad signature still consumes the challenge.
func (s *authService) Verify(ctx context.Context, req *auth.VerifyRequest) (*auth.VerifyResponse, error) {
	if !auth.ValidAddress(req.Address) {
		metrics.SignInAttempts.WithLabelValues("bad_request").Inc()
		return nil, apperrors.BadRequestError(ErrInvalidAddress, "invalid wallet address")
	}
	if req.Nonce == "" || req.Signature == "" {
		metrics.SignInAttempts.WithLabelValues("bad_request").Inc()
		return nil, apperrors.BadRequestError(nil, "nonce and signature required")
	}

	err := s.nonces.Consume(ctx, req.Address, req.Nonce)
	if err != nil {
		if errors.Is(err, noncestore.ErrNonceInvalid) {
			metrics.SignInAttempts.WithLabelValues("nonce_rejected").Inc()
			return nil, apperrors.UnAuthorizedError(ErrNonceInvalid, "invalid or expired nonce")
		}
		return nil, fmt.Errorf("failed to consume nonce: %w", err)
	}
	metrics.NoncesConsumed.Inc()

	recovered, err := auth.RecoverAddress(req.Nonce, req.Signature)
	if err != nil {
		metrics.SignInAttempts.WithLabelValues("bad_signature").Inc()
		return nil, apperrors.UnAuthorizedError(err, "invalid signature")
	}
	if !auth.SameAddress(recovered.Hex(), req.Address) {
		metrics.SignInAttempts.WithLabelValues("address_mismatch").Inc()
		return nil, apperrors.UnAuthorizedError(ErrSignatureMismatch, "signature does not match address")
	}

	token, err := s.issuer.Issue(req.Address)
	if err != nil {
		return nil, fmt.Errorf("failed to issue session token: %w", err)
	}

	metrics.SignInAttempts.WithLabelValues("success").Inc()
	metrics.SessionsIssued.Inc()

	return &auth.VerifyResponse{Token: token}, nil
}

// Validate checks a session token and reports the wallet address it is
// bound to. Expired tokens are reported distinctly from malformed ones.
func (s *authService) Validate(_ context.Context, token string) (*auth.ValidateResponse, error) {
	address, err := s.issuer.Validate(token)
	if err != nil {
		if errors.Is(err, auth.ErrSessionExpired) {
			return nil, apperrors.UnAuthorizedError(err, "authentication token expired")
		}
		return nil, apperrors.UnAuthorizedError(err, "invalid authentication token")
	}

	return &auth.ValidateResponse{WalletAddress: address}, nil
}
