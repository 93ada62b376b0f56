package service

import (
	"context"
	"errors"

	"clubhouse/internal/audit"
	"clubhouse/internal/identity/models"
	"clubhouse/internal/mailer"
	dErrors "clubhouse/pkg/domain-errors"
	"clubhouse/pkg/platform/sentinel"
	"clubhouse/pkg/requestcontext"
)

// RequestChallenge issues a one-time code for an unregistered email. The
// code is persisted before delivery is attempted; a delivery failure is
// logged and the challenge stays verifiable.
func (s *Service) RequestChallenge(ctx context.Context, req *models.ChallengeRequest) error {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return err
	}

	if _, err := s.persons.FindByEmail(ctx, req.Email); err == nil {
		return dErrors.New(dErrors.CodeConflict, "User already exists")
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up person")
	}

	challenge, err := s.createChallenge(ctx, req.Email)
	if err != nil {
		return err
	}

	s.deliverChallenge(ctx, challenge)
	s.logAudit(ctx, audit.Event{
		Action:      audit.ActionChallengeRequested,
		TargetModel: audit.ModelChallenge,
		TargetID:    challenge.Email,
	})
	return nil
}

// createChallenge retries until the generated code is free system-wide.
func (s *Service) createChallenge(ctx context.Context, address string) (*models.Challenge, error) {
	now := requestcontext.Now(ctx)
	for range maxCodeAttempts {
		code, err := s.generateCode()
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to generate code")
		}
		challenge := &models.Challenge{
			Email:     address,
			Code:      code,
			CreatedAt: now,
			ExpiresAt: now.Add(s.challengeTTL),
		}
		err = s.challenges.Create(ctx, challenge)
		if err == nil {
			s.metrics.IncrementChallengeIssued()
			return challenge, nil
		}
		if !errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store challenge")
		}
		s.metrics.IncrementCodeCollision()
	}
	return nil, dErrors.New(dErrors.CodeInternal, "could not allocate a unique verification code")
}

func (s *Service) deliverChallenge(ctx context.Context, challenge *models.Challenge) {
	if s.mailer == nil {
		return
	}
	msg, err := mailer.ChallengeMessage(challenge.Email, challenge.Code, int(s.challengeTTL.Minutes()))
	if err == nil {
		err = s.mailer.Send(ctx, msg)
	}
	if err != nil {
		s.logger.WarnContext(ctx, "failed to deliver verification code",
			"email", challenge.Email,
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		s.metrics.IncrementEmailDeliveryFailure()
	}
}

// VerifyChallenge checks the most recent code for the email and consumes it.
func (s *Service) VerifyChallenge(ctx context.Context, req *models.VerifyRequest) error {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return err
	}
	if err := s.RedeemChallenge(ctx, req.Email, req.Code); err != nil {
		return err
	}
	s.logAudit(ctx, audit.Event{
		Action:      audit.ActionChallengeVerified,
		TargetModel: audit.ModelChallenge,
		TargetID:    req.Email,
	})
	return nil
}

// RedeemChallenge validates and consumes the latest challenge for address.
// Only one caller can consume a given challenge.
func (s *Service) RedeemChallenge(ctx context.Context, address, code string) error {
	if err := s.checkChallenge(ctx, address, code); err != nil {
		return err
	}
	if err := s.challenges.Consume(ctx, address, code); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			s.metrics.IncrementChallengeFailure("consumed")
			return dErrors.New(dErrors.CodeNotFound, "no verification code found for this email")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to consume challenge")
	}
	return nil
}

func (s *Service) checkChallenge(ctx context.Context, address, code string) error {
	challenge, err := s.challenges.Latest(ctx, address)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			s.metrics.IncrementChallengeFailure("not_found")
			return dErrors.New(dErrors.CodeNotFound, "no verification code found for this email")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load challenge")
	}
	if !challenge.Matches(code) {
		s.metrics.IncrementChallengeFailure("invalid")
		return dErrors.New(dErrors.CodeUnauthorized, "invalid verification code")
	}
	if challenge.IsExpiredAt(requestcontext.Now(ctx)) {
		s.metrics.IncrementChallengeFailure("expired")
		return dErrors.New(dErrors.CodeExpired, "verification code has expired")
	}
	return nil
}
