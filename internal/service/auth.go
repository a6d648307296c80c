package service

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"

	"github.com/amberflux/lorepo"
	"github.com/amberflux/lorepo/internal/config"
	"github.com/amberflux/lorepo/jwt"
)

var tracer = otel.Tracer("auth")

type AuthService struct {
	config config.NodeInfo
}

func NewAuthService(conf config.NodeInfo) *AuthService {
	return &AuthService{config: conf}
}

// AuthJWT validates a bearer token issued by the identity provider and
// produces the requester token carried through the request context.
func (s *AuthService) AuthJWT(ctx context.Context, token string) (*lorepo.UserToken, error) {
	ctx, span := tracer.Start(ctx, "Auth.Service.AuthJWT")
	defer span.End()

	_, claims, err := jwt.Validate(token, s.config.PublicKey)
	if err != nil {
		span.RecordError(errors.Wrap(err, "jwt validation failed"))
		return nil, err
	}

	if claims.Audience != s.config.FQDN {
		err := fmt.Errorf("jwt audience mismatch: expected %s, got %s", s.config.FQDN, claims.Audience)
		span.RecordError(err)
		return nil, err
	}

	if claims.Subject != "lorepo" {
		err := fmt.Errorf("invalid subject")
		span.RecordError(err)
		return nil, err
	}

	if claims.Username == "" {
		err := fmt.Errorf("jwt carries no username")
		span.RecordError(err)
		return nil, err
	}

	return &lorepo.UserToken{
		Username:      claims.Username,
		Name:          claims.Name,
		Email:         claims.Email,
		EmailVerified: claims.EmailVerified,
		AccessGroups:  claims.AccessGroups,
	}, nil
}
