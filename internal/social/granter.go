package social

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/dropDatabas3/socialgrant/internal/audit"
	"github.com/dropDatabas3/socialgrant/internal/observability/logger"
)

// IssueRequest es lo que recibe el emisor de credenciales tras una validación exitosa.
// Parameters ya no contiene el token.
type IssueRequest struct {
	ClientID   string
	Principal  *Principal
	Parameters map[string]string
}

// Credential es el access token emitido.
type Credential struct {
	AccessToken string
	TokenType   string
	ExpiresIn   int64
	Scope       string
}

// CredentialIssuer envuelve un principal en un access token propio (ver internal/jwt).
type CredentialIssuer interface {
	Issue(ctx context.Context, req IssueRequest) (*Credential, error)
}

// GrantInput es un request del grant social tal como llega del endpoint de token.
type GrantInput struct {
	RequestID  string
	ClientID   string
	Parameters map[string]string
}

// Granter implementa el grant "social": adapter -> dispatcher -> issuer, con audit.
type Granter struct {
	auth     Authenticator
	issuer   CredentialIssuer
	audit    audit.Sink
	observer Observer
	now      func() time.Time
}

// GranterDeps agrupa las dependencias del Granter.
type GranterDeps struct {
	Authenticator Authenticator
	Issuer        CredentialIssuer
	Audit         audit.Sink
	Observer      Observer
}

// NewGranter crea el granter. Audit y Observer son opcionales.
func NewGranter(deps GranterDeps) *Granter {
	g := &Granter{
		auth:     deps.Authenticator,
		issuer:   deps.Issuer,
		audit:    deps.Audit,
		observer: deps.Observer,
		now:      time.Now,
	}
	if g.audit == nil {
		g.audit = audit.Nop{}
	}
	if g.observer == nil {
		g.observer = noopObserver{}
	}
	return g
}

// Grant valida el token social del request y emite la credencial.
func (g *Granter) Grant(ctx context.Context, in GrantInput) (*Credential, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("social.granter"),
		logger.ClientID(in.ClientID),
	)

	ev := audit.Event{
		At:         g.now().UTC(),
		RequestID:  in.RequestID,
		ClientID:   in.ClientID,
		GrantType:  GrantType,
		Parameters: Sanitize(in.Parameters),
	}

	req, err := ExtractGrant(in.Parameters)
	if err != nil {
		ev.ProviderType = in.Parameters[ParamType]
		return nil, g.fail(ctx, log, ev, err)
	}
	ev.ProviderType = req.ProviderType
	log = log.With(logger.Provider(req.ProviderType))

	principal, err := g.auth.Authenticate(ctx, req.ProviderType, req.Token)
	if err != nil {
		return nil, g.fail(ctx, log, ev, err)
	}
	if !principal.Authenticated() {
		return nil, g.fail(ctx, log, ev, InvalidGrant(req.ProviderType))
	}
	ev.SubjectID = principal.SubjectID()

	cred, err := g.issuer.Issue(ctx, IssueRequest{
		ClientID:   in.ClientID,
		Principal:  principal,
		Parameters: req.Parameters,
	})
	if err != nil {
		return nil, g.fail(ctx, log, ev, err)
	}

	ev.Outcome = OutcomeAuthenticated
	g.observer.ObserveGrant(req.ProviderType, ev.Outcome)
	g.record(ctx, log, ev)
	log.Info("social grant issued", logger.Subject(principal.SubjectID()))
	return cred, nil
}

func (g *Granter) fail(ctx context.Context, log *zap.Logger, ev audit.Event, err error) error {
	ev.Outcome = Outcome(nil, err)
	ev.Error = err.Error()
	ev.ErrorKind = string(KindOf(err))
	if ev.ErrorKind == "" {
		ev.ErrorKind = OutcomeError
	}
	g.observer.ObserveGrant(ev.ProviderType, ev.Outcome)
	g.record(ctx, log, ev)
	log.Info("social grant failed", logger.Outcome(ev.Outcome), logger.Err(err))
	return err
}

func (g *Granter) record(ctx context.Context, log *zap.Logger, ev audit.Event) {
	if err := g.audit.Record(ctx, ev); err != nil {
		log.Warn("audit record failed", logger.Err(err))
	}
}
